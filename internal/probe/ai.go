package probe

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/pkg/anthropic"
)

// MaxPageRunes caps the page text sent to the model.
const MaxPageRunes = 8000

const (
	aiSystemPrompt = "You are a helpful business analyst."
	aiPrompt       = "Analyze the following website text from an 'About Us' or home page. " +
		"Assess the tone of voice (e.g., corporate, personal, casual), " +
		"the clarity of the business purpose, and whether it includes a " +
		"clear call-to-action (CTA). Provide a one-sentence summary for each. " +
		"\n\nWebsite Text:\n---\n"
	aiMaxTokens   = 200
	aiTemperature = 0.5
)

// AIProbe summarizes a website's messaging with a language model.
type AIProbe struct {
	fetch fetcher.Fetcher
	llm   anthropic.Client
	model string
}

// NewAIProbe creates an AIProbe. A nil client makes every probe report
// ReasonNotConfigured.
func NewAIProbe(f fetcher.Fetcher, llm anthropic.Client, model string) *AIProbe {
	return &AIProbe{fetch: f, llm: llm, model: model}
}

// Probe fetches the page, extracts readable text and asks for a summary.
func (p *AIProbe) Probe(ctx context.Context, siteURL string) model.Section[model.AIAnalysis] {
	if p.llm == nil {
		return model.Failed[model.AIAnalysis](ReasonNotConfigured)
	}

	page, err := p.fetch.Fetch(ctx, siteURL)
	if err != nil {
		return model.Failed[model.AIAnalysis]("could not fetch website content: " + fetchReason(err))
	}
	if !page.OK() {
		return model.Failed[model.AIAnalysis]("could not fetch website content: " + statusReason(page.StatusCode))
	}

	text := truncateRunes(collapseSpace(pageText(page, siteURL)), MaxPageRunes)
	if text == "" {
		return model.Failed[model.AIAnalysis](ReasonNoData)
	}

	resp, err := p.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   aiMaxTokens,
		System:      aiSystemPrompt,
		Messages:    anthropic.UserMessage(aiPrompt + text),
		Temperature: anthropic.Temperature(aiTemperature),
	})
	if err != nil {
		zap.L().Warn("ai analysis failed", zap.String("url", siteURL), zap.Error(err))
		return model.Failed[model.AIAnalysis](aiFailedPrefix + err.Error())
	}
	resp.Usage.LogCost(p.model, "ai_analysis")

	summary := resp.Text()
	if summary == "" {
		return model.Failed[model.AIAnalysis](aiFailedPrefix + "empty response")
	}
	return model.Present(model.AIAnalysis{Summary: summary})
}

// pageText prefers the readability article and falls back to the text of
// common content elements.
func pageText(page *fetcher.Page, siteURL string) string {
	u := page.URL
	if u == nil {
		if u, _ = url.Parse(siteURL); u == nil {
			u = &url.URL{}
		}
	}
	article, err := readability.FromReader(bytes.NewReader(page.Body), u)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return ""
	}
	var parts []string
	doc.Find("p, h1, h2, div").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return strings.Join(parts, " ")
}
