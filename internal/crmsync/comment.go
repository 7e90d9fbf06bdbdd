package crmsync

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/pkg/anthropic"
)

// Commenter writes the approach comment attached to a pipeline item.
type Commenter interface {
	Comment(ctx context.Context, rec *model.Record, service string) string
}

const (
	commentSystemPrompt = "Du er en profesjonell salgsrådgiver som skriver korte, effektive tilnærmingskommentarer."
	commentPrompt       = `Du er en erfaren salgsrådgiver. Basert på følgende informasjon om et norsk selskap, skriv en kort og profesjonell tilnærmingskommentar (maks 150 ord) som forklarer:
1. Hvorfor denne tjenesten er relevant for dem
2. Hvilke konkrete fordeler de kan få
3. En naturlig måte å ta kontakt på

Informasjon om selskapet:
%s

Skriv svaret på norsk og hold det konkret og salgsorientert.`
	commentMaxTokens   = 200
	commentTemperature = 0.7
)

// AICommenter generates Norwegian sales comments with a language model and
// falls back to fixed text when the model is missing or fails.
type AICommenter struct {
	llm   anthropic.Client
	model string
}

// NewAICommenter creates an AICommenter. llm may be nil.
func NewAICommenter(llm anthropic.Client, model string) *AICommenter {
	return &AICommenter{llm: llm, model: model}
}

// Comment returns a comment for service. It never fails.
func (c *AICommenter) Comment(ctx context.Context, rec *model.Record, service string) string {
	if c.llm == nil {
		return fmt.Sprintf("Anbefalt tjeneste: %s basert på automatisk analyse.", service)
	}

	resp, err := c.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   commentMaxTokens,
		System:      commentSystemPrompt,
		Messages:    anthropic.UserMessage(fmt.Sprintf(commentPrompt, commentContext(rec, service))),
		Temperature: anthropic.Temperature(commentTemperature),
	})
	if err == nil {
		resp.Usage.LogCost(c.model, "sales_comment")
		if text := resp.Text(); text != "" {
			return text
		}
	}
	zap.L().Warn("crmsync: sales comment generation failed",
		zap.String("orgnr", rec.OrgNumber.String()),
		zap.Error(err),
	)
	return fmt.Sprintf("Anbefalt tjeneste: %s. Selskapet kan dra nytte av denne tjenesten basert på vår analyse av deres digitale tilstedeværelse og forretningsdata.", service)
}

func commentContext(rec *model.Record, service string) string {
	name, industry, employees, website := "Ukjent selskap", "Ukjent bransje", "0", "Ingen nettside"
	if c, ok := rec.Registry.Get(); ok {
		if c.Name != "" {
			name = c.Name
		}
		if d := c.IndustryDescription(); d != "" {
			industry = d
		}
		if c.Employees != nil {
			employees = strconv.Itoa(*c.Employees)
		}
		if c.Website != "" {
			website = c.Website
		}
	}
	return fmt.Sprintf("Selskap: %s\nBransje: %s\nAntall ansatte: %s\nNettside: %s\nAnbefalt tjeneste: %s",
		name, industry, employees, website, service)
}
