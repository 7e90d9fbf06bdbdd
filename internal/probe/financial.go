package probe

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/model"
)

// FinancialSelectors are the CSS selectors used on the company page.
type FinancialSelectors struct {
	Table        string
	Widget       string
	WidgetHeader string
	WidgetValue  string
}

// DefaultFinancialSelectors matches the current proff.no markup.
func DefaultFinancialSelectors() FinancialSelectors {
	return FinancialSelectors{
		Table:        "table.AccountFiguresWidget-accountingtable",
		Widget:       "div.StatsWidget-cell",
		WidgetHeader: "span.StatsWidget-header",
		WidgetValue:  "span.StatsWidget-value",
	}
}

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+47\s?)?(?:\d{2}\s?\d{2}\s?\d{2}\s?\d{2}|\d{8})`)

	widgetLabelRe = regexp.MustCompile(`(?i)inntekt|resultat|ebitda|omsetning`)
)

// Table labels that describe the table rather than a figure.
var skipLabels = map[string]bool{"Regnskap": true, "Valuta": true}

// FinancialProbe scrapes key figures from the public company page.
type FinancialProbe struct {
	fetch     fetcher.Fetcher
	baseURL   string
	selectors FinancialSelectors
}

// NewFinancialProbe creates a FinancialProbe. Empty selectors fall back to
// DefaultFinancialSelectors.
func NewFinancialProbe(f fetcher.Fetcher, baseURL string, sel FinancialSelectors) *FinancialProbe {
	def := DefaultFinancialSelectors()
	if sel.Table == "" {
		sel.Table = def.Table
	}
	if sel.Widget == "" {
		sel.Widget = def.Widget
	}
	if sel.WidgetHeader == "" {
		sel.WidgetHeader = def.WidgetHeader
	}
	if sel.WidgetValue == "" {
		sel.WidgetValue = def.WidgetValue
	}
	return &FinancialProbe{fetch: f, baseURL: strings.TrimRight(baseURL, "/"), selectors: sel}
}

// Probe fetches {base}/company/{orgnr} and extracts figures, description
// and contact details.
func (p *FinancialProbe) Probe(ctx context.Context, orgnr model.OrgNumber) model.Section[model.Financial] {
	pageURL := p.baseURL + "/company/" + orgnr.String()
	log := zap.L().With(zap.String("probe", "financial"), zap.String("orgnr", orgnr.String()))

	page, err := p.fetch.Fetch(ctx, pageURL)
	if err != nil {
		log.Warn("financial page fetch failed", zap.Error(err))
		return model.Failed[model.Financial](fetchReason(err))
	}
	if page.StatusCode != 200 {
		log.Warn("financial page returned non-200", zap.Int("status", page.StatusCode))
		return model.Failed[model.Financial](statusReason(page.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return model.Failed[model.Financial]("parse failed: " + err.Error())
	}

	fin := model.Financial{URL: pageURL, KeyFigures: p.tableFigures(doc)}
	if len(fin.KeyFigures) == 0 {
		fin.KeyFigures = p.widgetFigures(doc)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		fin.Description = strings.TrimSpace(desc)
	}

	text := doc.Text()
	fin.Contact.Email = emailRe.FindString(text)
	fin.Contact.Phone = phoneRe.FindString(text)

	if len(fin.KeyFigures) == 0 && fin.Description == "" {
		log.Info("no financial data on page")
		return model.Failed[model.Financial](ReasonNoData)
	}
	if len(fin.KeyFigures) == 0 {
		fin.KeyFigures = nil
	}
	log.Debug("financial page scraped", zap.Int("figures", len(fin.KeyFigures)))
	return model.Present(fin)
}

func (p *FinancialProbe) tableFigures(doc *goquery.Document) map[string]string {
	figures := make(map[string]string)
	doc.Find(p.selectors.Table).First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		key, value := cells.Eq(0), cells.Eq(1)
		if goquery.NodeName(key) == "th" && goquery.NodeName(value) == "th" {
			return
		}
		label := strings.TrimSpace(key.Text())
		raw := strings.TrimSpace(value.Text())
		if label == "" || raw == "" || skipLabels[label] {
			return
		}
		figures[label] = cleanFigure(raw)
	})
	return figures
}

func (p *FinancialProbe) widgetFigures(doc *goquery.Document) map[string]string {
	figures := make(map[string]string)
	doc.Find(p.selectors.Widget).Each(func(_ int, cell *goquery.Selection) {
		header := cell.Find(p.selectors.WidgetHeader)
		value := cell.Find(p.selectors.WidgetValue)
		if header.Length() == 0 || value.Length() == 0 {
			return
		}
		label := strings.TrimSpace(header.First().Text())
		if !widgetLabelRe.MatchString(label) {
			return
		}
		figures[label] = cleanFigure(strings.TrimSpace(value.First().Text()))
	})
	return figures
}

// cleanFigure drops the currency suffix and normalizes the minus sign.
func cleanFigure(v string) string {
	v = strings.ReplaceAll(v, "NOK", "")
	v = strings.ReplaceAll(v, "−", "-")
	return strings.TrimSpace(v)
}
