package probe

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/pkg/jina"
)

// MaxNewsItems caps the stored news hits.
const MaxNewsItems = 5

// NewsProbe searches for recent coverage of a company.
type NewsProbe struct {
	search jina.Client
	now    func() time.Time
}

// NewNewsProbe creates a NewsProbe. A nil client reports ReasonNotConfigured.
func NewNewsProbe(search jina.Client) *NewsProbe {
	return &NewsProbe{search: search, now: time.Now}
}

// Probe runs one news search for the company name.
func (p *NewsProbe) Probe(ctx context.Context, companyName string) model.Section[model.News] {
	if p.search == nil {
		return model.Failed[model.News](ReasonNotConfigured)
	}
	name := strings.TrimSpace(companyName)
	if name == "" {
		return model.Failed[model.News](ReasonNoData)
	}

	resp, err := p.search.Search(ctx, `"`+name+`" nyheter`)
	if err != nil {
		return model.Failed[model.News](newsFailedPrefix + err.Error())
	}

	news := model.News{Items: make([]model.NewsItem, 0, MaxNewsItems), CheckedAt: p.now().UTC()}
	for _, r := range resp.Data {
		if len(news.Items) == MaxNewsItems {
			break
		}
		if r.URL == "" {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = r.URL
		}
		news.Items = append(news.Items, model.NewsItem{Title: title, URL: r.URL})
	}
	return model.Present(news)
}
