package probe

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/model"
)

// ListingWebsiteKey is the listings key for the website found in the directory.
const ListingWebsiteKey = "gulesider_website"

// ListingsProbe reads the company's directory entry for extra links.
type ListingsProbe struct {
	fetch   fetcher.Fetcher
	baseURL string
}

// NewListingsProbe creates a ListingsProbe for the directory at baseURL.
func NewListingsProbe(f fetcher.Fetcher, baseURL string) *ListingsProbe {
	return &ListingsProbe{fetch: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// Probe returns the first external link on the directory page.
func (p *ListingsProbe) Probe(ctx context.Context, orgnr model.OrgNumber) model.Section[map[string]string] {
	page, err := p.fetch.Fetch(ctx, p.baseURL+"/bedrift/"+orgnr.String())
	if err != nil {
		return model.Failed[map[string]string](fetchReason(err))
	}
	if page.StatusCode != 200 {
		return model.Failed[map[string]string](statusReason(page.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return model.Failed[map[string]string]("parse failed: " + err.Error())
	}

	listings := make(map[string]string)
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, orgnr.String()) {
			return true
		}
		listings[ListingWebsiteKey] = href
		return false
	})
	return model.Present(listings)
}
