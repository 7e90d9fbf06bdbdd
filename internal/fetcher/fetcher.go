// Package fetcher downloads public web pages for the enrichment probes. Every
// URL passes through a Gate before any request leaves the process.
package fetcher

import (
	"context"
	"net/http"
	"net/url"
)

// Fetcher downloads a single page.
type Fetcher interface {
	// Fetch returns the page for any HTTP status. Network failures, unsafe
	// URLs and anti-bot pages are errors.
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Page is a downloaded response with its body read into memory.
type Page struct {
	// URL is the final URL after redirects.
	URL        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (p *Page) OK() bool { return p.StatusCode >= 200 && p.StatusCode < 300 }
