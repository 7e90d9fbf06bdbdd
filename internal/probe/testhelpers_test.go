package probe

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/salgsmotor/internal/fetcher"
)

// fakeFetcher serves canned pages by URL and records every request.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetcher.Page
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]*fetcher.Page{}, errs: map[string]error{}}
}

func (f *fakeFetcher) html(rawURL string, status int, body string) *fakeFetcher {
	u, _ := url.Parse(rawURL)
	f.pages[rawURL] = &fetcher.Page{
		URL:        u,
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte(body),
	}
	return f
}

func (f *fakeFetcher) fail(rawURL string, err error) *fakeFetcher {
	f.errs[rawURL] = err
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*fetcher.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if p, ok := f.pages[rawURL]; ok {
		return p, nil
	}
	return nil, eris.Errorf("fetcher: no route for %s", rawURL)
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
