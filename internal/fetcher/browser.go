package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultUserAgent is a current desktop Chrome signature. Directory sites
// serve reduced pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 5 << 20

// Browser is a Fetcher that sends browser-like headers.
type Browser struct {
	client    *http.Client
	gate      *Gate
	userAgent string
	timeout   time.Duration
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithGate sets the URL gate. Defaults to NewGate().
func WithGate(g *Gate) BrowserOption {
	return func(b *Browser) { b.gate = g }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) BrowserOption {
	return func(b *Browser) {
		if ua != "" {
			b.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout. Defaults to 15s.
func WithTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithTransport replaces the HTTP transport, dropping the dial-time address
// check.
func WithTransport(rt http.RoundTripper) BrowserOption {
	return func(b *Browser) { b.client.Transport = rt }
}

// NewBrowser creates a Browser.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		timeout:   15 * time.Second,
	}
	for _, o := range opts {
		o(b)
	}
	if b.gate == nil {
		b.gate = NewGate()
	}
	if b.client.Transport == nil {
		b.client.Transport = newTransport(b.gate)
	}
	b.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return eris.New("fetcher: too many redirects")
		}
		_, err := b.gate.Check(req.URL.String())
		return err
	}
	return b
}

// newTransport dials only addresses the gate accepts. It has no proxy: the
// dial check must see the target address.
func newTransport(g *Gate) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
			Control: g.checkDial,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Gate returns the gate the browser checks URLs against.
func (b *Browser) Gate() *Gate { return b.gate }

// Fetch downloads rawURL after checking it against the gate.
func (b *Browser) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := b.gate.Check(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "no,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := b.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrUnsafeURL) {
			return nil, eris.Wrapf(err, "fetcher: refused %s", u.Host)
		}
		return nil, eris.Wrapf(err, "fetcher: get %s", u.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, &BlockedError{URL: u.String(), Type: kind}
	}

	return &Page{
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
