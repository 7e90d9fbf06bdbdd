// Package brreg provides a client for the Enhetsregisteret open data API
// published by the Brønnøysund Register Centre.
package brreg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/resilience"
)

// MaxNameRunes bounds a name search.
const MaxNameRunes = 200

// MaxResponseBytes caps a registry response body.
const MaxResponseBytes = 4 << 20

var (
	// ErrNotFound is returned when the registry has no such unit. Terminal.
	ErrNotFound = eris.New("brreg: unit not found")
	// ErrInvalidName is returned for empty or oversized search names.
	ErrInvalidName = eris.New("brreg: invalid search name")
)

// Client defines the registry lookups.
type Client interface {
	// FetchByOrgNumber returns the unit for a 9-digit organization number.
	FetchByOrgNumber(ctx context.Context, orgnr string) (*model.Company, error)
	// SearchByName returns the organization number of the best name match.
	SearchByName(ctx context.Context, name string) (model.OrgNumber, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the HTTP timeout. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a registry client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://data.brreg.no",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Embedded struct {
		Units []model.Company `json:"enheter"`
	} `json:"_embedded"`
}

func (c *httpClient) FetchByOrgNumber(ctx context.Context, orgnr string) (*model.Company, error) {
	num, err := model.ParseOrgNumber(orgnr)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, "/enhetsregisteret/api/enheter/"+num.String(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "brreg: fetch unit %s", num)
	}

	var unit model.Company
	if err := json.Unmarshal(body, &unit); err != nil {
		return nil, eris.Wrap(err, "brreg: unmarshal unit")
	}
	return &unit, nil
}

func (c *httpClient) SearchByName(ctx context.Context, name string) (model.OrgNumber, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameRunes {
		return "", ErrInvalidName
	}

	q := url.Values{}
	q.Set("navn", name)
	q.Set("size", "1")
	body, err := c.get(ctx, "/enhetsregisteret/api/enheter", q)
	if err != nil {
		return "", eris.Wrapf(err, "brreg: search %q", name)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", eris.Wrap(err, "brreg: unmarshal search response")
	}
	if len(resp.Embedded.Units) == 0 {
		return "", eris.Wrapf(ErrNotFound, "no match for %q", name)
	}
	return model.ParseOrgNumber(resp.Embedded.Units[0].OrgNumber)
}

// get performs one GET. 404 maps to ErrNotFound; every other failure is a
// TransientError so callers can tell "gone" from "try later".
func (c *httpClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "request failed"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "read response body"), resp.StatusCode)
	}
	if len(body) > MaxResponseBytes {
		return nil, eris.Errorf("response body exceeds %d bytes", MaxResponseBytes)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, resilience.Transientf(resp.StatusCode, "unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return fmt.Sprintf("%s…", b[:n])
}
