// Package lacrm provides a client for the Less Annoying CRM form API.
package lacrm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/salgsmotor/internal/resilience"
)

// Client defines the LACRM operations used by the sync driver.
type Client interface {
	// SearchContacts returns contacts matching text. Empty text returns all.
	SearchContacts(ctx context.Context, text string) ([]Contact, error)
	// GetCustomFields returns every custom field definition.
	GetCustomFields(ctx context.Context) (*CustomFields, error)
	// EditContact writes fields (custom field ID → value) onto a contact.
	EditContact(ctx context.Context, contactID string, fields map[string]string) error
	// GetPipelines lists the account's pipelines.
	GetPipelines(ctx context.Context) ([]Pipeline, error)
	// CreatePipeline creates a pipeline and returns its ID.
	CreatePipeline(ctx context.Context, name string, statuses []string) (string, error)
	// CreatePipelineItem adds an item to a pipeline and returns its ID.
	CreatePipelineItem(ctx context.Context, item PipelineItem) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetryConfig overrides resilience.DefaultRetryConfig.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	userCode string
	apiToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
}

// NewClient creates a LACRM client.
func NewClient(userCode, apiToken string, opts ...Option) Client {
	c := &httpClient{
		userCode: userCode,
		apiToken: apiToken,
		baseURL:  "https://api.lessannoyingcrm.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response shape. GetCustomFields puts its data in
// top-level keys beside Success, so the whole body is kept.
type envelope struct {
	Success bool            `json:"Success"`
	Result  json.RawMessage `json:"Result"`
	body    []byte
}

func (c *httpClient) call(ctx context.Context, function string, params any) (*envelope, error) {
	form := url.Values{}
	form.Set("UserCode", c.userCode)
	form.Set("APIToken", c.apiToken)
	form.Set("Function", function)
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, eris.Wrapf(err, "lacrm: %s: marshal parameters", function)
		}
		form.Set("Parameters", string(raw))
	}
	encoded := form.Encode()

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("lacrm", function)

	env, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*envelope, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rate limiter wait")
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(encoded))
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "request failed"), 0)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "read response body"), resp.StatusCode)
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Transientf(resp.StatusCode, "status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, eris.Wrap(err, "unmarshal response")
		}
		env.body = body
		return &env, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "lacrm: %s", function)
	}
	if !env.Success {
		return nil, &APIError{Function: function, Message: apiMessage(env.Result)}
	}
	return env, nil
}

func (c *httpClient) SearchContacts(ctx context.Context, text string) ([]Contact, error) {
	env, err := c.call(ctx, "SearchContacts", map[string]string{"SearchText": text})
	if err != nil {
		return nil, err
	}
	var contacts []Contact
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &contacts); err != nil {
			return nil, eris.Wrap(err, "lacrm: unmarshal contacts")
		}
	}
	return contacts, nil
}

func (c *httpClient) GetCustomFields(ctx context.Context) (*CustomFields, error) {
	env, err := c.call(ctx, "GetCustomFields", nil)
	if err != nil {
		return nil, err
	}
	var fields CustomFields
	if err := json.Unmarshal(env.body, &fields); err != nil {
		return nil, eris.Wrap(err, "lacrm: unmarshal custom fields")
	}
	if fields.Total() == 0 && len(env.Result) > 0 && env.Result[0] == '{' {
		if err := json.Unmarshal(env.Result, &fields); err != nil {
			return nil, eris.Wrap(err, "lacrm: unmarshal custom fields result")
		}
	}
	return &fields, nil
}

func (c *httpClient) EditContact(ctx context.Context, contactID string, fields map[string]string) error {
	params := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		params[k] = v
	}
	params["ContactId"] = contactID
	_, err := c.call(ctx, "EditContact", params)
	return err
}

func (c *httpClient) GetPipelines(ctx context.Context) ([]Pipeline, error) {
	env, err := c.call(ctx, "GetPipelines", nil)
	if err != nil {
		return nil, err
	}
	var pipelines []Pipeline
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &pipelines); err != nil {
			return nil, eris.Wrap(err, "lacrm: unmarshal pipelines")
		}
	}
	return pipelines, nil
}

func (c *httpClient) CreatePipeline(ctx context.Context, name string, statuses []string) (string, error) {
	env, err := c.call(ctx, "CreatePipeline", map[string]any{"Name": name, "StatusNames": statuses})
	if err != nil {
		return "", err
	}
	var res struct {
		PipelineID FlexString `json:"PipelineId"`
	}
	if err := json.Unmarshal(env.Result, &res); err != nil {
		return "", eris.Wrap(err, "lacrm: unmarshal pipeline id")
	}
	return res.PipelineID.String(), nil
}

func (c *httpClient) CreatePipelineItem(ctx context.Context, item PipelineItem) (string, error) {
	env, err := c.call(ctx, "CreatePipelineItem", item)
	if err != nil {
		return "", err
	}
	var res struct {
		PipelineItemID FlexString `json:"PipelineItemId"`
	}
	if err := json.Unmarshal(env.Result, &res); err != nil {
		return "", eris.Wrap(err, "lacrm: unmarshal pipeline item id")
	}
	return res.PipelineItemID.String(), nil
}
