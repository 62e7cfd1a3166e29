// Package servicem8 provides a typed client for the ServiceM8 REST API.
// Resources are plain JSON endpoints (company.json, job.json, ...) filtered
// with odata-style expressions and authenticated by a static API key header.
package servicem8

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Client defines the ServiceM8 operations used by the intake pipeline.
type Client interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	FindCompanyByName(ctx context.Context, name string) (*Company, error)
	FindContactByEmail(ctx context.Context, email string) (*CompanyContact, error)
	ListContacts(ctx context.Context) ([]CompanyContact, error)
	ListCompanyContacts(ctx context.Context, companyUUID string) ([]CompanyContact, error)
	CreateCompany(ctx context.Context, c Company) (string, error)
	CreateCompanyContact(ctx context.Context, cc CompanyContact) (string, error)
	UpdateCompanyContact(ctx context.Context, uuid string, cc CompanyContact) error
	CreateJob(ctx context.Context, j Job) (*CreatedJob, error)
	FetchJobNumber(ctx context.Context, jobUUID string) (string, error)
	CreateNote(ctx context.Context, n Note) (string, error)
	CreateJobContact(ctx context.Context, jc JobContact) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithMaxPages bounds list traversal to n pages. The API paginates large
// accounts; the bound is a safety valve against unbounded scans.
func WithMaxPages(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	maxPages int
	pageSize int
}

// NewClient creates a ServiceM8 client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  "https://api.servicem8.com/api_1.0",
		maxPages: 10,
		pageSize: 500,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response holds a raw API response after transport-level retries.
type response struct {
	status int
	header http.Header
	body   []byte
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// do executes one API request: auth header injection, URL joining, bounded
// retries on transient statuses, and error-body classification on failure.
func (c *httpClient) do(ctx context.Context, method, path string, payload any) (*response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "servicem8: marshal request body")
		}
	}

	reqURL := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "servicem8: rate limit")
		}
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, eris.Wrap(err, "servicem8: create request")
		}
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "servicem8: request failed")
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "servicem8: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = classify(resp.StatusCode, respBody)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, classify(resp.StatusCode, respBody)
		}

		return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
	}

	return nil, lastErr
}

// recordUUID extracts the created record identity: the x-record-uuid header
// takes precedence, then a uuid field in the JSON body.
func recordUUID(resp *response) string {
	if uuid := resp.header.Get("x-record-uuid"); uuid != "" {
		return uuid
	}
	return gjson.GetBytes(resp.body, "uuid").String()
}

// escapeFilter doubles embedded single quotes so untrusted values can be
// interpolated into $filter expressions.
func escapeFilter(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
