// Package inspection pushes created job links to the inspection portal's
// internal endpoint so the portal can associate a snapshot with its job.
package inspection

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const linkPath = "/.netlify/functions/internalServiceJobLink"

// jobLink is the push payload.
type jobLink struct {
	JobUUID   string `json:"job_uuid"`
	JobNumber string `json:"job_number"`
	Source    string `json:"source"`
}

// Client posts job links to the inspection portal.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the inspection client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates an inspection push client. Either value may be empty, in
// which case the client reports itself unconfigured and pushes are skipped.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the endpoint and credential are both set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// PushJobLink delivers the job link. The response body is never surfaced in
// errors beyond its status code.
func (c *Client) PushJobLink(ctx context.Context, jobUUID, jobNumber string) error {
	if !c.Configured() {
		return eris.New("inspection: endpoint or credential not configured")
	}

	body, err := json.Marshal(jobLink{JobUUID: jobUUID, JobNumber: jobNumber, Source: "snapshot"})
	if err != nil {
		return eris.Wrap(err, "inspection: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+linkPath, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "inspection: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-internal-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "inspection: push request")
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("inspection: push failed with status %d", resp.StatusCode)
	}
	return nil
}
