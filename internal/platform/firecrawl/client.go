// Package firecrawl implements the crawl gateway against a Firecrawl-style
// HTTP API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/gateway"
)

// Client talks to the external crawl API. Every request carries the
// configured timeout; expiry surfaces as a gateway error so a pending task
// stays pending. No retries here.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createJobBody struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Schedule    string `json:"schedule,omitempty"`
}

type createJobResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url"`
}

func (c *Client) CreateJob(ctx context.Context, req gateway.CreateJobRequest) (*gateway.Job, error) {
	body, err := json.Marshal(createJobBody{
		URL:         req.URL,
		Name:        req.Name,
		Description: req.Description,
		Schedule:    req.Schedule,
	})
	if err != nil {
		return nil, common.Errorf("failed to marshal crawl job request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/crawl", bytes.NewReader(body))
	if err != nil {
		return nil, common.Errorf("failed to build crawl job request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, common.Errorf("crawl job creation failed: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.Errorf("crawl API returned %d: %s: %w", resp.StatusCode, readBodySnippet(resp.Body), common.ErrServiceUnavailable)
	}

	var out createJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, common.Errorf("failed to decode crawl job response: %v: %w", err, common.ErrServiceUnavailable)
	}
	if out.ID == "" {
		return nil, common.Errorf("crawl API returned no job id: %w", common.ErrServiceUnavailable)
	}
	return &gateway.Job{ID: out.ID, URL: out.URL}, nil
}

func (c *Client) JobStatus(ctx context.Context, jobID string) (*gateway.JobStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/crawl/"+jobID, nil)
	if err != nil {
		return nil, common.Errorf("failed to build crawl status request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, common.Errorf("crawl status check failed: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.Errorf("crawl job %s: %w", jobID, common.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.Errorf("crawl API returned %d: %s: %w", resp.StatusCode, readBodySnippet(resp.Body), common.ErrServiceUnavailable)
	}

	var out gateway.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, common.Errorf("failed to decode crawl status response: %v: %w", err, common.ErrServiceUnavailable)
	}
	return &out, nil
}

func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/crawl/"+jobID, nil)
	if err != nil {
		return common.Errorf("failed to build crawl cancel request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return common.Errorf("crawl cancellation failed: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return common.Errorf("crawl job %s: %w", jobID, common.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return common.Errorf("crawl API returned %d: %s: %w", resp.StatusCode, readBodySnippet(resp.Body), common.ErrServiceUnavailable)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func readBodySnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return string(bytes.TrimSpace(b))
}

var _ gateway.CrawlGateway = (*Client)(nil)
