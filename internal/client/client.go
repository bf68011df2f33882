// Package client is a thin HTTP client for the review service API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"jobboard/review-service/internal/review"
)

const httpTimeout = 10 * time.Second

// Client calls a running review service.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs a client for baseURL, e.g. "http://localhost:8083".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// List returns the applications matching f.
func (c *Client) List(ctx context.Context, f review.Filter) ([]review.Application, error) {
	var apps []review.Application
	if err := c.do(ctx, http.MethodGet, "/applications?"+filterQuery(f).Encode(), nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Stats returns the per-status counts of the applications matching f.
func (c *Client) Stats(ctx context.Context, f review.Filter) (review.Stats, error) {
	var stats review.Stats
	if err := c.do(ctx, http.MethodGet, "/applications/stats?"+filterQuery(f).Encode(), nil, &stats); err != nil {
		return review.Stats{}, err
	}
	return stats, nil
}

// UpdateStatus asks the service to move application id to status.
// A 404 surfaces as review.ErrNotFound, a 400 as *review.ValidationError.
func (c *Client) UpdateStatus(ctx context.Context, id string, status review.Status) (review.Application, error) {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return review.Application{}, err
	}
	var app review.Application
	path := "/applications/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPost, path, body, &app); err != nil {
		return review.Application{}, err
	}
	return app, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return review.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return &review.ValidationError{Msg: errorMessage(raw)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("review service returned %d: %s", resp.StatusCode, errorMessage(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a response body, falling back
// to the raw body.
func errorMessage(raw []byte) string {
	if msg := gjson.GetBytes(raw, "error"); msg.Exists() {
		return msg.String()
	}
	return strings.TrimSpace(string(raw))
}

func filterQuery(f review.Filter) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("candidateId", f.CandidateID)
	set("companyId", f.CompanyID)
	set("jobId", f.JobID)
	set("status", string(f.Status))
	set("q", f.Query)
	return v
}
