// Package advisory is a client for the optional scheduling-advice service.
// Its output is informational and never gates a schedule transition.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the configuration for advisory API access.
type Config struct {
	// BaseURL is the advisory API base URL
	BaseURL string

	// Token is the bearer token for API authentication
	Token string

	// Timeout for API requests
	Timeout time.Duration
}

// Client is a client for the advisory API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new advisory API client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// WindowSummary describes one candidate window sent for advice.
type WindowSummary struct {
	ID           string `json:"id"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	SourceText   string `json:"sourceText,omitempty"`
	Precision    string `json:"precision"`
	WindowType   string `json:"windowType"`
	SupportCount int    `json:"supportCount"`
}

// InsightRequest is the schedule summary the advisory service reasons over.
type InsightRequest struct {
	TripID            string          `json:"tripId"`
	Phase             string          `json:"phase"`
	TotalTravelers    int             `json:"totalTravelers"`
	ThresholdNeeded   int             `json:"thresholdNeeded"`
	Windows           []WindowSummary `json:"windows"`
	ProposedWindowIDs []string        `json:"proposedWindowIds,omitempty"`
}

// Insight is the advisory response.
type Insight struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Insight asks the advisory service to comment on a schedule.
func (c *Client) Insight(ctx context.Context, in InsightRequest) (*Insight, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/schedule-insight", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, respBody)
	}

	var insight Insight
	if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &insight, nil
}

// newRequest creates a new HTTP request with authentication.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
