package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
)

// Client is the API client for github-pr-metrics
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is an error envelope returned by the server
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// PRFilter narrows ListPRs
type PRFilter struct {
	Month  string // YYYY-MM
	Author string
	Limit  int
}

// GetStats retrieves the aggregated statistics
func (c *Client) GetStats(ctx context.Context) (*domain.Stats, error) {
	var response struct {
		Data *domain.Stats `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/stats", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetMonthlyStats retrieves the monthly rollups between two YYYY-MM months;
// empty bounds are open
func (c *Client) GetMonthlyStats(ctx context.Context, from, until string) ([]domain.MonthlyStats, error) {
	params := url.Values{}
	if from != "" {
		params.Set("from", from)
	}
	if until != "" {
		params.Set("until", until)
	}

	var response struct {
		Data []domain.MonthlyStats `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/stats/monthly", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListPRs retrieves pull request details and the number matching the
// filter before the limit was applied
func (c *Client) ListPRs(ctx context.Context, filter PRFilter) ([]domain.PRDetail, int, error) {
	params := url.Values{}
	if filter.Month != "" {
		params.Set("month", filter.Month)
	}
	if filter.Author != "" {
		params.Set("author", filter.Author)
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var response struct {
		Data  []domain.PRDetail `json:"data"`
		Total int               `json:"total"`
	}
	if err := c.get(ctx, "/api/v1/prs", params, &response); err != nil {
		return nil, 0, err
	}
	return response.Data, response.Total, nil
}

// GetPR retrieves one pull request by number
func (c *Client) GetPR(ctx context.Context, number int) (*domain.PRDetail, error) {
	var response struct {
		Data *domain.PRDetail `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/prs/%d", number), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetCrawlStatus retrieves the checkpoint progress
func (c *Client) GetCrawlStatus(ctx context.Context) (*domain.CrawlStatus, error) {
	var response struct {
		Data *domain.CrawlStatus `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/crawl/status", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			envelope.Error.StatusCode = resp.StatusCode
			return envelope.Error
		}
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
