// Package remote talks to the marketplace bridge service that supplies source
// item data, checks existing destination listings and creates new listings.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"asin-lister/models"
	"asin-lister/utils"
)

const (
	lookupPath   = "/items/lookup"
	existingPath = "/items/existing"
	listingsPath = "/listings"

	defaultBatchSize = 100
)

// Client is the HTTP client for the bridge service. It implements the
// enrichment, existence-check and listing-creation collaborators.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *utils.RetryConfig
	logger     *utils.Logger
	batchSize  int
}

// NewClient creates a Client. Reads are retried with back-off; listing
// creation is attempted once because it is not idempotent.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, logger *utils.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
		logger:    logger,
		batchSize: defaultBatchSize,
	}
}

type asinsRequest struct {
	ASINs []string `json:"asins"`
}

type lookupResponse struct {
	Items []models.SourceItemInfo `json:"items"`
}

type existingResponse struct {
	Existing []string `json:"existing"`
}

type createRequest struct {
	Items []models.ListingPayload `json:"items"`
}

type createResponse struct {
	Results []models.CreateResult `json:"results"`
}

// Lookup fetches source item data in batches. Identifiers the service does
// not know are simply absent from the result.
func (c *Client) Lookup(ctx context.Context, asins []string) ([]models.SourceItemInfo, error) {
	var out []models.SourceItemInfo
	for _, batch := range chunk(asins, c.batchSize) {
		var resp lookupResponse
		err := c.retry.Do(ctx, "remote lookup", func(ctx context.Context) error {
			return c.post(ctx, lookupPath, asinsRequest{ASINs: batch}, &resp)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Items...)
	}
	c.logger.Debug("[remote] Lookup returned %d of %d items", len(out), len(asins))
	return out, nil
}

// Existing returns the identifiers already listed on the destination.
func (c *Client) Existing(ctx context.Context, asins []string) ([]string, error) {
	var out []string
	for _, batch := range chunk(asins, c.batchSize) {
		var resp existingResponse
		err := c.retry.Do(ctx, "remote existing", func(ctx context.Context) error {
			return c.post(ctx, existingPath, asinsRequest{ASINs: batch}, &resp)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Existing...)
	}
	return out, nil
}

// Create submits all payloads in a single request.
func (c *Client) Create(ctx context.Context, payloads []models.ListingPayload) ([]models.CreateResult, error) {
	var resp createResponse
	if err := c.post(ctx, listingsPath, createRequest{Items: payloads}, &resp); err != nil {
		return nil, fmt.Errorf("remote create: %w", err)
	}
	c.logger.Info("[remote] Submitted %d listings, got %d results", len(payloads), len(resp.Results))
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", path, err)
	}
	return nil
}

func chunk(values []string, size int) [][]string {
	if size < 1 {
		size = len(values)
	}
	var out [][]string
	for i := 0; i < len(values); i += size {
		end := i + size
		if end > len(values) {
			end = len(values)
		}
		out = append(out, values[i:end])
	}
	return out
}
