package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LLMInsightClient calls an external analysis service over HTTP. A failed
// call is returned as an error; callers substitute FallbackInsight and log,
// they never retry.
type LLMInsightClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewLLMInsightClient creates an insight client for the given endpoint
func NewLLMInsightClient(endpoint, apiKey string, timeout time.Duration) *LLMInsightClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LLMInsightClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Analyze posts the request to the analysis service and decodes the insight
func (c *LLMInsightClient) Analyze(ctx context.Context, req InsightRequest) (*Insight, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("insight endpoint not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build insight request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("insight request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a little body for the error message, ignore the rest
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("insight service returned %d: %s", resp.StatusCode, string(snippet))
	}

	var insight Insight
	if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
		return nil, fmt.Errorf("failed to decode insight response: %w", err)
	}

	return &insight, nil
}
