// Package search provides the web search capability backing listing
// retrieval, implemented against the Tavily HTTP API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"estatescout/internal/config"
	"estatescout/internal/model"
)

// TavilyClient calls the Tavily search API. Search is a required capability:
// a missing or placeholder credential is a configuration error surfaced at
// construction time.
type TavilyClient struct {
	config     *config.TavilyConfig
	httpClient *http.Client
}

// NewTavilyClient creates a Tavily search client. It fails fast when the
// credential is absent or still the .env placeholder.
func NewTavilyClient(cfg *config.TavilyConfig) (*TavilyClient, error) {
	if cfg.APIKey == "" || cfg.APIKey == "your_tavily_api_key_here" {
		return nil, fmt.Errorf("tavily API key not configured: set TAVILY_API_KEY in your .env file (get a key at https://tavily.com)")
	}
	return &TavilyClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		Content string  `json:"content"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search issues a web search and returns ranked snippets. Provider errors
// are returned to the caller, not swallowed.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]model.WebResult, error) {
	reqBody, err := json.Marshal(tavilyRequest{
		APIKey:     c.config.APIKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/search", c.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result tavilyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	out := make([]model.WebResult, 0, len(result.Results))
	for _, r := range result.Results {
		out = append(out, model.WebResult{
			Title:   r.Title,
			Content: r.Content,
			URL:     r.URL,
		})
	}
	return out, nil
}
