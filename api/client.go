package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shogitools/usibridge/usi"
)

// Client calls a bridge's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Analyze runs GET /analyze. Zero-valued request fields are left to the
// server's defaults.
func (c *Client) Analyze(ctx context.Context, req usi.Request) (*AnalyzeResponse, error) {
	q := url.Values{}
	q.Set("sfen", req.SFEN)
	if req.Depth > 0 {
		q.Set("depth", strconv.Itoa(req.Depth))
	}
	if req.MultiPV > 0 {
		q.Set("multipv", strconv.Itoa(req.MultiPV))
	}
	if req.Threads > 0 {
		q.Set("threads", strconv.Itoa(req.Threads))
	}
	if req.ForceMove != "" {
		q.Set("forceMove", req.ForceMove)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyze?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
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
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("bridge API error %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("bridge API error %d: %s", resp.StatusCode, string(body))
	}

	var out AnalyzeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}
