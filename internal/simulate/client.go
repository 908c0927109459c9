package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient wraps http.Client with a per-request timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) do(ctx context.Context, method, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// submit posts or patches a guess for the group owning key and reports the
// outcome as one of "created", "updated", "conflict" or "failed".
func (c *httpClient) submit(ctx context.Context, baseURL, method, key, guess string) string {
	url := baseURL + "/leaderboard/submit/" + key + "/" + guess

	status, body, err := c.do(ctx, method, url)
	if err != nil {
		return "failed"
	}

	switch status {
	case http.StatusCreated:
		return "created"
	case http.StatusOK:
		var resp submissionResponse
		if err := json.Unmarshal(body, &resp); err == nil && resp.Status == "updated" {
			return "updated"
		}
		return "updated"
	case http.StatusConflict:
		return "conflict"
	default:
		return "failed"
	}
}

// standings fetches freshly computed standings from the API.
func (c *httpClient) standings(ctx context.Context, baseURL string) ([]Entry, error) {
	status, body, err := c.do(ctx, http.MethodGet, baseURL+"/leaderboard/standings?fresh=1")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("standings returned status %d", status)
	}

	var resp standingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode standings: %w", err)
	}
	return resp.Standings, nil
}
