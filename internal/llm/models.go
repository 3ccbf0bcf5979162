package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ModelInfo describes an installed model as reported by the endpoint.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// ListModels fetches the installed models from the /api/tags endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating tags request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
	}

	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}
	return payload.Models, nil
}

// Ping reports whether the endpoint is reachable and the configured model is
// installed. A bare model name matches any installed tag of that model.
func (c *Client) Ping(ctx context.Context) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	base := strings.SplitN(c.model, ":", 2)[0]
	for _, m := range models {
		if m.Name == c.model || strings.HasPrefix(m.Name, base) {
			return true
		}
	}
	return false
}
