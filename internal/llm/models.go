package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ModelProbe checks that a provider serves a given model via GET /v1/models.
type ModelProbe struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewModelProbe creates a new model probe.
func NewModelProbe(baseURL, apiKey string) *ModelProbe {
	return &ModelProbe{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(5 * time.Second),
	}
}

// ModelInfo is one entry of the /v1/models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelsResponse represents the response from the /v1/models endpoint.
type ModelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// HasModel reports whether modelName is listed by the provider.
func (p *ModelProbe) HasModel(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return false, fmt.Errorf("failed to decode models response: %w", err)
	}

	for _, model := range modelsResp.Data {
		if model.ID == modelName {
			return true, nil
		}
	}
	return false, nil
}
