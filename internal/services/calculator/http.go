package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

// HTTPService proxies evaluation to a remote calculator endpoint. Selected by
// CALC_TOOL_MODE=http; the remote contract mirrors the local POST /calc route.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(baseURL string) (*HTTPService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("CALC_HTTP_BASE_URL is required for http calculator mode")
	}
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (s *HTTPService) Evaluate(ctx context.Context, expression string) (*model.CalcResult, error) {
	body, err := json.Marshal(map[string]string{"expression": expression})
	if err != nil {
		return nil, newError("Failed to encode expression.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/calc", bytes.NewReader(body))
	if err != nil {
		return nil, newError("Failed to build calculator request.")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newError("Calculator service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error != "" {
			return nil, newError("%s", payload.Error)
		}
		return nil, newError("Calculator service returned status %d.", resp.StatusCode)
	}

	var result model.CalcResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, newError("Calculator service returned a malformed response.")
	}
	return &result, nil
}
