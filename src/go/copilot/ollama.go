package copilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

const systemPrompt = "You are a QA Intelligence copilot. Be concise and action-oriented."

// OllamaReasoner asks a locally running Ollama server. Connection failures
// surface as ErrNotInitialized so the service degrades to the fallback
// composer instead of erroring out.
type OllamaReasoner struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaReasoner builds a reasoner for the given endpoint and model.
// Defaults: http://localhost:11434, qwen2.5:3b-instruct, DefaultAskTimeout.
func NewOllamaReasoner(endpoint, model string, timeout time.Duration) *OllamaReasoner {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen2.5:3b-instruct"
	}
	if timeout <= 0 {
		timeout = DefaultAskTimeout
	}

	return &OllamaReasoner{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

// Ask implements Reasoner.
func (r *OllamaReasoner) Ask(ctx context.Context, question string, rows []types.TestCase) (string, error) {
	prompt := fmt.Sprintf("Question: %s\n\nContext tests:\n%s", question, ContextBrief(rows))

	req := ollamaGenerateRequest{
		Model:  r.model,
		System: systemPrompt,
		Prompt: prompt,
		Stream: false,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		// the local model server is not running
		return "", fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: model %q not available", ErrNotInitialized, r.model)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(payload))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Response, nil
}

// Name implements Reasoner.
func (r *OllamaReasoner) Name() string {
	return fmt.Sprintf("ollama:%s", r.model)
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}
