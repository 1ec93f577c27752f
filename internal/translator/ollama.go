package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/termshield/internal/postprocess"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaService translates through a local Ollama server.
type OllamaService struct {
	name    string
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService builds an Ollama backend from cfg.
func NewOllamaService(cfg ServiceConfig) *OllamaService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	name := cfg.Name
	if name == "" {
		name = "ollama:" + model
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OllamaService{
		name:    name,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OllamaService) Name() string {
	return s.name
}

type ollamaOptions struct {
	Seed          int     `json:"seed"`
	Temperature   float64 `json:"temperature"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

// Translate calls /api/generate. Ollama has no beam search, so the beam
// count seeds the sampler and each retry variant yields a different draw.
func (s *OllamaService) Translate(ctx context.Context, text, sourceLang, targetLang string, params GenerationParams) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  s.model,
		Prompt: buildCompletionPrompt(text, sourceLang, targetLang),
		Stream: false,
		Options: ollamaOptions{
			Seed:          params.NumBeams,
			Temperature:   0.2,
			RepeatPenalty: params.RepetitionPenalty,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	out := postprocess.Clean(ollamaResp.Response)
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

// IsAvailable checks that the server answers /api/tags.
func (s *OllamaService) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
