package translator

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/valpere/termshield/internal/postprocess"
)

// OpenAIService translates through any OpenAI-compatible chat completions
// endpoint (OpenAI, OpenRouter, vLLM, llama.cpp server).
type OpenAIService struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAIService builds a chat backend from cfg.
func NewOpenAIService(cfg ServiceConfig) (*OpenAIService, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai backend: model is required")
	}
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, option.WithMaxRetries(0))

	name := cfg.Name
	if name == "" {
		name = "openai:" + cfg.Model
	}
	return &OpenAIService{
		name:   name,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}, nil
}

func (s *OpenAIService) Name() string {
	return s.name
}

// Translate maps the beam count to the sampling seed and the repetition
// penalty (1.0 neutral) to the frequency penalty (0 neutral).
func (s *OpenAIService) Translate(ctx context.Context, text, sourceLang, targetLang string, params GenerationParams) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(sourceLang, targetLang)),
			openai.UserMessage(text),
		},
		Seed:        openai.Int(int64(params.NumBeams)),
		Temperature: openai.Float(0.2),
	}
	if params.RepetitionPenalty > 0 {
		req.FrequencyPenalty = openai.Float(params.RepetitionPenalty - 1)
	}

	resp, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}

	out := postprocess.Clean(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}
