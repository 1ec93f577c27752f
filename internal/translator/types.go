package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyOutput is returned when a backend answers with no text.
var ErrEmptyOutput = errors.New("translator: empty output")

// GenerationParams are the decode knobs varied between retry attempts.
type GenerationParams struct {
	NumBeams          int     `json:"num_beams"`
	LengthPenalty     float64 `json:"length_penalty,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

// DefaultParams is the baseline decode configuration.
var DefaultParams = GenerationParams{NumBeams: 4}

// Overlay returns p with every non-zero field of over applied on top.
func (p GenerationParams) Overlay(over GenerationParams) GenerationParams {
	if over.NumBeams != 0 {
		p.NumBeams = over.NumBeams
	}
	if over.LengthPenalty != 0 {
		p.LengthPenalty = over.LengthPenalty
	}
	if over.RepetitionPenalty != 0 {
		p.RepetitionPenalty = over.RepetitionPenalty
	}
	return p
}

func (p GenerationParams) String() string {
	s := fmt.Sprintf("beams=%d", p.NumBeams)
	if p.LengthPenalty != 0 {
		s += fmt.Sprintf(" length_penalty=%.1f", p.LengthPenalty)
	}
	if p.RepetitionPenalty != 0 {
		s += fmt.Sprintf(" repetition_penalty=%.1f", p.RepetitionPenalty)
	}
	return s
}

// ServiceConfig configures one backend instance.
type ServiceConfig struct {
	Name        string        `mapstructure:"name" json:"name"`
	Kind        string        `mapstructure:"kind" json:"kind"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// TranslationBackend is a black-box machine translation engine. A call
// blocks until the engine answers; an error or an empty string marks the
// attempt invalid.
type TranslationBackend interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string, params GenerationParams) (string, error)
}

// Prober is implemented by backends that can report reachability up front.
type Prober interface {
	IsAvailable(ctx context.Context) error
}
