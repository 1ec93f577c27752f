// Package retry re-runs one backend call over a fixed ladder of generation
// parameter variants until the output validates.
package retry

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/translator"
	"github.com/valpere/termshield/internal/validator"
)

// Variants is the ordered retry ladder: the baseline, other beam widths,
// then length and repetition penalties at the baseline width.
var Variants = []translator.GenerationParams{
	{NumBeams: 4},
	{NumBeams: 2},
	{NumBeams: 5},
	{NumBeams: 6},
	{NumBeams: 7},
	{NumBeams: 8},
	{NumBeams: 4, LengthPenalty: 0.8},
	{NumBeams: 4, LengthPenalty: 1.2},
	{NumBeams: 4, RepetitionPenalty: 1.1},
}

// Attempt is one failed trial, kept for diagnostics.
type Attempt struct {
	Index   int                         `json:"attempt"`
	Params  translator.GenerationParams `json:"params"`
	Output  string                      `json:"output,omitempty"`
	Missing []string                    `json:"missing_tokens,omitempty"`
	Leaked  []string                    `json:"leaked_prefixes,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

// Outcome is the result of Controller.Attempt. On success Attempts is the
// zero-based index of the variant that validated. On failure Text is empty,
// Valid is false and Attempts is 1 in single-attempt mode or the ladder
// length otherwise.
type Outcome struct {
	Text     string
	Valid    bool
	Attempts int
	Params   *translator.GenerationParams
	Failed   []Attempt
}

// Controller runs the retry ladder for one backend call at a time.
type Controller struct {
	validator     *validator.Validator
	variants      []translator.GenerationParams
	singleAttempt bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithSingleAttempt stops after the first try whatever its validity.
func WithSingleAttempt(on bool) Option {
	return func(c *Controller) { c.singleAttempt = on }
}

// WithVariants replaces the default ladder.
func WithVariants(v []translator.GenerationParams) Option {
	return func(c *Controller) {
		if len(v) > 0 {
			c.variants = v
		}
	}
}

func New(v *validator.Validator, opts ...Option) *Controller {
	if v == nil {
		v = validator.New()
	}
	c := &Controller{validator: v, variants: Variants}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SingleAttempt reports whether the controller stops after one try.
func (c *Controller) SingleAttempt() bool {
	return c.singleAttempt
}

// Attempt calls backend with each variant layered over base until the output
// contains no leaked prefix and, when mapping is non-empty, every token is
// recoverable. text is what the backend sees (already tokenised).
func (c *Controller) Attempt(ctx context.Context, backend translator.TranslationBackend, text, sourceLang, targetLang string,
	mapping placeholder.TokenMapping, base translator.GenerationParams,
) Outcome {
	logger := log.With().Str("backend", backend.Name()).Int("tokens", len(mapping)).Logger()

	var failed []Attempt
	for i, variant := range c.variants {
		params := base.Overlay(variant)

		output, err := backend.Translate(ctx, text, sourceLang, targetLang, params)
		if err == nil && output == "" {
			err = translator.ErrEmptyOutput
		}

		var result validator.Result
		if err == nil {
			result = c.validator.Check(text, output, mapping, targetLang)
			err = result.Err
		}

		if err == nil {
			if i > 0 {
				logger.Info().Int("attempt", i).Str("params", params.String()).
					Msgf("valid translation following %d retries", i)
			}
			return Outcome{Text: output, Valid: true, Attempts: i, Params: &params, Failed: failed}
		}

		failed = append(failed, Attempt{
			Index:   i,
			Params:  params,
			Output:  output,
			Missing: result.Missing,
			Leaked:  result.Leaked,
			Error:   err.Error(),
		})
		logger.Debug().Int("attempt", i).Str("params", params.String()).Err(err).Msg("attempt rejected")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Outcome{Attempts: i + 1, Failed: failed}
		}
		if c.singleAttempt {
			return Outcome{Attempts: 1, Failed: failed}
		}
	}

	logger.Warn().Int("attempts", len(c.variants)).Msg("no valid translation after all parameter variants")
	return Outcome{Attempts: len(c.variants), Failed: failed}
}
