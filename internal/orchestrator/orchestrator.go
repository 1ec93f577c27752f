// Package orchestrator runs every configured backend over a piece of text,
// each through the protected retry ladder, and keeps the best result.
package orchestrator

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/valpere/termshield/internal/cache"
	"github.com/valpere/termshield/internal/diag"
	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/retry"
	"github.com/valpere/termshield/internal/similarity"
	"github.com/valpere/termshield/internal/translator"
	"github.com/valpere/termshield/internal/validator"
)

// NoValidTranslations replaces the text when no backend produced a usable
// result. Document writers insert it verbatim so reviewers can search for it.
const NoValidTranslations = "[NO VALID TRANSLATIONS]"

// BestBackend is the Backend name of a selected ensemble result.
const BestBackend = "best_model"

// Request is one unit of text to translate.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// Index correlates diagnostics records; monotonic within a document.
	Index int
	// TargetText is an optional reference translation for scoring.
	TargetText string
	// NoCache bypasses the result cache for this request.
	NoCache bool
}

// Result is the outcome for one backend or, from Translate, the selected one.
type Result struct {
	TranslatedText   string   `json:"translated_text"`
	SourceSimilarity *float64 `json:"similarity_vs_source"`
	TargetSimilarity *float64 `json:"similarity_vs_target,omitempty"`
	ReferenceScore   *float64 `json:"similarity_of_original_translation,omitempty"`
	Backend          string   `json:"model_name"`
	SelectedBackend  string   `json:"best_model_source,omitempty"`
	RetryAttempts    int      `json:"retry_attempts"`
	FindReplaceError bool     `json:"find_replace_error"`
	TokenPrefixError bool     `json:"token_prefix_error"`
	Error            string   `json:"error,omitempty"`
}

// Failed reports whether r is the all-backends-failed sentinel.
func (r Result) Failed() bool {
	return r.TranslatedText == NoValidTranslations && r.SelectedBackend == ""
}

// Orchestrator is the translation ensemble. The catalog and backends may be
// shared, but one Orchestrator should serve one document at a time so that
// diagnostics keys stay meaningful.
type Orchestrator struct {
	backends       []translator.TranslationBackend
	codec          *placeholder.Codec
	retry          *retry.Controller
	validator      *validator.Validator
	embedder       similarity.Embedder
	cache          cache.Cache[Result]
	diag           *diag.Recorder
	useFindReplace bool
	baseParams     translator.GenerationParams
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmbedder enables similarity-based selection.
func WithEmbedder(e similarity.Embedder) Option {
	return func(o *Orchestrator) { o.embedder = e }
}

// WithCache replaces the default in-memory cache.
func WithCache(c cache.Cache[Result]) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithRecorder shares a diagnostics recorder.
func WithRecorder(r *diag.Recorder) Option {
	return func(o *Orchestrator) { o.diag = r }
}

// WithRetry replaces the default retry controller.
func WithRetry(c *retry.Controller) Option {
	return func(o *Orchestrator) { o.retry = c }
}

// WithValidator replaces the default validator.
func WithValidator(v *validator.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithFindReplace toggles terminology protection (on by default).
func WithFindReplace(on bool) Option {
	return func(o *Orchestrator) { o.useFindReplace = on }
}

// WithBaseParams sets the params every retry variant is layered over.
func WithBaseParams(p translator.GenerationParams) Option {
	return func(o *Orchestrator) { o.baseParams = p }
}

func New(backends []translator.TranslationBackend, codec *placeholder.Codec, opts ...Option) *Orchestrator {
	if codec == nil {
		codec = placeholder.New(nil)
	}
	o := &Orchestrator{
		backends:       backends,
		codec:          codec,
		cache:          cache.NewMemory[Result](),
		diag:           diag.NewRecorder(),
		useFindReplace: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.validator == nil {
		o.validator = validator.New()
	}
	if o.retry == nil {
		o.retry = retry.New(o.validator)
	}
	return o
}

// Backends returns the registered backend names in order.
func (o *Orchestrator) Backends() []string {
	names := make([]string, len(o.backends))
	for i, b := range o.backends {
		names[i] = b.Name()
	}
	return names
}

// Diagnostics exposes the recorder.
func (o *Orchestrator) Diagnostics() *diag.Recorder {
	return o.diag
}

// Clear drops cached results and diagnostics; call it between documents.
func (o *Orchestrator) Clear() {
	o.cache.Clear()
	o.diag.Clear()
}

// Translate returns the selected result for req, from cache when possible.
// It never fails: when no backend produces a usable result the text is
// NoValidTranslations.
func (o *Orchestrator) Translate(ctx context.Context, req Request) Result {
	if !req.NoCache {
		if r, ok := o.cache.Get(req.Text); ok {
			return r
		}
	}
	best, _ := o.TranslateAll(ctx, req)
	if !req.NoCache {
		o.cache.Set(req.Text, best)
	}
	return best
}

// TranslateAll runs every backend in registration order and returns the
// selected result plus each backend's own result.
func (o *Orchestrator) TranslateAll(ctx context.Context, req Request) (Result, []Result) {
	all := make([]Result, 0, len(o.backends))
	var best *Result

	for _, b := range o.backends {
		r := o.TranslateSingle(ctx, b, req)
		all = append(all, r)

		if len(o.validator.LeakedPrefixes(req.Text, r.TranslatedText)) > 0 {
			continue
		}
		switch {
		case r.SourceSimilarity == nil:
			if best == nil {
				best = selected(r)
			}
		case best == nil || best.SourceSimilarity == nil || *r.SourceSimilarity > *best.SourceSimilarity:
			best = selected(r)
		}
	}

	if best == nil {
		log.Warn().Int("idx", req.Index).Int("backends", len(o.backends)).Msg("no valid translations from any backend")
		return Result{
			TranslatedText: NoValidTranslations,
			Backend:        BestBackend,
			Error:          "no valid translations from any backend",
		}, all
	}
	return *best, all
}

func selected(r Result) *Result {
	r.SelectedBackend = r.Backend
	r.Backend = BestBackend
	return &r
}

// TranslateSingle translates req with one backend. With find/replace on, the
// text is tokenised and sent through the retry ladder; if that fails or the
// tokens cannot be restored, the backend translates the raw text instead.
func (o *Orchestrator) TranslateSingle(ctx context.Context, b translator.TranslationBackend, req Request) Result {
	name := b.Name()
	if strings.TrimSpace(req.Text) == "" {
		return Result{TranslatedText: req.Text, Backend: name}
	}

	logger := log.With().Str("backend", name).Int("idx", req.Index).Logger()
	key := diag.Key(name, req.Index)

	var (
		translated       string
		preprocessed     string
		withTokens       string
		mapping          placeholder.TokenMapping
		outcome          retry.Outcome
		findReplaceError bool
	)

	if o.useFindReplace {
		preprocessed, mapping = o.codec.Preprocess(req.Text, req.SourceLang)
		outcome = o.retry.Attempt(ctx, b, preprocessed, req.SourceLang, req.TargetLang, mapping, o.baseParams)
		withTokens = outcome.Text
		o.recordRetry(key, name, preprocessed, mapping, outcome)

		fr := diag.FindReplaceError{
			OriginalText:         req.Text,
			PreprocessedText:     preprocessed,
			TranslatedWithTokens: withTokens,
			TokenMapping:         mapping,
			RetryAttempts:        outcome.Attempts,
			FinalParams:          outcome.Params,
		}

		if outcome.Valid {
			decoded, err := o.codec.Restore(withTokens, mapping)
			if err == nil {
				translated = decoded
			} else {
				findReplaceError = true
				fr.ErrorType = diag.ReverseValidationFailure
				o.diag.RecordFindReplace(key, fr)
				logger.Warn().Err(err).Strs("tokens", mapping.Tokens()).Msg("token restore failed, translating unprotected text")
				translated = o.plain(ctx, b, req)
			}
		} else {
			findReplaceError = true
			fr.ErrorType = diag.RetriesExhausted
			o.diag.RecordFindReplace(key, fr)
			logger.Warn().Int("attempts", outcome.Attempts).Msg("protected translation failed, translating unprotected text")
			translated = o.plain(ctx, b, req)
		}
	} else {
		translated = o.plain(ctx, b, req)
	}

	tokenPrefixError := translated == "" || len(o.validator.LeakedPrefixes(req.Text, translated)) > 0
	if tokenPrefixError {
		o.diag.RecordExtraToken(key, diag.ExtraTokenError{
			OriginalText:         req.Text,
			TranslatedText:       translated,
			UseFindReplace:       o.useFindReplace,
			TokensToReplace:      mapping.Tokens(),
			PreprocessedText:     preprocessed,
			TranslatedWithTokens: withTokens,
			RetryAttempts:        outcome.Attempts,
			FinalParams:          outcome.Params,
		})
	}

	if translated == "" {
		logger.Warn().Msg("backend returned nothing, keeping original text")
		translated = req.Text
		tokenPrefixError = false
	}

	r := Result{
		TranslatedText:   translated,
		Backend:          name,
		FindReplaceError: findReplaceError,
		TokenPrefixError: tokenPrefixError,
	}
	if o.useFindReplace {
		r.RetryAttempts = outcome.Attempts
	}
	o.score(ctx, req, &r)
	return r
}

func (o *Orchestrator) plain(ctx context.Context, b translator.TranslationBackend, req Request) string {
	out, err := b.Translate(ctx, req.Text, req.SourceLang, req.TargetLang, translator.DefaultParams.Overlay(o.baseParams))
	if err != nil {
		log.Warn().Str("backend", b.Name()).Int("idx", req.Index).Err(err).Msg("unprotected translation failed")
		return ""
	}
	return out
}

func (o *Orchestrator) recordRetry(key, backend, text string, mapping placeholder.TokenMapping, outcome retry.Outcome) {
	if len(mapping) == 0 || len(outcome.Failed) == 0 {
		return
	}
	total := outcome.Attempts
	if outcome.Valid {
		total++
	}
	o.diag.RecordRetry(key, diag.RetryDebug{
		TotalAttempts:  total,
		FailedAttempts: outcome.Failed,
		Success:        outcome.Valid,
		Backend:        backend,
		OriginalText:   text,
	})
}

func (o *Orchestrator) score(ctx context.Context, req Request, r *Result) {
	if o.embedder == nil {
		return
	}
	texts := []string{req.Text, r.TranslatedText}
	if req.TargetText != "" {
		texts = append(texts, req.TargetText)
	}
	vecs, err := o.embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		log.Warn().Str("backend", r.Backend).Int("idx", req.Index).Err(err).Msg("similarity scoring failed")
		return
	}
	src := similarity.Cosine(vecs[0], vecs[1])
	r.SourceSimilarity = &src
	if req.TargetText != "" {
		tgt := similarity.Cosine(vecs[2], vecs[1])
		ref := similarity.Cosine(vecs[0], vecs[2])
		r.TargetSimilarity = &tgt
		r.ReferenceScore = &ref
	}
}
