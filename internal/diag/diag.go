// Package diag accumulates per-call translation diagnostics: protected
// passes that had to fall back, outputs that still carried a category
// prefix, and the failed attempts of each retry ladder.
package diag

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/retry"
	"github.com/valpere/termshield/internal/translator"
)

// Error types for FindReplaceError.
const (
	RetriesExhausted         = "retries_exhausted"
	ReverseValidationFailure = "reverse_translation_validation_failed"
)

// Key builds the record key for one backend call.
func Key(backend string, idx int) string {
	return fmt.Sprintf("%s_%d", backend, idx)
}

// FindReplaceError is a protected pass that was discarded for one backend.
type FindReplaceError struct {
	OriginalText         string                       `json:"original_text"`
	PreprocessedText     string                       `json:"preprocessed_text"`
	TranslatedWithTokens string                       `json:"translated_with_tokens,omitempty"`
	TokenMapping         placeholder.TokenMapping     `json:"token_mapping"`
	RetryAttempts        int                          `json:"retry_attempts"`
	FinalParams          *translator.GenerationParams `json:"final_retry_params"`
	ErrorType            string                       `json:"error_type"`
}

// ExtraTokenError is a final output that still contains a category prefix
// absent from the source.
type ExtraTokenError struct {
	OriginalText         string                       `json:"original_text"`
	TranslatedText       string                       `json:"translated_text"`
	UseFindReplace       bool                         `json:"use_find_replace"`
	TokensToReplace      []string                     `json:"tokens_to_replace"`
	PreprocessedText     string                       `json:"preprocessed_text,omitempty"`
	TranslatedWithTokens string                       `json:"translated_with_tokens,omitempty"`
	RetryAttempts        int                          `json:"retry_attempts"`
	FinalParams          *translator.GenerationParams `json:"final_retry_params"`
}

// RetryDebug lists the rejected attempts of one protected retry ladder.
type RetryDebug struct {
	TotalAttempts  int             `json:"total_attempts"`
	FailedAttempts []retry.Attempt `json:"failed_attempts"`
	Success        bool            `json:"success"`
	Backend        string          `json:"model_name"`
	OriginalText   string          `json:"original_text"`
}

// Summary counts the records held.
type Summary struct {
	ExtraTokenErrors  int `json:"extra_token_errors"`
	FindReplaceErrors int `json:"find_replace_errors"`
	RetryDebug        int `json:"token_retry_debug"`
}

// Snapshot is the serialised form of a Recorder.
type Snapshot struct {
	Summary           Summary                     `json:"summary"`
	ExtraTokenErrors  map[string]ExtraTokenError  `json:"extra_token_error_details"`
	FindReplaceErrors map[string]FindReplaceError `json:"find_replace_error_details"`
	RetryDebug        map[string]RetryDebug       `json:"token_retry_debug"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	findReplace map[string]FindReplaceError
	extraToken  map[string]ExtraTokenError
	retryDebug  map[string]RetryDebug
}

func NewRecorder() *Recorder {
	r := &Recorder{}
	r.reset()
	return r
}

func (r *Recorder) reset() {
	r.findReplace = make(map[string]FindReplaceError)
	r.extraToken = make(map[string]ExtraTokenError)
	r.retryDebug = make(map[string]RetryDebug)
}

func (r *Recorder) RecordFindReplace(key string, e FindReplaceError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findReplace[key] = e
}

func (r *Recorder) RecordExtraToken(key string, e ExtraTokenError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extraToken[key] = e
}

func (r *Recorder) RecordRetry(key string, d RetryDebug) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryDebug[key] = d
}

func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

func (r *Recorder) summary() Summary {
	return Summary{
		ExtraTokenErrors:  len(r.extraToken),
		FindReplaceErrors: len(r.findReplace),
		RetryDebug:        len(r.retryDebug),
	}
}

// Empty reports whether nothing has been recorded.
func (r *Recorder) Empty() bool {
	s := r.Summary()
	return s.ExtraTokenErrors == 0 && s.FindReplaceErrors == 0 && s.RetryDebug == 0
}

// Clear drops every record.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Snapshot copies the current records.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Summary:           r.summary(),
		ExtraTokenErrors:  make(map[string]ExtraTokenError, len(r.extraToken)),
		FindReplaceErrors: make(map[string]FindReplaceError, len(r.findReplace)),
		RetryDebug:        make(map[string]RetryDebug, len(r.retryDebug)),
	}
	for k, v := range r.extraToken {
		s.ExtraTokenErrors[k] = v
	}
	for k, v := range r.findReplace {
		s.FindReplaceErrors[k] = v
	}
	for k, v := range r.retryDebug {
		s.RetryDebug[k] = v
	}
	return s
}

// Keys returns every record key, sorted.
func (s Snapshot) Keys() []string {
	seen := make(map[string]bool)
	for k := range s.ExtraTokenErrors {
		seen[k] = true
	}
	for k := range s.FindReplaceErrors {
		seen[k] = true
	}
	for k := range s.RetryDebug {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteJSON writes the snapshot to path when anything was recorded. It
// reports whether a file was written.
func (r *Recorder) WriteJSON(path string) (bool, error) {
	if r.Empty() {
		return false, nil
	}
	data, err := json.MarshalIndent(r.Snapshot(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode diagnostics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write diagnostics: %w", err)
	}
	return true, nil
}
