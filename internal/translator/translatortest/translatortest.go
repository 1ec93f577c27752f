// Package translatortest provides scripted backends for tests.
package translatortest

import (
	"context"
	"sync"

	"github.com/valpere/termshield/internal/translator"
)

// Identity returns its input unchanged.
type Identity struct {
	BackendName string
}

func (b Identity) Name() string {
	if b.BackendName == "" {
		return "identity"
	}
	return b.BackendName
}

func (Identity) Translate(_ context.Context, text, _, _ string, _ translator.GenerationParams) (string, error) {
	return text, nil
}

// Func adapts a function into a backend.
type Func struct {
	BackendName string
	Fn          func(text, sourceLang, targetLang string, params translator.GenerationParams) (string, error)
}

func (b Func) Name() string {
	return b.BackendName
}

func (b Func) Translate(_ context.Context, text, sourceLang, targetLang string, params translator.GenerationParams) (string, error) {
	return b.Fn(text, sourceLang, targetLang, params)
}

// Leaky always answers with Output, whatever it is asked.
func Leaky(name, output string) Func {
	return Func{
		BackendName: name,
		Fn: func(string, string, string, translator.GenerationParams) (string, error) {
			return output, nil
		},
	}
}

// Call is one recorded invocation of a Scripted backend.
type Call struct {
	Text   string
	Params translator.GenerationParams
}

// Response is one scripted answer.
type Response struct {
	Text string
	Err  error
}

// Scripted replays Responses in order, repeating the last one once the
// script runs out, and records every call.
type Scripted struct {
	BackendName string
	Responses   []Response

	mu    sync.Mutex
	calls []Call
}

func (b *Scripted) Name() string {
	return b.BackendName
}

func (b *Scripted) Translate(_ context.Context, text, _, _ string, params translator.GenerationParams) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Text: text, Params: params})
	if len(b.Responses) == 0 {
		return text, nil
	}
	i := len(b.calls) - 1
	if i >= len(b.Responses) {
		i = len(b.Responses) - 1
	}
	r := b.Responses[i]
	return r.Text, r.Err
}

// Calls returns a copy of the recorded calls.
func (b *Scripted) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}
