package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/translator"
	"github.com/valpere/termshield/internal/translator/translatortest"
	"github.com/valpere/termshield/internal/validator"
)

func TestAttempt_FirstTrySucceeds(t *testing.T) {
	c := New(validator.New())
	backend := &translatortest.Scripted{BackendName: "m", Responses: []translatortest.Response{{Text: "Le TAXON0001 nage"}}}
	mapping := placeholder.TokenMapping{{Token: "TAXON0001"}}

	out := c.Attempt(context.Background(), backend, "The TAXON0001 swims", "en", "fr", mapping, translator.DefaultParams)

	require.True(t, out.Valid)
	assert.Equal(t, "Le TAXON0001 nage", out.Text)
	assert.Equal(t, 0, out.Attempts)
	require.NotNil(t, out.Params)
	assert.Equal(t, translator.GenerationParams{NumBeams: 4}, *out.Params)
	assert.Empty(t, out.Failed)
	assert.Len(t, backend.Calls(), 1)
}

func TestAttempt_AlwaysLeakingBackendExhausts(t *testing.T) {
	c := New(validator.New())
	backend := translatortest.Leaky("leaky", "Le NOMENCLATURE est ici")

	out := c.Attempt(context.Background(), backend, "The gas is here", "en", "fr", nil, translator.DefaultParams)

	assert.False(t, out.Valid)
	assert.Empty(t, out.Text)
	assert.Nil(t, out.Params)
	assert.Equal(t, 9, out.Attempts)
	require.Len(t, out.Failed, 9)
	assert.Equal(t, []string{"NOMENCLATURE"}, out.Failed[0].Leaked)
}

func TestAttempt_SingleAttempt(t *testing.T) {
	c := New(validator.New(), WithSingleAttempt(true))
	backend := &translatortest.Scripted{BackendName: "m", Responses: []translatortest.Response{{Text: "TAXON leaked"}}}

	out := c.Attempt(context.Background(), backend, "plain text", "en", "fr", nil, translator.DefaultParams)

	assert.False(t, out.Valid)
	assert.Equal(t, 1, out.Attempts)
	assert.Len(t, backend.Calls(), 1)
	assert.True(t, c.SingleAttempt())
}

func TestAttempt_WalksTheLadder(t *testing.T) {
	c := New(validator.New())
	mapping := placeholder.TokenMapping{{Token: "SITE0001"}}
	backend := &translatortest.Scripted{
		BackendName: "m",
		Responses: []translatortest.Response{
			{Err: errors.New("backend down")},
			{Text: ""},
			{Text: "le lac"},
			{Text: "le SITE 0001"},
		},
	}

	out := c.Attempt(context.Background(), backend, "the SITE0001", "en", "fr", mapping, translator.DefaultParams)

	require.True(t, out.Valid)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, "le SITE 0001", out.Text)
	require.Len(t, out.Failed, 3)
	assert.Equal(t, []string{"SITE0001"}, out.Failed[2].Missing)

	calls := backend.Calls()
	require.Len(t, calls, 4)
	for i, call := range calls {
		assert.Equal(t, Variants[i], call.Params, "attempt %d", i)
	}
}

func TestAttempt_BaseParamsOverlay(t *testing.T) {
	c := New(validator.New())
	backend := &translatortest.Scripted{
		BackendName: "m",
		Responses: []translatortest.Response{
			{Text: "ACRONYM"}, {Text: "ACRONYM"}, {Text: "ACRONYM"}, {Text: "ACRONYM"},
			{Text: "ACRONYM"}, {Text: "ACRONYM"}, {Text: "ACRONYM"}, {Text: "ok"},
		},
	}
	base := translator.GenerationParams{NumBeams: 3, RepetitionPenalty: 1.3}

	out := c.Attempt(context.Background(), backend, "src", "en", "fr", nil, base)

	require.True(t, out.Valid)
	assert.Equal(t, 7, out.Attempts)
	assert.Equal(t, translator.GenerationParams{NumBeams: 4, LengthPenalty: 1.2, RepetitionPenalty: 1.3}, *out.Params)
}

func TestAttempt_CancelledContextStops(t *testing.T) {
	c := New(validator.New())
	backend := &translatortest.Scripted{BackendName: "m", Responses: []translatortest.Response{{Err: context.Canceled}}}

	out := c.Attempt(context.Background(), backend, "src", "en", "fr", nil, translator.DefaultParams)

	assert.False(t, out.Valid)
	assert.Equal(t, 1, out.Attempts)
	assert.Len(t, backend.Calls(), 1)
}

func TestVariants(t *testing.T) {
	require.Len(t, Variants, 9)
	assert.Equal(t, 4, Variants[0].NumBeams)
	assert.Equal(t, 1.1, Variants[8].RepetitionPenalty)
}
