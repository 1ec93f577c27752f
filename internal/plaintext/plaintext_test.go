package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/termshield/internal/orchestrator"
)

type upperEngine struct {
	reqs []orchestrator.Request
}

func (e *upperEngine) Translate(_ context.Context, req orchestrator.Request) orchestrator.Result {
	e.reqs = append(e.reqs, req)
	return orchestrator.Result{TranslatedText: strings.ToUpper(req.Text), Backend: orchestrator.BestBackend, SelectedBackend: "upper"}
}

type comparingEngine struct {
	upperEngine
}

func (e *comparingEngine) TranslateAll(ctx context.Context, req orchestrator.Request) (orchestrator.Result, []orchestrator.Result) {
	best := e.Translate(ctx, req)
	return best, []orchestrator.Result{{TranslatedText: req.Text, Backend: "echo"}, best}
}

type failingEngine struct{}

func (failingEngine) Translate(_ context.Context, _ orchestrator.Request) orchestrator.Result {
	return orchestrator.Result{TranslatedText: orchestrator.NoValidTranslations, Backend: orchestrator.BestBackend}
}

func TestTranslate_ParagraphsAndChunks(t *testing.T) {
	e := &upperEngine{}
	text := "First sentence here. Second one.\n\n\n\nAnother paragraph."

	got, report, err := Translate(context.Background(), e, text, Options{SourceLang: "en", TargetLang: "fr", Budget: 25})
	require.NoError(t, err)

	assert.Equal(t, "FIRST SENTENCE HERE. SECOND ONE.\n\nANOTHER PARAGRAPH.", got)
	assert.Equal(t, 2, report.Paragraphs)
	assert.Equal(t, 3, report.Requests)
	assert.Zero(t, report.Failures)

	require.Len(t, e.reqs, 3)
	for i, r := range e.reqs {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, "en", r.SourceLang)
		assert.Equal(t, "fr", r.TargetLang)
	}
	assert.Equal(t, "First sentence here.", e.reqs[0].Text)
}

func TestTranslate_Compare(t *testing.T) {
	e := &comparingEngine{}
	_, report, err := Translate(context.Background(), e, "Hello.", Options{Compare: true})
	require.NoError(t, err)
	require.Len(t, report.Chunks, 1)
	assert.Len(t, report.Chunks[0].All, 2)
	assert.Equal(t, "HELLO.", report.Chunks[0].Selected.TranslatedText)

	_, report, err = Translate(context.Background(), e, "Hello.", Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Chunks[0].All)
}

func TestTranslate_FailuresKeepSentinel(t *testing.T) {
	got, report, err := Translate(context.Background(), failingEngine{}, "One.\n\nTwo.", Options{})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.NoValidTranslations+"\n\n"+orchestrator.NoValidTranslations, got)
	assert.Equal(t, 2, report.Failures)
}

func TestTranslate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Translate(ctx, &upperEngine{}, "Text.", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslate_FirstIndex(t *testing.T) {
	e := &upperEngine{}
	_, report, err := Translate(context.Background(), e, "One.\n\nTwo.", Options{FirstIndex: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Chunks[0].Index)
	assert.Equal(t, 8, report.Chunks[1].Index)
}
