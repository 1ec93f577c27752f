package diag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/termshield/internal/retry"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "opus_12", Key("opus", 12))
}

func TestRecorder_Lifecycle(t *testing.T) {
	r := NewRecorder()
	assert.True(t, r.Empty())

	r.RecordFindReplace(Key("m1", 0), FindReplaceError{OriginalText: "le lac", ErrorType: RetriesExhausted, RetryAttempts: 9})
	r.RecordExtraToken(Key("m1", 1), ExtraTokenError{OriginalText: "x", TranslatedText: "TAXON"})
	r.RecordRetry(Key("m2", 1), RetryDebug{TotalAttempts: 2, Success: true, FailedAttempts: []retry.Attempt{{Index: 0}}})

	assert.False(t, r.Empty())
	assert.Equal(t, Summary{ExtraTokenErrors: 1, FindReplaceErrors: 1, RetryDebug: 1}, r.Summary())

	snap := r.Snapshot()
	assert.Equal(t, []string{"m1_0", "m1_1", "m2_1"}, snap.Keys())
	assert.Equal(t, 9, snap.FindReplaceErrors["m1_0"].RetryAttempts)

	r.Clear()
	assert.True(t, r.Empty())
	assert.Len(t, snap.FindReplaceErrors, 1, "snapshot must not alias the recorder")
}

func TestRecorder_WriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diag.json")

	r := NewRecorder()
	written, err := r.WriteJSON(path)
	require.NoError(t, err)
	assert.False(t, written)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty recorder must not write a file")

	r.RecordFindReplace("m_3", FindReplaceError{OriginalText: "carbon dioxide", ErrorType: ReverseValidationFailure})
	written, err = r.WriteJSON(path)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "find_replace_error_details")
	assert.Equal(t, float64(1), decoded["summary"].(map[string]any)["find_replace_errors"])
}
