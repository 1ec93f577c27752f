package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/valpere/termshield/internal/diag"
	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/retry"
	"github.com/valpere/termshield/internal/translator"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_Lookup_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.Lookup(context.Background(), "Hello", "en", "fr")
	if err != nil {
		t.Errorf("Lookup failed: %v", err)
	}
	if found {
		t.Error("expected not found for unknown text")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_Lookup_Hit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sim := 0.93

	err := s.Remember(ctx, MemoryEntry{SourceText: "  Lake Superior  ", SourceLang: "en", TargetLang: "fr", FinalText: "lac Supérieur", Backend: "ollama:llama3.2", Similarity: &sim})
	if err != nil {
		t.Fatalf("Remember failed: %v", err)
	}

	text, found, err := s.Lookup(ctx, "Lake Superior", "en", "fr")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || text != "lac Supérieur" {
		t.Errorf("Lookup() = %q, %v", text, found)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", entries[0].UsageCount)
	}
	if entries[0].Similarity == nil || *entries[0].Similarity != sim {
		t.Errorf("expected similarity %v, got %v", sim, entries[0].Similarity)
	}
	if entries[0].Backend != "ollama:llama3.2" {
		t.Errorf("expected backend to be kept, got %q", entries[0].Backend)
	}
}

func TestStore_Lookup_Invalidated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Remember(ctx, MemoryEntry{SourceText: "Hello", SourceLang: "en", TargetLang: "fr", FinalText: "Bonjour"}); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListMemory() = %v, %v", entries, err)
	}
	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	_, found, err := s.Lookup(ctx, "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found {
		t.Error("expected invalidated entry to miss")
	}

	stats, err := s.MemoryStats(ctx)
	if err != nil {
		t.Fatalf("MemoryStats failed: %v", err)
	}
	if stats.TotalEntries != 1 || stats.InvalidEntries != 1 || stats.ActiveEntries != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStore_LanguagePairsAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, e := range []MemoryEntry{
		{SourceText: "DFO", SourceLang: "en", TargetLang: "fr", FinalText: "MPO"},
		{SourceText: "DFO", SourceLang: "fr", TargetLang: "en", FinalText: "DFO"},
	} {
		if err := s.Remember(ctx, e); err != nil {
			t.Fatalf("Remember failed: %v", err)
		}
	}

	text, found, err := s.Lookup(ctx, "DFO", "en", "fr")
	if err != nil || !found || text != "MPO" {
		t.Errorf("Lookup(en->fr) = %q, %v, %v", text, found, err)
	}
	text, found, err = s.Lookup(ctx, "DFO", "fr", "en")
	if err != nil || !found || text != "DFO" {
		t.Errorf("Lookup(fr->en) = %q, %v, %v", text, found, err)
	}
}

func TestStore_DeleteAndClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if err := s.Remember(ctx, MemoryEntry{SourceText: text, SourceLang: "en", TargetLang: "fr", FinalText: text}); err != nil {
			t.Fatalf("Remember failed: %v", err)
		}
	}
	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	if err := s.DeleteMemory(ctx, entries[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared entries, got %d", n)
	}
}

func TestStore_FuzzyLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Remember(ctx, MemoryEntry{SourceText: "The survey covered Lake Erie.", SourceLang: "en", TargetLang: "fr", FinalText: "Le relevé portait sur le lac Érié."}); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}

	tests := []struct {
		name      string
		text      string
		threshold float64
		found     bool
	}{
		{"near duplicate", "The survey covered Lake Erie!", 0.9, true},
		{"different text", "Salmon spawn in autumn.", 0.9, false},
		{"disabled", "The survey covered Lake Erie.", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := s.FuzzyLookup(ctx, tt.text, "en", "fr", tt.threshold)
			if err != nil {
				t.Fatalf("FuzzyLookup failed: %v", err)
			}
			if found != tt.found {
				t.Errorf("expected found=%v, got %v", tt.found, found)
			}
		})
	}
}

func TestStore_Jobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	okID, err := s.CreateJob(ctx, "report.docx", "report_translated_fr.docx", "en", "fr")
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	failID, err := s.CreateJob(ctx, "broken.docx", "broken_translated_fr.docx", "en", "fr")
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := s.GetJob(ctx, okID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != StatusRunning {
		t.Errorf("expected running job, got %q", job.Status)
	}

	if err := s.FinishJob(ctx, okID, JobResult{NotesFile: "report_translated_fr_notes.docx", Paragraphs: 12, Hyperlinks: 2}); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}
	if err := s.FinishJob(ctx, failID, JobResult{Err: errors.New("not a word document")}); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}

	job, err = s.GetJob(ctx, okID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != StatusCompleted || job.Paragraphs != 12 || job.Hyperlinks != 2 || job.NotesFile != "report_translated_fr_notes.docx" {
		t.Errorf("unexpected completed job: %+v", job)
	}

	job, err = s.GetJob(ctx, failID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != StatusFailed || job.Error != "not a word document" {
		t.Errorf("unexpected failed job: %+v", job)
	}

	jobs, err := s.ListJobs(ctx, 0)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != failID {
		t.Errorf("expected newest job first, got %+v", jobs)
	}

	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.FinishJob(ctx, "missing", JobResult{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Diagnostics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := diag.NewRecorder()
	key := diag.Key("ollama:llama3.2", 3)
	rec.RecordFindReplace(key, diag.FindReplaceError{
		OriginalText:  "Lake Superior",
		TokenMapping:  placeholder.TokenMapping{{Token: "SITE0001", OriginalText: "Lake Superior", Translation: "lac Supérieur", ShouldTranslate: true}},
		RetryAttempts: 9,
		ErrorType:     diag.RetriesExhausted,
	})
	rec.RecordExtraToken(key, diag.ExtraTokenError{OriginalText: "Lake Superior", TranslatedText: "SITE lac"})
	rec.RecordRetry(key, diag.RetryDebug{FailedAttempts: []retry.Attempt{{Index: 0, Params: translator.DefaultParams, Missing: []string{"SITE0001"}}}})

	if err := s.SaveDiagnostics(ctx, "job-1", rec.Snapshot()); err != nil {
		t.Fatalf("SaveDiagnostics failed: %v", err)
	}

	snap, err := s.LoadDiagnostics(ctx, "job-1")
	if err != nil {
		t.Fatalf("LoadDiagnostics failed: %v", err)
	}
	if snap.Summary != rec.Summary() {
		t.Errorf("summary mismatch: got %+v, want %+v", snap.Summary, rec.Summary())
	}
	fr, ok := snap.FindReplaceErrors[key]
	if !ok || fr.ErrorType != diag.RetriesExhausted || fr.RetryAttempts != 9 {
		t.Errorf("unexpected find/replace record: %+v", fr)
	}
	if len(fr.TokenMapping) != 1 || fr.TokenMapping[0].Token != "SITE0001" {
		t.Errorf("token mapping not restored: %+v", fr.TokenMapping)
	}
	if got := snap.RetryDebug[key].FailedAttempts; len(got) != 1 || got[0].Missing[0] != "SITE0001" {
		t.Errorf("retry debug not restored: %+v", got)
	}

	other, err := s.LoadDiagnostics(ctx, "job-2")
	if err != nil {
		t.Fatalf("LoadDiagnostics failed: %v", err)
	}
	if len(other.Keys()) != 0 {
		t.Errorf("expected no records for another job, got %v", other.Keys())
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"été", "été"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringSimilarity(t *testing.T) {
	if got := stringSimilarity("kitten", "sitting"); got < 0.57 || got > 0.58 {
		t.Errorf("unexpected similarity %v", got)
	}
	if got := stringSimilarity("same", "same"); got != 1.0 {
		t.Errorf("identical strings should score 1, got %v", got)
	}
	if got := lengthBound(10, 5); got != 0.5 {
		t.Errorf("lengthBound(10, 5) = %v", got)
	}
}
