// Package store persists translation memory, document jobs and their
// diagnostics in SQLite. It backs the command line only; the ensemble keeps
// its own in-process cache.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/termshield/internal/diag"
)

var ErrNotFound = errors.New("store: not found")

// Job statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Diagnostic record kinds.
const (
	KindFindReplace = "find_replace"
	KindExtraToken  = "extra_token"
	KindRetry       = "token_retry"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		backend TEXT,
		similarity REAL,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	-- document_jobs tracks each document run from start to finish
	CREATE TABLE IF NOT EXISTS document_jobs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		notes_file TEXT,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		paragraphs INTEGER DEFAULT 0,
		hyperlinks INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- diagnostics keeps one row per recorded anomaly, payload as JSON
	CREATE TABLE IF NOT EXISTS diagnostics (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		record_key TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(job_id, kind, record_key)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_job ON diagnostics(job_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	Backend     string
	Similarity  *float64
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// MemoryStats summarises translation memory usage.
type MemoryStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// Lookup returns the remembered translation of sourceText and bumps its
// usage count. Invalidated entries are misses.
func (s *Store) Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var finalText string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&finalText, &invalidated)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), normalizeText(sourceText), sourceLang, targetLang)

	return finalText, true, err
}

// Remember stores a translation, replacing any earlier one for the same
// text and language pair.
func (s *Store) Remember(ctx context.Context, e MemoryEntry) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, final_text, backend, similarity, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.NewString(), normalizeText(e.SourceText), e.SourceLang, e.TargetLang, e.FinalText, e.Backend, e.Similarity, now, now)
	return err
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, final_text, COALESCE(backend, ''), similarity, usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		var sim sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText, &e.Backend, &sim, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		if sim.Valid {
			v := sim.Float64
			e.Similarity = &v
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// MemoryStats returns summary statistics for the translation memory.
func (s *Store) MemoryStats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FuzzyLookup returns a remembered translation whose normalised source text
// has at least threshold similarity (0-1) to sourceText. A threshold <= 0
// disables it. Texts longer than 1000 runes are never fuzzy-matched.
func (s *Store) FuzzyLookup(ctx context.Context, sourceText, sourceLang, targetLang string, threshold float64) (string, bool, error) {
	if threshold <= 0 {
		return "", false, nil
	}

	normalized := normalizeText(sourceText)
	const maxFuzzyRunes = 1000
	if len([]rune(normalized)) > maxFuzzyRunes {
		return "", false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, final_text FROM translation_memory
		 WHERE source_lang = ? AND target_lang = ? AND NOT invalidated`,
		sourceLang, targetLang)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	var bestFinal string
	bestScore := 0.0

	for rows.Next() {
		var srcText, finalText string
		if err := rows.Scan(&srcText, &finalText); err != nil {
			return "", false, err
		}

		ls, lr := len([]rune(normalized)), len([]rune(srcText))
		if lengthBound(ls, lr) < threshold {
			continue
		}

		score := stringSimilarity(normalized, srcText)
		if score >= threshold && score > bestScore {
			bestScore = score
			bestFinal = finalText
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	return bestFinal, bestFinal != "", nil
}

// DocumentJob is a row from the document_jobs table.
type DocumentJob struct {
	ID         string
	InputFile  string
	OutputFile string
	NotesFile  string
	SourceLang string
	TargetLang string
	Status     string
	Paragraphs int
	Hyperlinks int
	Failures   int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobResult is what FinishJob records about a completed run.
type JobResult struct {
	NotesFile  string
	Paragraphs int
	Hyperlinks int
	Failures   int
	Err        error
}

// CreateJob records a running job and returns its ID.
func (s *Store) CreateJob(ctx context.Context, inputFile, outputFile, sourceLang, targetLang string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_jobs (id, input_file, output_file, source_lang, target_lang, status) VALUES (?, ?, ?, ?, ?, ?)`,
		id, inputFile, outputFile, sourceLang, targetLang, StatusRunning)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishJob marks a job completed, or failed when res.Err is set.
func (s *Store) FinishJob(ctx context.Context, id string, res JobResult) error {
	status, errMsg := StatusCompleted, ""
	if res.Err != nil {
		status, errMsg = StatusFailed, res.Err.Error()
	}
	return s.execOne(ctx,
		`UPDATE document_jobs SET status = ?, notes_file = ?, paragraphs = ?, hyperlinks = ?, failures = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, res.NotesFile, res.Paragraphs, res.Hyperlinks, res.Failures, errMsg, time.Now(), id)
}

const jobColumns = `id, input_file, output_file, COALESCE(notes_file, ''), source_lang, target_lang, status, paragraphs, hyperlinks, failures, COALESCE(error, ''), created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*DocumentJob, error) {
	var j DocumentJob
	err := row.Scan(&j.ID, &j.InputFile, &j.OutputFile, &j.NotesFile, &j.SourceLang, &j.TargetLang,
		&j.Status, &j.Paragraphs, &j.Hyperlinks, &j.Failures, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*DocumentJob, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM document_jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return j, err
}

// ListJobs returns jobs newest first; limit <= 0 returns all of them.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]DocumentJob, error) {
	query := `SELECT ` + jobColumns + ` FROM document_jobs ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []DocumentJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// SaveDiagnostics persists every record of snap under jobID.
func (s *Store) SaveDiagnostics(ctx context.Context, jobID string, snap diag.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := func(kind, key string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s record %s: %w", kind, key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO diagnostics (id, job_id, kind, record_key, payload) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), jobID, kind, key, string(payload))
		return err
	}

	for k, v := range snap.FindReplaceErrors {
		if err := insert(KindFindReplace, k, v); err != nil {
			return err
		}
	}
	for k, v := range snap.ExtraTokenErrors {
		if err := insert(KindExtraToken, k, v); err != nil {
			return err
		}
	}
	for k, v := range snap.RetryDebug {
		if err := insert(KindRetry, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadDiagnostics rebuilds the snapshot saved for jobID.
func (s *Store) LoadDiagnostics(ctx context.Context, jobID string) (diag.Snapshot, error) {
	snap := diag.Snapshot{
		FindReplaceErrors: make(map[string]diag.FindReplaceError),
		ExtraTokenErrors:  make(map[string]diag.ExtraTokenError),
		RetryDebug:        make(map[string]diag.RetryDebug),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, record_key, payload FROM diagnostics WHERE job_id = ? ORDER BY record_key`, jobID)
	if err != nil {
		return snap, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, key, payload string
		if err := rows.Scan(&kind, &key, &payload); err != nil {
			return snap, err
		}
		switch kind {
		case KindFindReplace:
			var v diag.FindReplaceError
			err = json.Unmarshal([]byte(payload), &v)
			snap.FindReplaceErrors[key] = v
		case KindExtraToken:
			var v diag.ExtraTokenError
			err = json.Unmarshal([]byte(payload), &v)
			snap.ExtraTokenErrors[key] = v
		case KindRetry:
			var v diag.RetryDebug
			err = json.Unmarshal([]byte(payload), &v)
			snap.RetryDebug[key] = v
		default:
			err = fmt.Errorf("unknown diagnostic kind %q", kind)
		}
		if err != nil {
			return snap, fmt.Errorf("failed to decode %s record %s: %w", kind, key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	snap.Summary = diag.Summary{
		ExtraTokenErrors:  len(snap.ExtraTokenErrors),
		FindReplaceErrors: len(snap.FindReplaceErrors),
		RetryDebug:        len(snap.RetryDebug),
	}
	return snap, nil
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent lookup keys.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// lengthBound is the best similarity two texts of these lengths can reach.
func lengthBound(a, b int) float64 {
	maxL, diff := a, a-b
	if b > maxL {
		maxL = b
	}
	if diff < 0 {
		diff = -diff
	}
	if maxL == 0 {
		return 1.0
	}
	return 1.0 - float64(diff)/float64(maxL)
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], prev[j-1], curr[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// stringSimilarity returns a similarity score in [0, 1] (1 = identical).
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}
