// Package history records grader runs and their verdicts in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/grader/internal/filelock"
	"github.com/harrison/grader/internal/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run status values.
const (
	RunRunning = "running"
	RunPassed  = "passed"
	RunFailed  = "failed"
	RunError   = "error"
)

// initTimeout bounds waiting for another process that is initializing the same database.
const initTimeout = 10 * time.Second

// Run is one recorded grader invocation.
type Run struct {
	ID           string       `db:"id"`
	ExerciseDir  string       `db:"exercise_dir"`
	RulesFile    string       `db:"rules_file"`
	Language     string       `db:"language"`
	Version      string       `db:"version"`
	Status       string       `db:"status"`
	Total        int          `db:"total"`
	Passed       int          `db:"passed"`
	Failed       int          `db:"failed"`
	Submissions  int          `db:"submissions"`
	ErrorMessage string       `db:"error_message"`
	StartedAt    time.Time    `db:"started_at"`
	FinishedAt   sql.NullTime `db:"finished_at"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if !r.FinishedAt.Valid {
		return 0
	}
	return r.FinishedAt.Time.Sub(r.StartedAt)
}

type verdictRow struct {
	ID          int64  `db:"id"`
	RunID       string `db:"run_id"`
	Seq         int    `db:"seq"`
	Exercise    string `db:"exercise"`
	TestName    string `db:"test_name"`
	InputIndex  int    `db:"input_index"`
	OutputIndex int    `db:"output_index"`
	Input       string `db:"input"`
	Expected    string `db:"expected"`
	Actual      string `db:"actual"`
	Passed      bool   `db:"passed"`
}

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store manages the SQLite run history database.
type Store struct {
	db     *sqlx.DB
	dbPath string
}

// NewStore opens (and if needed creates) the database at dbPath.
// File databases are initialized under "<dbPath>.lock" so concurrent graders
// do not race on schema creation.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var store *Store
	err := filelock.WithLock(ctx, dbPath+".lock", func() error {
		var err error
		store, err = openAndInitStore(dbPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every :memory: connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a run in the running state. An empty ID is replaced by a
// new UUID and a zero StartedAt by the current time.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunRunning
	}

	query := `INSERT INTO runs
		(id, exercise_dir, rules_file, language, version, status, started_at)
		VALUES (:id, :exercise_dir, :rules_file, :language, :version, :status, :started_at)`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordVerdict appends a verdict to a run. seq is the verdict's position in
// the run's verdict stream.
func (s *Store) RecordVerdict(ctx context.Context, runID string, seq int, v models.Verdict) error {
	row := verdictRow{
		RunID:       runID,
		Seq:         seq,
		Exercise:    v.Exercise,
		TestName:    v.TestName,
		InputIndex:  v.InputIndex,
		OutputIndex: v.OutputIndex,
		Input:       v.Input,
		Expected:    v.Expected,
		Actual:      v.Actual,
		Passed:      v.Passed,
	}

	query := `INSERT INTO verdicts
		(run_id, seq, exercise, test_name, input_index, output_index, input, expected, actual, passed)
		VALUES (:run_id, :seq, :exercise, :test_name, :input_index, :output_index, :input, :expected, :actual, :passed)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// FinishRun stores the final counts. runErr, when set, marks the run as
// aborted; otherwise the status follows the verdicts.
func (s *Store) FinishRun(ctx context.Context, runID string, summary models.RunSummary, runErr error) error {
	status := RunPassed
	errMsg := ""
	switch {
	case runErr != nil:
		status = RunError
		errMsg = runErr.Error()
	case !summary.AllPassed():
		status = RunFailed
	}

	res, err := s.db.ExecContext(ctx, `UPDATE runs
		SET status = ?, total = ?, passed = ?, failed = ?, submissions = ?, error_message = ?, finished_at = ?, version = COALESCE(NULLIF(?, ''), version)
		WHERE id = ?`,
		status, summary.Total, summary.Passed, summary.Failed, summary.Submissions, errMsg, time.Now().UTC(), summary.Version, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("find run: %w", ErrRunNotFound)
	}

	var runs []Run
	pattern := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(idOrPrefix) + "%"
	if err := s.db.SelectContext(ctx, &runs, `SELECT * FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, pattern); err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("find run %s: %w", idOrPrefix, ErrRunNotFound)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", idOrPrefix)
	}
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunVerdicts returns a run's verdicts in emission order.
func (s *Store) RunVerdicts(ctx context.Context, runID string) ([]models.Verdict, error) {
	var rows []verdictRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM verdicts WHERE run_id = ? ORDER BY seq`, runID); err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}

	verdicts := make([]models.Verdict, 0, len(rows))
	for _, r := range rows {
		verdicts = append(verdicts, models.Verdict{
			Exercise:    r.Exercise,
			TestName:    r.TestName,
			InputIndex:  r.InputIndex,
			OutputIndex: r.OutputIndex,
			Input:       r.Input,
			Expected:    r.Expected,
			Actual:      r.Actual,
			Passed:      r.Passed,
		})
	}
	return verdicts, nil
}

// Prune keeps the keep most recent runs and deletes the rest with their
// verdicts. keep <= 0 is a no-op. Returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN
		(SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	deleted, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verdicts WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, fmt.Errorf("prune verdicts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return deleted, nil
}
