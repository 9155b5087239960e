// Package store persists ingested runs, verdicts, experiment matrices
// and execution results across investigation sessions, in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"flakelens/internal/correlate"
	"flakelens/internal/flakiness"
	"flakelens/internal/ingest"
	"flakelens/internal/matrix"
)

// DefaultDBPath is where the CLI keeps its store unless told otherwise.
const DefaultDBPath = ".flakelens/store.db"

func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// Store is the SQLite-backed investigation store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema to %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for testing.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun persists one ingested run and its records. Re-saving the
// same run replaces it, so re-ingesting a directory is idempotent.
func (s *Store) SaveRun(investigation string, run *ingest.Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow(
		"SELECT id FROM runs WHERE investigation = ? AND run_id = ?",
		investigation, run.ID,
	).Scan(&existing)
	switch {
	case err == nil:
		if _, err := tx.Exec("DELETE FROM run_records WHERE run_pk = ?", existing); err != nil {
			return fmt.Errorf("clear run records: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", existing); err != nil {
			return fmt.Errorf("clear run: %w", err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check existing run: %w", err)
	}

	res, err := tx.Exec(
		"INSERT INTO runs(investigation, run_id, build, created_at) VALUES(?, ?, ?, ?)",
		investigation, run.ID, string(run.Build), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runPK, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, rec := range run.Records {
		if _, err := tx.Exec(
			`INSERT INTO run_records(run_pk, test_name, outcome, duration_ms, error_signature)
			 VALUES(?, ?, ?, ?, ?)`,
			runPK, rec.TestName, string(rec.Outcome), rec.DurationMs, rec.ErrorSignature,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.TestName, err)
		}
	}
	return tx.Commit()
}

// ListRuns loads every run of an investigation in run-id order.
func (s *Store) ListRuns(investigation string) ([]*ingest.Run, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, build FROM runs WHERE investigation = ? ORDER BY run_id",
		investigation,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*ingest.Run
	var pks []int64
	for rows.Next() {
		var pk int64
		run := &ingest.Run{}
		var build string
		if err := rows.Scan(&pk, &run.ID, &build); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Build = ingest.BuildStatus(build)
		runs = append(runs, run)
		pks = append(pks, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	for i, pk := range pks {
		recs, err := s.listRecords(pk, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Records = recs
	}
	return runs, nil
}

func (s *Store) listRecords(runPK int64, runID string) ([]ingest.RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT test_name, outcome, duration_ms, error_signature
		 FROM run_records WHERE run_pk = ? ORDER BY id`,
		runPK,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []ingest.RunRecord
	for rows.Next() {
		rec := ingest.RunRecord{RunID: runID}
		var outcome string
		var sig sql.NullString
		if err := rows.Scan(&rec.TestName, &outcome, &rec.DurationMs, &sig); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Outcome = ingest.Outcome(outcome)
		rec.ErrorSignature = nullStr(sig)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// SaveVerdicts replaces the stored verdicts of an investigation.
func (s *Store) SaveVerdicts(investigation string, verdicts []flakiness.Verdict) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save verdicts: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM verdicts WHERE investigation = ?", investigation); err != nil {
		return fmt.Errorf("clear verdicts: %w", err)
	}
	for _, v := range verdicts {
		scored := 0
		if v.Scored {
			scored = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO verdicts(investigation, test_name, scored, score, category, runs, failures)
			 VALUES(?, ?, ?, ?, ?, ?, ?)`,
			investigation, v.TestName, scored, v.Score, string(v.Category), v.Runs, v.Failures,
		); err != nil {
			return fmt.Errorf("insert verdict %s: %w", v.TestName, err)
		}
	}
	return tx.Commit()
}

// ListVerdicts loads the stored verdicts sorted the way the aggregator
// emits them: score descending, test name ascending.
func (s *Store) ListVerdicts(investigation string) ([]flakiness.Verdict, error) {
	rows, err := s.db.Query(
		`SELECT test_name, scored, score, category, runs, failures
		 FROM verdicts WHERE investigation = ?
		 ORDER BY score DESC, test_name ASC`,
		investigation,
	)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []flakiness.Verdict
	for rows.Next() {
		var v flakiness.Verdict
		var scored int
		var category string
		if err := rows.Scan(&v.TestName, &scored, &v.Score, &category, &v.Runs, &v.Failures); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Scored = scored == 1
		v.Category = flakiness.Category(category)
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// SaveMatrix replaces the stored configuration matrix of an investigation.
func (s *Store) SaveMatrix(investigation string, configs []matrix.Configuration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save matrix: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM configurations WHERE investigation = ?", investigation); err != nil {
		return fmt.Errorf("clear configurations: %w", err)
	}
	for _, cfg := range configs {
		payload, err := json.Marshal(cfg.Assignments)
		if err != nil {
			return fmt.Errorf("marshal configuration %d: %w", cfg.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO configurations(investigation, config_id, assignments) VALUES(?, ?, ?)",
			investigation, cfg.ID, string(payload),
		); err != nil {
			return fmt.Errorf("insert configuration %d: %w", cfg.ID, err)
		}
	}
	return tx.Commit()
}

// LoadMatrix returns the stored configurations in id order.
func (s *Store) LoadMatrix(investigation string) ([]matrix.Configuration, error) {
	rows, err := s.db.Query(
		"SELECT config_id, assignments FROM configurations WHERE investigation = ? ORDER BY config_id",
		investigation,
	)
	if err != nil {
		return nil, fmt.Errorf("load matrix: %w", err)
	}
	defer rows.Close()

	var configs []matrix.Configuration
	for rows.Next() {
		var cfg matrix.Configuration
		var payload string
		if err := rows.Scan(&cfg.ID, &payload); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &cfg.Assignments); err != nil {
			return nil, fmt.Errorf("unmarshal configuration %d: %w", cfg.ID, err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// AppendResults appends execution results; results are never updated
// in place.
func (s *Store) AppendResults(investigation string, results []correlate.ExecutionResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin append results: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		if _, err := tx.Exec(
			`INSERT INTO results(investigation, config_id, exit_status, duration_seconds, notes)
			 VALUES(?, ?, ?, ?, ?)`,
			investigation, r.ConfigurationID, r.ExitStatus, r.DurationSeconds, r.Notes,
		); err != nil {
			return fmt.Errorf("insert result for configuration %d: %w", r.ConfigurationID, err)
		}
	}
	return tx.Commit()
}

// ListResults returns the stored results in insertion order.
func (s *Store) ListResults(investigation string) ([]correlate.ExecutionResult, error) {
	rows, err := s.db.Query(
		`SELECT config_id, exit_status, duration_seconds, notes
		 FROM results WHERE investigation = ? ORDER BY id`,
		investigation,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []correlate.ExecutionResult
	for rows.Next() {
		var r correlate.ExecutionResult
		var notes sql.NullString
		if err := rows.Scan(&r.ConfigurationID, &r.ExitStatus, &r.DurationSeconds, &notes); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Notes = nullStr(notes)
		results = append(results, r)
	}
	return results, rows.Err()
}
