package store

// schemaDDL creates the investigation store. Everything is keyed by the
// investigation name so several sessions can share one database file.
// Results are append-only; verdicts and configurations are replaced
// wholesale per investigation on save.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	investigation TEXT NOT NULL,
	run_id TEXT NOT NULL,
	build TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(investigation, run_id)
);
CREATE TABLE IF NOT EXISTS run_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_pk INTEGER NOT NULL,
	test_name TEXT NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error_signature TEXT,
	FOREIGN KEY (run_pk) REFERENCES runs(id)
);
CREATE TABLE IF NOT EXISTS verdicts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	investigation TEXT NOT NULL,
	test_name TEXT NOT NULL,
	scored INTEGER NOT NULL,
	score REAL NOT NULL,
	category TEXT NOT NULL,
	runs INTEGER NOT NULL,
	failures INTEGER NOT NULL,
	UNIQUE(investigation, test_name)
);
CREATE TABLE IF NOT EXISTS configurations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	investigation TEXT NOT NULL,
	config_id INTEGER NOT NULL,
	assignments TEXT NOT NULL,
	UNIQUE(investigation, config_id)
);
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	investigation TEXT NOT NULL,
	config_id INTEGER NOT NULL,
	exit_status INTEGER NOT NULL,
	duration_seconds REAL NOT NULL DEFAULT 0,
	notes TEXT
);
`
