package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:attainment.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/attainment?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS courses (
  id TEXT NOT NULL,
  semester TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  program_id TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (id, semester)
);

CREATE TABLE IF NOT EXISTS course_outcomes (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  id TEXT NOT NULL,                       -- CO code, e.g. CO1
  bloom_level TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  target_proficiency REAL NOT NULL DEFAULT 60,
  PRIMARY KEY (course_id, semester, id)
);

CREATE TABLE IF NOT EXISTS enrollments (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  student_id TEXT NOT NULL,
  PRIMARY KEY (course_id, semester, student_id)
);

CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  category TEXT NOT NULL                  -- IA1|IA2|END
);

CREATE TABLE IF NOT EXISTS assessment_components (
  assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  outcome_id TEXT NOT NULL,               -- mandatory CO tag
  max_marks REAL NOT NULL,
  PRIMARY KEY (assessment_id, number)
);

CREATE TABLE IF NOT EXISTS student_marks (
  assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
  component_number INTEGER NOT NULL,
  student_id TEXT NOT NULL,
  marks REAL NOT NULL,
  PRIMARY KEY (assessment_id, component_number, student_id)
);

CREATE TABLE IF NOT EXISTS survey_summaries (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  outcome_id TEXT NOT NULL,
  strongly_agree INTEGER NOT NULL DEFAULT 0,
  agree INTEGER NOT NULL DEFAULT 0,
  neutral INTEGER NOT NULL DEFAULT 0,
  disagree INTEGER NOT NULL DEFAULT 0,
  respondents INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (course_id, semester, outcome_id)
);

CREATE TABLE IF NOT EXISTS co_po_mappings (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  outcome_id TEXT NOT NULL,
  po_code TEXT NOT NULL,
  level INTEGER NOT NULL,                 -- 1..3
  PRIMARY KEY (course_id, semester, outcome_id, po_code)
);

CREATE TABLE IF NOT EXISTS semester_locks (
  semester TEXT PRIMARY KEY,
  locked INTEGER NOT NULL DEFAULT 0,
  locked_at INTEGER
);

CREATE TABLE IF NOT EXISTS governance_config (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,  -- BIGSERIAL in Postgres
  version TEXT NOT NULL,
  config_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attainment_runs (
  run_id TEXT PRIMARY KEY,
  scope_key TEXT NOT NULL,
  version INTEGER NOT NULL,
  result_json TEXT NOT NULL,
  computed_at INTEGER NOT NULL,
  UNIQUE (scope_key, version)             -- write-once per (scope, version)
);

CREATE TABLE IF NOT EXISTS audit_log (
  id TEXT PRIMARY KEY,
  typ TEXT NOT NULL,                      -- e.g. CourseAttainmentComputed
  scope_key TEXT NOT NULL,
  config_version TEXT NOT NULL DEFAULT '',
  input_checksum TEXT NOT NULL DEFAULT '',
  warnings TEXT NOT NULL DEFAULT '',
  details TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL                      -- admin|coordinator|teacher
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS courses (
  id TEXT NOT NULL,
  semester TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  program_id TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (id, semester)
);

CREATE TABLE IF NOT EXISTS course_outcomes (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  id TEXT NOT NULL,
  bloom_level TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  target_proficiency DOUBLE PRECISION NOT NULL DEFAULT 60,
  PRIMARY KEY (course_id, semester, id)
);

CREATE TABLE IF NOT EXISTS enrollments (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  student_id TEXT NOT NULL,
  PRIMARY KEY (course_id, semester, student_id)
);

CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  category TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessment_components (
  assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  outcome_id TEXT NOT NULL,
  max_marks DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (assessment_id, number)
);

CREATE TABLE IF NOT EXISTS student_marks (
  assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
  component_number INTEGER NOT NULL,
  student_id TEXT NOT NULL,
  marks DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (assessment_id, component_number, student_id)
);

CREATE TABLE IF NOT EXISTS survey_summaries (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  outcome_id TEXT NOT NULL,
  strongly_agree INTEGER NOT NULL DEFAULT 0,
  agree INTEGER NOT NULL DEFAULT 0,
  neutral INTEGER NOT NULL DEFAULT 0,
  disagree INTEGER NOT NULL DEFAULT 0,
  respondents INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (course_id, semester, outcome_id)
);

CREATE TABLE IF NOT EXISTS co_po_mappings (
  course_id TEXT NOT NULL,
  semester TEXT NOT NULL,
  outcome_id TEXT NOT NULL,
  po_code TEXT NOT NULL,
  level INTEGER NOT NULL,
  PRIMARY KEY (course_id, semester, outcome_id, po_code)
);

CREATE TABLE IF NOT EXISTS semester_locks (
  semester TEXT PRIMARY KEY,
  locked INTEGER NOT NULL DEFAULT 0,
  locked_at BIGINT
);

CREATE TABLE IF NOT EXISTS governance_config (
  seq BIGSERIAL PRIMARY KEY,
  version TEXT NOT NULL,
  config_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS attainment_runs (
  run_id TEXT PRIMARY KEY,
  scope_key TEXT NOT NULL,
  version INTEGER NOT NULL,
  result_json TEXT NOT NULL,
  computed_at BIGINT NOT NULL,
  UNIQUE (scope_key, version)
);

CREATE TABLE IF NOT EXISTS audit_log (
  id TEXT PRIMARY KEY,
  typ TEXT NOT NULL,
  scope_key TEXT NOT NULL,
  config_version TEXT NOT NULL DEFAULT '',
  input_checksum TEXT NOT NULL DEFAULT '',
  warnings TEXT NOT NULL DEFAULT '',
  details TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL
);
`
