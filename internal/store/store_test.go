package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"runs", "rules", "diagnostics"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s := openTestStore(t)

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	// Second close must not panic
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragma_Values(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

// Schema table tests

func TestSchema_Columns(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	tests := map[string][]string{
		"runs": {
			"id", "query_name", "query_fingerprint", "query_json", "options_json",
			"total_partitions", "filtered_partitions", "valid_partitions",
			"final_expression", "elapsed_ms", "termination_reason",
			"cache_hits", "cache_misses", "engine_version", "schema_version", "created_at",
		},
		"rules": {
			"run_id", "scope", "position", "expr", "edges", "source", "target",
			"diameter", "fingerprint", "derivation",
		},
		"diagnostics": {
			"run_id", "position", "partition_index", "component_index",
			"reason", "message", "attributes",
		},
	}
	for table, want := range tests {
		t.Run(table, func(t *testing.T) {
			got := getTableColumns(t, s.db, table)
			if !slices.Equal(got, want) {
				t.Errorf("%s columns = %v, want %v", table, got, want)
			}
		})
	}
}

func TestSchema_RunsIndexes(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	indexes := getTableIndexes(t, s.db, "runs")
	for _, want := range []string{"idx_runs_created_at", "idx_runs_query_fingerprint"} {
		if !slices.Contains(indexes, want) {
			t.Errorf("runs missing index %q, have %v", want, indexes)
		}
	}
}

// Constraint tests

func TestConstraint_RuleScopeChecked(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	insertBareRun(t, s.db, "run-1")

	_, err := s.db.Exec(`
		INSERT INTO rules (run_id, scope, position, expr, edges, source, target, diameter, fingerprint)
		VALUES ('run-1', 'bogus', 0, 'p', '[0]', 'a', 'b', 1, 'fp')
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for unknown scope")
	}
}

func TestConstraint_ForeignKeyRuleToRun(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	_, err := s.db.Exec(`
		INSERT INTO rules (run_id, scope, position, expr, edges, source, target, diameter, fingerprint)
		VALUES ('missing', 'catalogue', 0, 'p', '[0]', 'a', 'b', 1, 'fp')
	`)
	if err == nil {
		t.Error("expected foreign key violation for rule without run")
	}
}

func TestConstraint_DeleteRunCascades(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	insertBareRun(t, s.db, "run-1")

	if _, err := s.db.Exec(`
		INSERT INTO rules (run_id, scope, position, expr, edges, source, target, diameter, fingerprint)
		VALUES ('run-1', 'catalogue', 0, 'p', '[0]', 'a', 'b', 1, 'fp')
	`); err != nil {
		t.Fatalf("insert rule: %v", err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO diagnostics (run_id, position, partition_index, reason, message)
		VALUES ('run-1', 0, 1, 'EXCESS_JOIN_NODES', 'too many')
	`); err != nil {
		t.Fatalf("insert diagnostic: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM runs WHERE id = 'run-1'"); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	for _, table := range []string{"rules", "diagnostics"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after deleting run, want 0", table, count)
		}
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		var version int
		if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}
		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}
		s.Close()
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Schema without migrations simulates a pre-migration database
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	if indexes := getTableIndexes(t, db, "runs"); slices.Contains(indexes, "idx_runs_query_fingerprint") {
		t.Fatalf("fingerprint index present before migration: %v", indexes)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}
	if indexes := getTableIndexes(t, s.db, "runs"); !slices.Contains(indexes, "idx_runs_query_fingerprint") {
		t.Errorf("expected idx_runs_query_fingerprint after migration, got %v", indexes)
	}
}

// Helper functions

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

func insertBareRun(t *testing.T, db *sql.DB, id string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO runs (
			id, query_name, query_fingerprint, query_json, options_json,
			total_partitions, filtered_partitions, valid_partitions,
			elapsed_ms, engine_version, schema_version, created_at
		) VALUES (?, 'q', 'fp', '{}', '{}', 0, 0, 0, 0, '0', '1', '2024-01-01T00:00:00.000000000Z')
	`, id)
	if err != nil {
		t.Fatalf("insert run %q: %v", id, err)
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
