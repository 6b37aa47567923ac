// Package database provides SQLite storage for the lead scoring pipeline
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"

	"lead-scoring-pipeline/internal/config"
	"lead-scoring-pipeline/internal/models"
	"lead-scoring-pipeline/internal/parser"
)

// DB interface defines the database operations used by the pipeline utilities
type DB interface {
	Close() error
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
	Begin() (*sql.Tx, error)
}

type sqliteDB struct {
	*sql.DB
}

// Initialize opens the SQLite database at dbPath and creates the mapping table.
// The parent directory of a file database is created when missing.
func Initialize(dbPath string, log logrus.FieldLogger) (DB, error) {
	if !isMemoryPath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("path", dbPath).Debug("database initialized")
	return db, nil
}

// OpenReadOnly opens an existing database file without creating directories,
// tables or the file itself. SQLite rejects every write on the returned handle.
func OpenReadOnly(dbPath string, log logrus.FieldLogger) (DB, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	db, err := open(readOnlyDSN(abs))
	if err != nil {
		return nil, err
	}

	log.WithField("path", abs).Debug("database opened read-only")
	return db, nil
}

// readOnlyDSN builds a SQLite URI filename; characters with a meaning in URIs are escaped
func readOnlyDSN(absPath string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(absPath))
	return "file:" + escaped + "?mode=ro"
}

func open(dsn string) (*sqliteDB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database only lives as long as its connection
	sqlDB.SetMaxOpenConns(1)

	db := &sqliteDB{sqlDB}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func isMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
}

func createTables(db DB) error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		interaction_type TEXT NOT NULL UNIQUE,
		interaction_mapping TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_mapping ON %[1]s(interaction_mapping);
	`, config.MappingTableName)

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// InsertInteractionMappings stores mappings in a single transaction.
// Existing rows are replaced unless appendMode is set; in append mode a
// mapping for an existing interaction type overwrites its category.
func InsertInteractionMappings(db DB, mappings []models.InteractionMapping, appendMode bool) (int64, error) {
	if len(mappings) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !appendMode {
		if _, err := tx.Exec("DELETE FROM " + config.MappingTableName); err != nil {
			return 0, fmt.Errorf("failed to clear existing mappings: %w", err)
		}
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
	INSERT INTO %s (interaction_type, interaction_mapping) VALUES (?, ?)
	ON CONFLICT(interaction_type) DO UPDATE SET interaction_mapping = excluded.interaction_mapping
	`, config.MappingTableName))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, m := range mappings {
		if _, err := stmt.Exec(m.InteractionType, m.Category); err != nil {
			return 0, fmt.Errorf("failed to insert mapping %q: %w", m.InteractionType, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit mappings: %w", err)
	}
	return inserted, nil
}

// LoadInteractionMappings returns all stored mappings ordered by interaction type
func LoadInteractionMappings(db DB) ([]models.InteractionMapping, error) {
	rows, err := db.Query(fmt.Sprintf(
		"SELECT id, interaction_type, interaction_mapping FROM %s ORDER BY interaction_type",
		config.MappingTableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.InteractionMapping
	for rows.Next() {
		var m models.InteractionMapping
		if err := rows.Scan(&m.ID, &m.InteractionType, &m.Category); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return mappings, nil
}

// CreateTable creates the table and indexes described by schema.
// With replace set, an existing table of the same name is dropped first.
func CreateTable(db DB, schema *parser.TableSchema, replace bool) error {
	if schema.Name == config.MappingTableName {
		return fmt.Errorf("table name %q is reserved", schema.Name)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, schema.Name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", schema.Name, err)
		}
	}

	if _, err := tx.Exec(schema.GenerateCreateTableSQL()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Name, err)
	}
	for _, stmt := range schema.GenerateIndexSQL() {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return tx.Commit()
}

// InsertRecords bulk inserts raw CSV records into a table created from schema.
// Empty values and missing trailing fields are stored as NULL; extra fields are ignored.
func InsertRecords(db DB, schema *parser.TableSchema, records [][]string) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(schema.GenerateInsertSQL())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(schema.Columns))
	var inserted int64
	for i, record := range records {
		for c := range schema.Columns {
			args[c] = nil
			if c < len(record) {
				if v := strings.TrimSpace(record[c]); v != "" {
					args[c] = v
				}
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return inserted, nil
}

// ListTables returns the user tables in the database sorted by name
func ListTables(db DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// QueryResult holds the rows of a generic query along with column order
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// ExecuteQuery runs a read-only query and returns every row keyed by column name
func ExecuteQuery(db DB, query string) (*QueryResult, error) {
	if err := ValidateReadOnlyQuery(query); err != nil {
		return nil, err
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[column] = val
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}
