package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lead-scoring-pipeline/internal/config"
)

// ColumnType represents the detected data type for a CSV column
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeReal
	TypeTimestamp
	TypeBoolean
)

// RowIDColumn is the auto-increment key added to every loaded table
const RowIDColumn = "row_id"

func (ct ColumnType) String() string {
	switch ct {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// SQLType returns the SQLite column affinity for the type
func (ct ColumnType) SQLType() string {
	if ct == TypeTimestamp {
		return "DATETIME"
	}
	return ct.String()
}

// ColumnSchema describes one column of a loaded table
type ColumnSchema struct {
	Name     string
	Source   string // header as it appeared in the CSV
	Type     ColumnType
	Nullable bool
	Index    bool
}

// TableSchema describes a table built from a CSV file
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}

// DetectSchema infers a table schema from CSV headers and a sample of records.
// Types come from a sample; a column is nullable when any record, sampled or
// not, leaves it empty or short.
func DetectSchema(headers []string, records [][]string, tableName string) (*TableSchema, error) {
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	name := SanitizeName(tableName)
	if name != tableName {
		return nil, fmt.Errorf("invalid table name %q: use letters, digits and underscores only", tableName)
	}

	schema := &TableSchema{
		Name:    name,
		Columns: make([]ColumnSchema, len(headers)),
	}

	used := map[string]int{RowIDColumn: 1}
	sampleSize := min(len(records), config.SchemaDetectionSampleSize)

	for i, header := range headers {
		base := SanitizeName(header)
		colName := base
		for n := 2; used[colName] > 0; n++ {
			colName = fmt.Sprintf("%s_%d", base, n)
		}
		used[colName]++

		schema.Columns[i] = ColumnSchema{
			Name:     colName,
			Source:   header,
			Type:     detectColumnType(records, i, sampleSize),
			Nullable: hasEmptyValue(records, i),
			Index:    shouldIndex(colName),
		}
	}

	return schema, nil
}

func detectColumnType(records [][]string, columnIndex int, sampleSize int) ColumnType {
	typeVotes := make(map[ColumnType]int)
	totalValues := 0

	for i := 0; i < sampleSize; i++ {
		if columnIndex >= len(records[i]) {
			continue
		}

		value := strings.TrimSpace(records[i][columnIndex])
		if value == "" {
			continue
		}

		typeVotes[inferValueType(value)]++
		totalValues++
	}

	return mostCommonType(typeVotes, totalValues)
}

// hasEmptyValue scans every record since InsertRecords stores empty values as NULL
func hasEmptyValue(records [][]string, columnIndex int) bool {
	for _, record := range records {
		if columnIndex >= len(record) || strings.TrimSpace(record[columnIndex]) == "" {
			return true
		}
	}
	return false
}

// inferValueType returns the most specific type a single value could represent
func inferValueType(value string) ColumnType {
	// Integers before booleans so 0/1 flags stay numeric
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return TypeInteger
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return TypeReal
	}
	if isBoolean(value) {
		return TypeBoolean
	}
	if isTimestamp(value) {
		return TypeTimestamp
	}
	return TypeText
}

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

func isTimestamp(value string) bool {
	for _, format := range timestampFormats {
		if _, err := time.Parse(format, value); err == nil {
			return true
		}
	}
	return false
}

func isBoolean(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// mostCommonType applies config.TypeInferenceThreshold to the vote counts.
// Integer and real votes are pooled since a float column often holds whole numbers.
func mostCommonType(votes map[ColumnType]int, totalValues int) ColumnType {
	if totalValues == 0 {
		return TypeText
	}

	if votes[TypeReal] > 0 {
		votes[TypeReal] += votes[TypeInteger]
		delete(votes, TypeInteger)
	}

	maxVotes := 0
	commonType := TypeText
	for _, cType := range []ColumnType{TypeInteger, TypeReal, TypeTimestamp, TypeBoolean, TypeText} {
		if votes[cType] > maxVotes {
			maxVotes = votes[cType]
			commonType = cType
		}
	}

	if float64(maxVotes)/float64(totalValues) >= config.TypeInferenceThreshold {
		return commonType
	}
	return TypeText
}

// SanitizeName lowercases name and replaces anything outside [a-z0-9_] with underscores
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if out == "" {
		return "unnamed_column"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "col_" + out
	}
	return out
}

// shouldIndex marks lead identifiers and date columns for indexing
func shouldIndex(columnName string) bool {
	switch columnName {
	case "id", "lead_id", "created_date", "city_tier", "app_complete_flag", "interaction_type":
		return true
	}
	if strings.HasSuffix(columnName, "_id") || strings.HasSuffix(columnName, "_date") {
		return true
	}
	return false
}

// GenerateCreateTableSQL returns the CREATE TABLE statement for the schema
func (ts *TableSchema) GenerateCreateTableSQL() string {
	columns := []string{quoteIdent(RowIDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT"}

	for _, col := range ts.Columns {
		colDef := fmt.Sprintf("%s %s", quoteIdent(col.Name), col.Type.SQLType())
		if !col.Nullable {
			colDef += " NOT NULL"
		}
		columns = append(columns, colDef)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		quoteIdent(ts.Name),
		strings.Join(columns, ",\n  "))
}

// GenerateIndexSQL returns CREATE INDEX statements for indexed columns
func (ts *TableSchema) GenerateIndexSQL() []string {
	var statements []string
	for _, col := range ts.Columns {
		if col.Index {
			statements = append(statements, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				quoteIdent("idx_"+ts.Name+"_"+col.Name), quoteIdent(ts.Name), quoteIdent(col.Name),
			))
		}
	}
	return statements
}

// GenerateInsertSQL returns a parameterised INSERT covering every column in order
func (ts *TableSchema) GenerateInsertSQL() string {
	names := make([]string, len(ts.Columns))
	placeholders := make([]string, len(ts.Columns))
	for i, col := range ts.Columns {
		names[i] = quoteIdent(col.Name)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(ts.Name), strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
