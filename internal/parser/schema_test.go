package parser

import (
	"errors"
	"strings"
	"testing"

	"lead-scoring-pipeline/internal/config"
)

func TestDetectSchema(t *testing.T) {
	tests := []struct {
		name         string
		headers      []string
		records      [][]string
		tableName    string
		expectTypes  map[string]ColumnType
		expectIndex  map[string]bool
		expectNullOK map[string]bool
	}{
		{
			name:    "raw lead data",
			headers: []string{"created_date", "city_tier", "first_platform_c", "referred_lead", "app_complete_flag"},
			records: [][]string{
				{"2021-07-01 00:08:15", "1.0", "Level0", "0", "1"},
				{"2021-07-01 00:16:43", "2.0", "Level3", "1", "0"},
				{"2021-07-01 00:22:20", "1.0", "Level0", "", "1"},
			},
			tableName: "loaded_data",
			expectTypes: map[string]ColumnType{
				"created_date":      TypeTimestamp,
				"city_tier":         TypeReal,
				"first_platform_c":  TypeText,
				"referred_lead":     TypeInteger,
				"app_complete_flag": TypeInteger,
			},
			expectIndex: map[string]bool{
				"created_date":      true,
				"city_tier":         true,
				"first_platform_c":  false,
				"app_complete_flag": true,
			},
			expectNullOK: map[string]bool{
				"created_date":  false,
				"referred_lead": true,
			},
		},
		{
			name:    "mixed integer and real values pool as real",
			headers: []string{"total_leads_droppped"},
			records: [][]string{{"1"}, {"2.0"}, {"3"}, {"1.5"}},
			tableName: "leads",
			expectTypes: map[string]ColumnType{
				"total_leads_droppped": TypeReal,
			},
		},
		{
			name:    "awkward headers are sanitised",
			headers: []string{"Lead ID", "1st-source", "row_id"},
			records: [][]string{{"10", "google", "x"}},
			tableName: "leads",
			expectTypes: map[string]ColumnType{
				"lead_id":        TypeInteger,
				"col_1st_source": TypeText,
				"row_id_2":       TypeText,
			},
			expectIndex: map[string]bool{
				"lead_id": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := DetectSchema(tt.headers, tt.records, tt.tableName)
			if err != nil {
				t.Fatalf("DetectSchema() error = %v", err)
			}

			if schema.Name != tt.tableName {
				t.Errorf("Name = %q, want %q", schema.Name, tt.tableName)
			}
			if len(schema.Columns) != len(tt.headers) {
				t.Fatalf("got %d columns, want %d", len(schema.Columns), len(tt.headers))
			}

			byName := make(map[string]ColumnSchema)
			for _, col := range schema.Columns {
				byName[col.Name] = col
			}

			for name, want := range tt.expectTypes {
				col, ok := byName[name]
				if !ok {
					t.Errorf("column %q missing", name)
					continue
				}
				if col.Type != want {
					t.Errorf("column %q type = %v, want %v", name, col.Type, want)
				}
			}
			for name, want := range tt.expectIndex {
				if byName[name].Index != want {
					t.Errorf("column %q index = %v, want %v", name, byName[name].Index, want)
				}
			}
			for name, want := range tt.expectNullOK {
				if byName[name].Nullable != want {
					t.Errorf("column %q nullable = %v, want %v", name, byName[name].Nullable, want)
				}
			}
		})
	}
}

func TestDetectSchemaErrors(t *testing.T) {
	records := [][]string{{"1"}}

	if _, err := DetectSchema(nil, records, "t"); !errors.Is(err, ErrNoHeaders) {
		t.Errorf("expected ErrNoHeaders, got %v", err)
	}
	if _, err := DetectSchema([]string{"a"}, nil, "t"); !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
	if _, err := DetectSchema([]string{"a"}, records, "bad name; drop"); err == nil {
		t.Error("expected error for unsafe table name")
	}
}

func TestDuplicateHeaders(t *testing.T) {
	schema, err := DetectSchema([]string{"id", "id", "id_2"}, [][]string{{"1", "2", "3"}}, "leads")
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, col := range schema.Columns {
		names = append(names, col.Name)
	}
	if got := strings.Join(names, ","); got != "id,id_2,id_2_2" {
		t.Errorf("column names = %s", got)
	}
}

func TestInferValueType(t *testing.T) {
	tests := []struct {
		value string
		want  ColumnType
	}{
		{"42", TypeInteger},
		{"0", TypeInteger},
		{"1.0", TypeReal},
		{"true", TypeBoolean},
		{"No", TypeBoolean},
		{"2021-07-01", TypeTimestamp},
		{"2021-07-01 00:08:15", TypeTimestamp},
		{"Level0", TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := inferValueType(tt.value); got != tt.want {
				t.Errorf("inferValueType(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGenerateSQL(t *testing.T) {
	schema := &TableSchema{
		Name: "leads",
		Columns: []ColumnSchema{
			{Name: "created_date", Type: TypeTimestamp, Index: true},
			{Name: "city_tier", Type: TypeReal, Nullable: true},
		},
	}

	create := schema.GenerateCreateTableSQL()
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "leads"`,
		`"row_id" INTEGER PRIMARY KEY AUTOINCREMENT`,
		`"created_date" DATETIME NOT NULL`,
		`"city_tier" REAL`,
	} {
		if !strings.Contains(create, want) {
			t.Errorf("CREATE statement missing %q:\n%s", want, create)
		}
	}
	if strings.Contains(create, `"city_tier" REAL NOT NULL`) {
		t.Error("nullable column marked NOT NULL")
	}

	indexes := schema.GenerateIndexSQL()
	if len(indexes) != 1 || !strings.Contains(indexes[0], `"idx_leads_created_date"`) {
		t.Errorf("GenerateIndexSQL() = %v", indexes)
	}

	insert := schema.GenerateInsertSQL()
	want := `INSERT INTO "leads" ("created_date", "city_tier") VALUES (?, ?)`
	if insert != want {
		t.Errorf("GenerateInsertSQL() = %q, want %q", insert, want)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"created_date":     "created_date",
		"First Platform C": "first_platform_c",
		"utm.source":       "utm_source",
		"2nd":              "col_2nd",
		"":                 "unnamed_column",
		`a"b`:              "a_b",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestDetectSchemaNullableBeyondSample tests that an empty value past the
// type-inference sample still makes the column nullable
func TestDetectSchemaNullableBeyondSample(t *testing.T) {
	var records [][]string
	for i := 0; i < config.SchemaDetectionSampleSize+5; i++ {
		records = append(records, []string{"2021-07-01", "1"})
	}
	records = append(records, []string{"2021-07-02", ""}, []string{"2021-07-03"})

	schema, err := DetectSchema([]string{"created_date", "city_tier"}, records, "leads")
	if err != nil {
		t.Fatal(err)
	}

	if schema.Columns[0].Nullable {
		t.Error("created_date is never empty and should be NOT NULL")
	}
	if !schema.Columns[1].Nullable {
		t.Error("city_tier is empty after the sample and should be nullable")
	}
	if schema.Columns[1].Type != TypeInteger {
		t.Errorf("city_tier type = %v, want INTEGER", schema.Columns[1].Type)
	}
	if strings.Contains(schema.GenerateCreateTableSQL(), `"city_tier" INTEGER NOT NULL`) {
		t.Error("CREATE statement marks city_tier NOT NULL")
	}
}
