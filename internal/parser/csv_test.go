package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// createTempCSVFile writes content to a CSV file under the test's temp dir
func createTempCSVFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp CSV: %v", err)
	}
	return path
}

// TestParseInteractionMapping tests parsing of the interaction mapping file
func TestParseInteractionMapping(t *testing.T) {
	tests := []struct {
		name       string
		csvContent string
		wantTypes  []string
		wantErr    bool
		errMsg     string
	}{
		{
			name: "with header",
			csvContent: `interaction_type,interaction_mapping
1_on_1_sessions,assistance_interaction
read_faq,syllabus_interaction
visited_payment_page,payment_interaction`,
			wantTypes: []string{"1_on_1_sessions", "read_faq", "visited_payment_page"},
		},
		{
			name: "without header",
			csvContent: `1_on_1_sessions,assistance_interaction
shared_on_social_media,social_interaction`,
			wantTypes: []string{"1_on_1_sessions", "shared_on_social_media"},
		},
		{
			name: "pandas index column",
			csvContent: `,interaction_type,interaction_mapping
0,1_on_1_sessions,assistance_interaction
1,career_assistance,career_interaction`,
			wantTypes: []string{"1_on_1_sessions", "career_assistance"},
		},
		{
			name: "whitespace is trimmed",
			csvContent: `interaction_type,interaction_mapping
  read_faq ,  syllabus_interaction  `,
			wantTypes: []string{"read_faq"},
		},
		{
			name:       "empty file",
			csvContent: ``,
			wantErr:    true,
			errMsg:     "no data records",
		},
		{
			name:       "header only",
			csvContent: "interaction_type,interaction_mapping\n",
			wantErr:    true,
			errMsg:     "no data records",
		},
		{
			name: "empty category",
			csvContent: `interaction_type,interaction_mapping
read_faq,`,
			wantErr: true,
			errMsg:  "line 2",
		},
		{
			name: "duplicate interaction type",
			csvContent: `read_faq,syllabus_interaction
read_faq,assistance_interaction`,
			wantErr: true,
			errMsg:  "already mapped on line 1",
		},
		{
			name:       "wrong field count",
			csvContent: `a,b,c,d`,
			wantErr:    true,
			errMsg:     "expected 2 fields",
		},
		{
			name: "ragged rows",
			csvContent: `read_faq,syllabus_interaction
visited_payment_page`,
			wantErr: true,
		},
		{
			name: "non-numeric index",
			csvContent: `x,read_faq,syllabus_interaction`,
			wantErr: true,
			errMsg:  "unexpected index value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTempCSVFile(t, tt.csvContent)

			mappings, err := ParseInteractionMapping(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInteractionMapping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q does not contain %q", err, tt.errMsg)
				}
				return
			}

			var got []string
			for _, m := range mappings {
				got = append(got, m.InteractionType)
				if m.Category == "" {
					t.Errorf("mapping %q has empty category", m.InteractionType)
				}
			}
			if !reflect.DeepEqual(got, tt.wantTypes) {
				t.Errorf("interaction types = %v, want %v", got, tt.wantTypes)
			}
		})
	}
}

func TestParseInteractionMappingCategories(t *testing.T) {
	path := createTempCSVFile(t, "interaction_type,interaction_mapping\nread_faq,syllabus_interaction\n")

	mappings, err := ParseInteractionMapping(path)
	if err != nil {
		t.Fatal(err)
	}
	if mappings[0].Category != "syllabus_interaction" {
		t.Errorf("Category = %q, want syllabus_interaction", mappings[0].Category)
	}
}

func TestParseInteractionMappingMissingFile(t *testing.T) {
	_, err := ParseInteractionMapping(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

// TestParseCSVRaw tests header detection and record collection for raw lead data
func TestParseCSVRaw(t *testing.T) {
	tests := []struct {
		name        string
		csvContent  string
		wantHeaders []string
		wantRecords int
		wantErr     error
	}{
		{
			name: "lead data with header",
			csvContent: `created_date,city_tier,first_platform_c,total_leads_droppped,app_complete_flag
2021-07-01 00:08:15,1.0,Level0,1.0,1
2021-07-01 00:16:43,2.0,Level3,2.0,0`,
			wantHeaders: []string{"created_date", "city_tier", "first_platform_c", "total_leads_droppped", "app_complete_flag"},
			wantRecords: 2,
		},
		{
			name: "pandas index header",
			csvContent: `,created_date,city_tier
0,2021-07-01 00:08:15,1.0`,
			wantHeaders: []string{"column_1", "created_date", "city_tier"},
			wantRecords: 1,
		},
		{
			name: "no header row",
			csvContent: `2021-07-01 00:08:15,1.0,Level0
2021-07-01 00:16:43,2.0,Level3`,
			wantHeaders: []string{"column_1", "column_2", "column_3"},
			wantRecords: 2,
		},
		{
			name:       "empty file",
			csvContent: ``,
			wantErr:    ErrNoHeaders,
		},
		{
			name: "variable field counts",
			csvContent: `created_date,city_tier,referred_lead
2021-07-01 00:08:15,1.0
2021-07-01 00:16:43,2.0,0,extra`,
			wantHeaders: []string{"created_date", "city_tier", "referred_lead"},
			wantRecords: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTempCSVFile(t, tt.csvContent)

			headers, records, err := ParseCSVRaw(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCSVRaw() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCSVRaw() error = %v", err)
			}

			if !reflect.DeepEqual(headers, tt.wantHeaders) {
				t.Errorf("headers = %v, want %v", headers, tt.wantHeaders)
			}
			if len(records) != tt.wantRecords {
				t.Errorf("got %d records, want %d", len(records), tt.wantRecords)
			}
		})
	}
}

func TestLooksLikeHeader(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"created_date", true},
		{"first_utm_source_c", true},
		{"city_tier", true},
		{"interaction_type", true},
		{"2021-07-01", false},
		{"2021-07-01 00:08:15", false},
		{"1.0", false},
		{"Level0", false},
		{"someone@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := looksLikeHeader(tt.field); got != tt.want {
				t.Errorf("looksLikeHeader(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}
