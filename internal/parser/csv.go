// Package parser provides CSV parsing for the lead scoring pipeline input files
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"lead-scoring-pipeline/internal/models"
)

var (
	// ErrNoHeaders is returned when a CSV file has no rows at all
	ErrNoHeaders = errors.New("no headers found in CSV file")
	// ErrNoRecords is returned when a CSV file has a header but no data rows
	ErrNoRecords = errors.New("no data records found in CSV file")
)

// ParseCSVRaw reads a CSV file returning headers and raw string records.
// When the first row does not look like a header, column_N names are generated
// and the row is kept as data.
func ParseCSVRaw(filePath string) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return readRaw(file)
}

func readRaw(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // raw lead exports are not always rectangular

	var headers []string
	var records [][]string
	lineNumber := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading CSV at line %d: %w", lineNumber+1, err)
		}
		lineNumber++

		if lineNumber > 1 {
			records = append(records, record)
			continue
		}

		if isHeaderRow(record) {
			headers = normalizeHeaders(record)
			continue
		}
		headers = make([]string, len(record))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		records = append(records, record)
	}

	if len(headers) == 0 {
		return nil, nil, ErrNoHeaders
	}

	return headers, records, nil
}

// normalizeHeaders names the blank index column pandas writes with to_csv
func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasPrefix(h, "Unnamed:") {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

// ParseInteractionMapping reads the interaction mapping CSV.
// Expected columns: interaction_type, interaction_mapping. A leading index
// column, as written by pandas, is accepted and dropped.
func ParseInteractionMapping(filePath string) ([]models.InteractionMapping, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open interaction mapping: %w", err)
	}
	defer file.Close()

	return readInteractionMapping(file)
}

func readInteractionMapping(r io.Reader) ([]models.InteractionMapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // every row must match the first
	reader.TrimLeadingSpace = true

	var mappings []models.InteractionMapping
	seen := make(map[string]int)
	lineNumber := 0
	indexed := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNumber+1, err)
		}
		lineNumber++

		if lineNumber == 1 {
			switch len(record) {
			case 2:
			case 3:
				indexed = true
			default:
				return nil, fmt.Errorf("expected 2 fields (interaction_type, interaction_mapping), got %d", len(record))
			}
			if isMappingHeader(record) {
				continue
			}
		}

		if indexed {
			if !isIndexField(record[0]) {
				return nil, fmt.Errorf("error parsing line %d: unexpected index value %q", lineNumber, record[0])
			}
			record = record[1:]
		}

		mapping, err := parseMappingRecord(record)
		if err != nil {
			return nil, fmt.Errorf("error parsing line %d: %w", lineNumber, err)
		}

		if first, dup := seen[mapping.InteractionType]; dup {
			return nil, fmt.Errorf("error parsing line %d: interaction type %q already mapped on line %d",
				lineNumber, mapping.InteractionType, first)
		}
		seen[mapping.InteractionType] = lineNumber

		mappings = append(mappings, mapping)
	}

	if len(mappings) == 0 {
		return nil, fmt.Errorf("interaction mapping: %w", ErrNoRecords)
	}

	return mappings, nil
}

func parseMappingRecord(record []string) (models.InteractionMapping, error) {
	interactionType := strings.TrimSpace(record[0])
	if interactionType == "" {
		return models.InteractionMapping{}, fmt.Errorf("interaction type cannot be empty")
	}

	category := strings.TrimSpace(record[1])
	if category == "" {
		return models.InteractionMapping{}, fmt.Errorf("interaction mapping for %q cannot be empty", interactionType)
	}

	return models.InteractionMapping{
		InteractionType: interactionType,
		Category:        category,
	}, nil
}

// isMappingHeader recognises the mapping file's own header, with or without an index column
func isMappingHeader(record []string) bool {
	for _, field := range record {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "interaction_type", "interaction_mapping":
			return true
		}
	}
	return false
}

func isIndexField(field string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(field))
	return err == nil
}

// isHeaderRow checks if the given record appears to be a header row.
// More than half of the fields must look like column names.
func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}

	headerLikeCount := 0
	for _, field := range record {
		if looksLikeHeader(field) {
			headerLikeCount++
		}
	}
	return float64(headerLikeCount)/float64(len(record)) > 0.5
}

// looksLikeHeader determines if a field looks like a column name
func looksLikeHeader(field string) bool {
	field = strings.TrimSpace(field)
	if field == "" || len(field) > 50 {
		return false
	}

	if isPurelyNumeric(field) || isTimestampLike(field) || strings.Contains(field, "@") {
		return false
	}

	if !containsLetters(field) {
		return false
	}

	if isCommonHeaderWord(field) {
		return true
	}

	// Lead exports use snake_case column names such as first_utm_source_c
	if strings.Contains(field, "_") && strings.ToLower(field) == field {
		return true
	}

	return len(field) <= 15 && !strings.ContainsAny(field, "0123456789") &&
		(strings.ToLower(field) == field || strings.ToUpper(field) == field)
}

func isTimestampLike(field string) bool {
	if strings.Contains(field, ":") && (strings.Contains(field, " ") || strings.Contains(field, "T")) {
		return true
	}
	// 2021-07-01
	if len(field) == 10 && field[4] == '-' && field[7] == '-' {
		return true
	}
	return false
}

func isCommonHeaderWord(field string) bool {
	common := []string{"id", "date", "time", "city", "tier", "platform", "source",
		"medium", "lead", "interaction", "app", "status", "referred", "converted"}
	lower := strings.ToLower(field)
	for _, word := range common {
		if lower == word || strings.HasPrefix(lower, word+"_") || strings.HasSuffix(lower, "_"+word) {
			return true
		}
	}
	return false
}

func containsLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func isPurelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
