package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrReadOnly is returned for queries that could modify the pipeline database
var ErrReadOnly = errors.New("only read-only queries are allowed")

// replace on its own is also the read-only replace() string function
var forbiddenRe = regexp.MustCompile(`\b(insert|update|delete|drop|create|alter|truncate|merge|upsert|attach|detach|vacuum|reindex|begin|commit|rollback|savepoint)\b|\breplace\s+into\b`)

var readOnlyPragmas = []string{
	"pragma table_info(",
	"pragma index_list(",
	"pragma index_info(",
	"pragma foreign_key_list(",
	"pragma schema_version",
	"pragma user_version",
	"pragma database_list",
	"pragma compile_options",
}

// ValidateReadOnlyQuery accepts a single SELECT, WITH, EXPLAIN or read-only PRAGMA statement
func ValidateReadOnlyQuery(query string) error {
	code := strings.TrimSpace(stripQuotedAndComments(strings.ToLower(query)))
	if code == "" {
		return fmt.Errorf("%w: empty query", ErrReadOnly)
	}

	statement := strings.TrimSuffix(code, ";")
	if strings.Contains(statement, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrReadOnly)
	}

	switch {
	case strings.HasPrefix(statement, "pragma"):
		allowed := false
		for _, pragma := range readOnlyPragmas {
			if strings.HasPrefix(statement, pragma) {
				allowed = true
				break
			}
		}
		if !allowed || strings.Contains(statement, "=") {
			return fmt.Errorf("%w: PRAGMA statement not permitted", ErrReadOnly)
		}
	case hasKeywordPrefix(statement, "select"), hasKeywordPrefix(statement, "with"), hasKeywordPrefix(statement, "explain"):
	default:
		return fmt.Errorf("%w (SELECT, WITH, EXPLAIN and read-only PRAGMA)", ErrReadOnly)
	}

	if kw := forbiddenRe.FindString(statement); kw != "" {
		return fmt.Errorf("%w: forbidden keyword %s", ErrReadOnly, strings.ToUpper(strings.Join(strings.Fields(kw), " ")))
	}
	return nil
}

// stripQuotedAndComments empties string literals and quoted identifiers and
// replaces comments with a space, scanning left to right so that comment
// markers inside quotes and quotes inside comments are both left alone.
// An unterminated quote or block comment runs to the end of the query.
func stripQuotedAndComments(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			// Doubled quote characters escape themselves, so skipping pairs is enough
			end := strings.IndexByte(query[i+1:], c)
			if end < 0 {
				i = len(query)
			} else {
				i += end + 2
			}
			b.WriteByte(c)
			b.WriteByte(c)
		case strings.HasPrefix(query[i:], "--"):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				i = len(query)
			} else {
				i += end
			}
			b.WriteByte(' ')
		case strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 4
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func hasKeywordPrefix(statement, keyword string) bool {
	if !strings.HasPrefix(statement, keyword) {
		return false
	}
	rest := statement[len(keyword):]
	return rest == "" || !isIdentChar(rest[0])
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
