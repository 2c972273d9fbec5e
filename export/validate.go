package export

import (
	"errors"
	"strings"
)

var (
	// ErrNotSelect is returned for statements other than SELECT.
	ErrNotSelect = errors.New("export: only SELECT queries are allowed")
	// ErrMultipleStatements is returned for stacked statements.
	ErrMultipleStatements = errors.New("export: multi-statement queries are not allowed")
)

// forbiddenKeywords are DML/DDL and information-leakage vectors rejected
// inside export queries even when the statement starts with SELECT.
var forbiddenKeywords = []string{
	"DELETE", "DROP", "INSERT", "UPDATE", "ALTER", "TRUNCATE", "GRANT", "REVOKE",
	"CREATE", "REPLACE", "CALL", "DO", "HANDLER", "LOAD", "UNION",
	"USER(", "VERSION(", "DATABASE(", "LOAD_FILE(", "@@VERSION", "@@HOSTNAME",
}

// restrictedSchemas are system table namespaces export queries may not touch.
var restrictedSchemas = []string{
	"INFORMATION_SCHEMA", "MYSQL", "PERFORMANCE_SCHEMA", "SYS",
}

// ValidateQuery enforces least privilege on caller-supplied export SQL:
// a single SELECT statement, no destructive keywords, no system tables.
// Matching is word-boundary aware so column names like deleted_at pass.
func ValidateQuery(query string) error {
	q := strings.TrimSpace(query)
	qUpper := strings.ToUpper(q)

	if !strings.HasPrefix(qUpper, "SELECT") {
		return ErrNotSelect
	}
	if strings.Contains(q, ";") {
		return ErrMultipleStatements
	}

	for _, word := range forbiddenKeywords {
		if containsWord(qUpper, word) {
			return errors.New("export: forbidden keyword detected: " + word)
		}
	}
	for _, schema := range restrictedSchemas {
		if containsWord(qUpper, schema) {
			return errors.New("export: access to system table blocked: " + schema)
		}
	}
	return nil
}

// containsWord reports whether word occurs in s delimited by SQL word
// boundaries. s must already be uppercase.
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i == -1 {
			return false
		}
		start := idx + i
		end := start + len(word)

		startOK := start == 0 || isBoundary(s[start-1])
		endOK := end == len(s) || isBoundary(s[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' ||
		b == '(' || b == ')' || b == ',' || b == '=' ||
		b == '<' || b == '>' || b == '`' || b == '.' ||
		b == '"' || b == '[' || b == ']'
}
