package helpers

import (
	"database/sql"
	"strings"
)

// GetContentNullString converts a string value to sql.NullString.
// An empty string becomes NULL.
func GetContentNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE/ILIKE wildcards so user input matches literally
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
