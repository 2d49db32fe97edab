package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect isolates the differences between the supported SQL backends.
// Queries are written once with ? placeholders and ON CONFLICT upserts,
// which both SQLite and PostgreSQL accept.
type Dialect interface {
	// Name is the value accepted by DB_TYPE.
	Name() string
	DriverName() string
	DSN(cfg DialectConfig) string
	// RewriteQuery converts ? placeholders where the driver needs it.
	RewriteQuery(query string) string
	ConfigureConnection(db *sql.DB) error
	// MigrationsSubdir selects the embedded migration set.
	MigrationsSubdir() string
	CreateMigrationsTableQuery() string
}

// DialectConfig holds connection settings for a dialect.
type DialectConfig struct {
	// Path is a SQLite file path.
	Path string
	// URL is a PostgreSQL connection string.
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
func rewritePlaceholdersToNumbered(query string) string {
	n := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}
