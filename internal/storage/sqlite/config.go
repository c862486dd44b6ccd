package sqlite

import "strings"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:de_results.db?_pragma=busy_timeout(5000)"
	//   "de_results.db"
	DSN string

	// Fresh deletes the database file (and its -wal/-shm siblings) before
	// opening.
	Fresh bool

	// WAL switches the journal to write-ahead logging.
	WAL bool
}

// Path extracts the filesystem path from a DSN: a "file:" prefix and any
// query string are dropped. In-memory databases return "".
func Path(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return p
}
