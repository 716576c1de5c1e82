package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is the handle every component receives instead of reaching for an
// ambient process-wide connection. Acquired once at startup, closed at
// shutdown, reused per call.
type Store struct {
	db *sqlx.DB
	q  *Queries
}

// NewStore wraps an open database with the named query set.
func NewStore(conn *sqlx.DB) (*Store, error) {
	q, err := LoadQueries(conn)
	if err != nil {
		return nil, err
	}
	return &Store{db: conn, q: q}, nil
}

// DriverName exposes the underlying driver for dialect-sensitive callers
// (the rule compiler's tag-membership SQL differs between backends).
func (s *Store) DriverName() string {
	return s.db.DriverName()
}

// DB exposes the raw connection for migration commands.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// fmtTime renders a timestamp in the store's canonical RFC3339 UTC form.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// fmtTimePtr renders a nullable timestamp.
func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

// parseTime decodes a stored RFC3339 timestamp. A column that fails to parse
// is surfaced as an error rather than silently becoming the zero time.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeJSON marshals a value for a JSON text column, substituting the empty
// form on nil so columns never hold SQL NULL JSON.
func encodeJSON(v any, empty string) string {
	if v == nil {
		return empty
	}
	b, err := json.Marshal(v)
	if err != nil {
		return empty
	}
	return string(b)
}

func decodeTags(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil
	}
	return tags
}

func decodeAttrs(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(s), &attrs); err != nil {
		return nil
	}
	return attrs
}

// nilIfEmptyTags keeps the tags column non-NULL.
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	return encodeJSON(tags, "[]")
}

func encodeAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return "{}"
	}
	return encodeJSON(attrs, "{}")
}
