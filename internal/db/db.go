// Package db provides the request-scoped database session used by the GraphQL
// layer. Queries are built with the ent sql builder so that every column
// reference is validated upstream and every value is bound as a parameter.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"hookline/internal/db/models"
)

// Session wraps a database handle together with its SQL dialect. A session is
// request-scoped from the GraphQL layer's point of view and must not be shared
// across concurrent query executions.
type Session struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// Open parses a database URL (sqlite://path or postgres://...) and opens a
// session for it. The URL scheme selects the driver.
func Open(databaseURL string, logger *slog.Logger) (*Session, error) {
	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewSession(handle, driverDialect(driver), logger), nil
}

// NewSession builds a session around an existing database handle. The dialect
// must be one of the entgo.io/ent/dialect constants.
func NewSession(handle *sql.DB, sqlDialect string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{db: handle, dialect: sqlDialect, logger: logger.With("component", "db")}
}

// ParseURL splits a database URL into an sql driver name and its DSN.
func ParseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		driver = "sqlite3"
		dsn = strings.TrimPrefix(databaseURL, "sqlite://")
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", "", fmt.Errorf("creating database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_fk=1"
		}
		return driver, dsn, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "postgres", databaseURL, nil
	}
	return "", "", fmt.Errorf("unsupported database URL %q (use sqlite:// or postgres://)", databaseURL)
}

func driverDialect(driver string) string {
	if driver == "postgres" {
		return dialect.Postgres
	}
	return dialect.SQLite
}

// Ping verifies the connection.
func (s *Session) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying handle.
func (s *Session) Close() error {
	return s.db.Close()
}

// Query starts a lazy query over the given table. Nothing touches the
// database until a materializing method (First, All, Count, Slice) is called.
func (s *Session) Query(model *models.Descriptor) *Query {
	return &Query{sess: s, model: model}
}

// Relationship resolves the named relationship of an entity. Collection
// relationships return a lazy *Query filtered to the rows joined to the
// entity; single references return the first matching row (or a nil
// interface when there is none).
func (s *Session) Relationship(ctx context.Context, entity *models.Entity, name string) (interface{}, error) {
	rel, ok := entity.Descriptor().Relationship(name)
	if !ok {
		return nil, fmt.Errorf("%s has no relationship %q", entity.Descriptor().Table, name)
	}
	target, ok := models.Lookup(rel.Target)
	if !ok {
		return nil, fmt.Errorf("unknown relationship target table %q", rel.Target)
	}
	local, _ := entity.Get(rel.LocalColumn)
	if local == nil {
		if rel.Uselist {
			// join value is NULL, the collection is necessarily empty
			return s.Query(target).Where(entsql.ExprP("1 = 0")), nil
		}
		return nil, nil
	}
	query := s.Query(target).Where(entsql.EQ(rel.TargetColumn, local))
	if rel.Uselist {
		return query, nil
	}
	row, err := query.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return row, nil
}
