// Package persistence is the PostgreSQL store behind the pipeline. All
// writers are upserts on stable keys so every stage stays idempotent.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// DB wraps the connection pool and the per-table repositories.
type DB struct {
	db        *sql.DB
	articles  *ArticleRepo
	clusters  *ClusterRepo
	published *PublishedRepo
	lock      *RunLockRepo
}

// New opens and verifies a PostgreSQL connection.
func New(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		db:        db,
		articles:  &ArticleRepo{db: db},
		clusters:  &ClusterRepo{db: db},
		published: &PublishedRepo{db: db},
		lock:      &RunLockRepo{db: db},
	}, nil
}

func (d *DB) Articles() *ArticleRepo    { return d.articles }
func (d *DB) Clusters() *ClusterRepo    { return d.clusters }
func (d *DB) Published() *PublishedRepo { return d.published }
func (d *DB) RunLock() *RunLockRepo     { return d.lock }

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// formatVector renders an embedding in pgvector literal form: "[0.1,0.2,...]".
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, val := range embedding {
		parts[i] = fmt.Sprintf("%f", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector reads the pgvector literal form back into a slice.
func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		if _, err := fmt.Sscanf(strings.TrimSpace(f), "%f", &out[i]); err != nil {
			return nil, fmt.Errorf("bad vector component %q: %w", f, err)
		}
	}
	return out, nil
}

// isUndefinedTable reports whether err is Postgres' 42P01 (relation missing).
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}

// nullTime maps a *time.Time onto sql.NullTime.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
