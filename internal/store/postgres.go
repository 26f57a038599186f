package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// Postgres persists credentials in a users table.
type Postgres struct {
	sql     *sql.DB
	compare Comparator
}

var _ CredentialStore = (*Postgres)(nil)

// OpenPostgres connects, pings, and ensures the schema exists. A nil
// comparator means PlainComparator. Schema creation is idempotent, so
// every process start may call it, concurrent first starts included.
func OpenPostgres(connStr string, cmp Comparator) (*Postgres, error) {
	if cmp == nil {
		cmp = PlainComparator{}
	}

	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	p := &Postgres{sql: s, compare: cmp}
	if err := p.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.sql.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		secret TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`
	if _, err := p.sql.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Register inserts the credential. Atomicity under concurrent
// registrations of the same username comes from the UNIQUE constraint,
// not application-level locking.
func (p *Postgres) Register(ctx context.Context, username, secret string) error {
	encoded, err := p.compare.Encode(secret)
	if err != nil {
		return err
	}

	_, err = p.sql.ExecContext(ctx,
		"INSERT INTO users (username, secret, created_at) VALUES ($1, $2, $3)",
		username, encoded, time.Now(),
	)
	return mapRegisterError(err)
}

// mapRegisterError translates a unique-constraint violation into
// ErrUsernameTaken and passes everything else through.
func mapRegisterError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrUsernameTaken
	}
	return err
}

// Validate looks up the stored secret and compares. Pure read.
func (p *Postgres) Validate(ctx context.Context, username, secret string) (bool, error) {
	var stored string
	err := p.sql.QueryRowContext(ctx,
		"SELECT secret FROM users WHERE username = $1", username,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.compare.Compare(stored, secret), nil
}
