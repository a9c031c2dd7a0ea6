package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a student session token stays valid.
const DefaultTTL = 24 * time.Hour

// tokenBytes gives 128 bits of entropy per token.
const tokenBytes = 16

// Token is an issued session token and its expiry.
type Token struct {
	Value     string
	StudentID int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store issues and validates opaque student session tokens.
//
// Every login adds a row; rows are never refreshed and expired ones are only
// removed by PurgeExpired.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a token store. Non-positive ttl means DefaultTTL and a nil
// now means time.Now.
func NewStore(db *sql.DB, ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, ttl: ttl, now: now}
}

// Create issues a new token for studentID.
func (s *Store) Create(ctx context.Context, studentID int64) (Token, error) {
	value, err := newToken()
	if err != nil {
		return Token{}, err
	}
	created := s.now().UTC()
	tok := Token{
		Value:     value,
		StudentID: studentID,
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (student_id, session_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, tok.StudentID, tok.Value, tok.CreatedAt, tok.ExpiresAt)
	if err != nil {
		return Token{}, fmt.Errorf("create session: %w", err)
	}
	return tok, nil
}

// Validate returns the student bound to token. ok is false both for unknown
// and for expired tokens; err is reserved for store failures.
func (s *Store) Validate(ctx context.Context, token string) (studentID int64, ok bool, err error) {
	if token == "" {
		return 0, false, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id FROM sessions
		WHERE session_token = $1 AND expires_at > $2
		LIMIT 1
	`, token, s.now().UTC())
	if err := row.Scan(&studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("validate session: %w", err)
	}
	return studentID, true, nil
}

// PurgeExpired deletes sessions whose expiry has passed. It is only run on
// operator request.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
