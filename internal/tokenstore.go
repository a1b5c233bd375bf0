package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	user_json     TEXT NOT NULL,
	access_token  TEXT NOT NULL,
	refresh_token TEXT,
	token_type    TEXT,
	expiry        INTEGER,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
)`

// StoredSession is one persisted login.
type StoredSession struct {
	ID           string
	User         User
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token converts the stored credentials into an oauth2 token.
func (s *StoredSession) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// SetToken copies refreshed credentials back onto the record.
func (s *StoredSession) SetToken(tok *oauth2.Token) {
	s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		s.TokenType = tok.TokenType
	}
	s.Expiry = tok.Expiry
}

// TokenStore keeps sessions and their tokens in SQLite.
type TokenStore struct {
	db   *sql.DB
	path string
}

// OpenTokenStore opens (and creates) the session database at path.
func OpenTokenStore(path string) (*TokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	store, err := NewTokenStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.path = path
	return store, nil
}

// NewTokenStore wraps an already opened database and applies the schema.
func NewTokenStore(db *sql.DB) (*TokenStore, error) {
	if _, err := db.Exec(sessionsSchema); err != nil {
		return nil, &StorageError{Path: ":db", Op: "migrate", Err: err}
	}
	return &TokenStore{db: db, path: ":db"}, nil
}

// Close releases the database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a session.
func (s *TokenStore) Save(ctx context.Context, sess *StoredSession) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Wrap(err, "failed to encode user")
	}

	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	var expiry sql.NullInt64
	if !sess.Expiry.IsZero() {
		expiry = sql.NullInt64{Int64: sess.Expiry.Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_json, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_json = excluded.user_json,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at`,
		sess.ID, string(userJSON), sess.AccessToken, sess.RefreshToken, sess.TokenType,
		expiry, sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
	)
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Load returns the session with the given id, or ErrNoSession.
func (s *TokenStore) Load(ctx context.Context, id string) (*StoredSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_json, access_token, refresh_token, token_type, expiry, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var (
		sess         StoredSession
		userJSON     string
		refreshToken sql.NullString
		tokenType    sql.NullString
		expiry       sql.NullInt64
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(&sess.ID, &userJSON, &sess.AccessToken, &refreshToken, &tokenType, &expiry, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: errors.Wrap(err, "corrupt user record")}
	}
	sess.RefreshToken = refreshToken.String
	sess.TokenType = tokenType.String
	if expiry.Valid {
		sess.Expiry = time.Unix(expiry.Int64, 0).UTC()
	}
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *TokenStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *TokenStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	return n, nil
}
