package postdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ohmynofan/tipverse/pkg/utils"
)

var ErrNotFound = errors.New("post not found")

// Record is a schemaless post document as written by the feed.
type Record struct {
	ID   string
	Data map[string]any
}

// Store keeps post documents as JSON blobs. Only the author and creation time
// are lifted into columns for filtering and ordering.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS posts (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        data TEXT NOT NULL
    )`)
	return err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Create(data map[string]any) (string, error) {
	scope := "[Create] Error :"
	id, err := utils.GenerateRandomHex(10)
	if err != nil {
		return "", fmt.Errorf("%s %w", scope, err)
	}
	blob, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%s failed to encode post: %w", scope, err)
	}

	userID, _ := data["userId"].(string)
	var createdAt int64
	if ts, ok := data["createdAt"].(map[string]any); ok {
		switch v := ts["seconds"].(type) {
		case int64:
			createdAt = v
		case float64:
			createdAt = int64(v)
		case int:
			createdAt = int64(v)
		}
	}

	if _, err := s.db.Exec(`INSERT INTO posts(id, user_id, created_at, data) VALUES(?, ?, ?, ?)`,
		id, userID, createdAt, string(blob)); err != nil {
		return "", fmt.Errorf("%s failed to insert post: %w", scope, err)
	}
	return id, nil
}

func (s *Store) Get(id string) (Record, error) {
	var blob string
	err := s.db.QueryRow(`SELECT data FROM posts WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	return decode(id, blob)
}

// List returns the newest posts first.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(`SELECT id, data FROM posts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

func (s *Store) ListByUser(userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(`SELECT id, data FROM posts WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
}

// AddTip bumps the tip counter kept on the post document.
func (s *Store) AddTip(id string) error {
	res, err := s.db.Exec(`UPDATE posts SET data = json_set(data, '$.tips', COALESCE(json_extract(data, '$.tips'), 0) + 1) WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) query(stmt string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id, blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		rec, err := decode(id, blob)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decode(id, blob string) (Record, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return Record{}, fmt.Errorf("failed to decode post %s: %w", id, err)
	}
	return Record{ID: id, Data: data}, nil
}
