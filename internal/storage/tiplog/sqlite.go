package tiplog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ohmynofan/tipverse/internal/domain/model"
)

// Store is the local tip ledger. Every settled tip is one row; XP
// leaderboards and battle rankings are computed from it.
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
	createStmt := `CREATE TABLE IF NOT EXISTS tips (
        id TEXT PRIMARY KEY,
        tx_hash TEXT NOT NULL DEFAULT '',
        from_address TEXT NOT NULL,
        recipient TEXT NOT NULL,
        post_id TEXT NOT NULL DEFAULT '',
        token_symbol TEXT NOT NULL,
        token_address TEXT NOT NULL DEFAULT '',
        amount TEXT NOT NULL,
        chain_id INTEGER NOT NULL DEFAULT 1,
        xp INTEGER NOT NULL DEFAULT 0,
        settled_at INTEGER NOT NULL -- unix millis
    )`
	if _, err := s.db.Exec(createStmt); err != nil {
		return err
	}
	if err := s.ensureColumns(); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS tips_settled_at ON tips(settled_at)`)
	return err
}

func (s *Store) ensureColumns() error {
	columns := map[string]bool{}
	rows, err := s.db.Query(`PRAGMA table_info(tips)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		columns[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	alterStatements := []string{}
	addColumn := func(name, definition string) {
		if !columns[name] {
			alterStatements = append(alterStatements, definition)
		}
	}

	addColumn("recipient_wallet", `ALTER TABLE tips ADD COLUMN recipient_wallet TEXT NOT NULL DEFAULT ''`)
	addColumn("early_bonus", `ALTER TABLE tips ADD COLUMN early_bonus REAL NOT NULL DEFAULT 0`)

	for _, stmt := range alterStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordTip stores a settled tip. Recording the same submission twice keeps
// one row.
func (s *Store) RecordTip(sub model.TipSubmission, receipt model.TipReceipt) error {
	settledAt := receipt.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now()
	}
	xp := receipt.XP
	if xp == 0 {
		xp = sub.ProjectedXP
	}

	_, err := s.db.Exec(`INSERT INTO tips(id, tx_hash, from_address, recipient, recipient_wallet, post_id, token_symbol, token_address, amount, chain_id, early_bonus, xp, settled_at)
    VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(id) DO UPDATE SET tx_hash = excluded.tx_hash, xp = excluded.xp, settled_at = excluded.settled_at`,
		sub.ID, receipt.TxHash, normalizeAddress(sub.From), sub.Recipient.Username, normalizeAddress(sub.Recipient.WalletAddress),
		sub.Content.PostID, sub.Token.Symbol, normalizeAddress(sub.Token.Address), sub.Amount, sub.ChainID,
		sub.EarlyBonus, xp, settledAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record tip %s: %w", sub.ID, err)
	}
	return nil
}

// Leaderboard ranks tippers by XP earned in [since, until]. Ties go to the
// tipper who got there first.
func (s *Store) Leaderboard(since, until time.Time, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT from_address, SUM(xp), COUNT(*) FROM tips
    WHERE settled_at >= ? AND settled_at <= ?
    GROUP BY from_address
    ORDER BY SUM(xp) DESC, MAX(settled_at) ASC
    LIMIT ?`, since.UnixMilli(), until.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Address, &e.XP, &e.Tips); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// TopPosts ranks posts by the number of tips received in [since, until].
func (s *Store) TopPosts(since, until time.Time, limit int) ([]model.PostRanking, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT post_id, MAX(recipient), COUNT(*), SUM(xp) FROM tips
    WHERE post_id != '' AND settled_at >= ? AND settled_at <= ?
    GROUP BY post_id
    ORDER BY COUNT(*) DESC, SUM(xp) DESC, post_id ASC
    LIMIT ?`, since.UnixMilli(), until.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PostRanking
	for rows.Next() {
		var r model.PostRanking
		if err := rows.Scan(&r.PostID, &r.Recipient, &r.Tips, &r.XP); err != nil {
			return nil, err
		}
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// TotalXP is the lifetime XP earned by address.
func (s *Store) TotalXP(address string) (xp int64, tips int, err error) {
	err = s.db.QueryRow(`SELECT COALESCE(SUM(xp), 0), COUNT(*) FROM tips WHERE from_address = ?`, normalizeAddress(address)).
		Scan(&xp, &tips)
	return xp, tips, err
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
