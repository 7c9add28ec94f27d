package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"AgentEscrow/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists vaults and journals to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vaults (
			owner              TEXT NOT NULL,
			session_id         TEXT NOT NULL,
			agent              TEXT NOT NULL,
			fee_recipient      TEXT NOT NULL,
			balance            INTEGER NOT NULL,
			fee_collected      INTEGER NOT NULL,
			compute_fees_paid  INTEGER NOT NULL,
			duration_days      INTEGER NOT NULL,
			status             INTEGER NOT NULL,
			created_at         INTEGER NOT NULL,
			funded_at          INTEGER NOT NULL,
			expires_at         INTEGER NOT NULL,
			last_fee_deduction INTEGER NOT NULL,
			PRIMARY KEY (owner, session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vaults_status ON vaults(status)`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			owner         TEXT NOT NULL,
			session_id    TEXT NOT NULL,
			kind          TEXT NOT NULL,
			from_identity TEXT NOT NULL,
			to_identity   TEXT NOT NULL,
			amount        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_session ON transfers(owner, session_id)`,

		`CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, v *model.Vault, evt model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO vaults
		(owner, session_id, agent, fee_recipient, balance, fee_collected,
		 compute_fees_paid, duration_days, status, created_at, funded_at,
		 expires_at, last_fee_deduction)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		string(v.Owner), v.SessionID.String(), string(v.Agent), string(v.FeeRecipient),
		int64(v.Balance), int64(v.FeeCollected), int64(v.ComputeFeesPaid),
		v.DurationDays, v.Status, v.CreatedAt, v.FundedAt, v.ExpiresAt, v.LastFeeDeduction,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrExists
		}
		return fmt.Errorf("insert vault: %w", err)
	}

	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT
		owner, session_id, agent, fee_recipient, balance, fee_collected,
		compute_fees_paid, duration_days, status, created_at, funded_at,
		expires_at, last_fee_deduction
		FROM vaults WHERE owner = ? AND session_id = ?`,
		string(owner), sessionID.String())
	return scanVault(row)
}

func (s *SQLiteStore) Commit(ctx context.Context, v *model.Vault, transfers []model.Transfer, evt model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE vaults SET
		agent = ?, fee_recipient = ?, balance = ?, fee_collected = ?,
		compute_fees_paid = ?, duration_days = ?, status = ?, created_at = ?,
		funded_at = ?, expires_at = ?, last_fee_deduction = ?
		WHERE owner = ? AND session_id = ?`,
		string(v.Agent), string(v.FeeRecipient), int64(v.Balance), int64(v.FeeCollected),
		int64(v.ComputeFeesPaid), v.DurationDays, v.Status, v.CreatedAt,
		v.FundedAt, v.ExpiresAt, v.LastFeeDeduction,
		string(v.Owner), v.SessionID.String(),
	)
	if err != nil {
		return fmt.Errorf("update vault: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	now := time.Now().Unix()
	for _, tr := range transfers {
		_, err := tx.ExecContext(ctx, `INSERT INTO transfers
			(timestamp, owner, session_id, kind, from_identity, to_identity, amount)
			VALUES (?,?,?,?,?,?,?)`,
			now, string(v.Owner), v.SessionID.String(),
			string(tr.Kind), string(tr.From), string(tr.To), int64(tr.Amount),
		)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
	}

	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListOpen(ctx context.Context) ([]*model.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT
		owner, session_id, agent, fee_recipient, balance, fee_collected,
		compute_fees_paid, duration_days, status, created_at, funded_at,
		expires_at, last_fee_deduction
		FROM vaults WHERE status IN (?, ?)`,
		model.StatusActive, model.StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("list open vaults: %w", err)
	}
	defer rows.Close()

	var open []*model.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		open = append(open, v)
	}
	return open, rows.Err()
}

func (s *SQLiteStore) Transfers(ctx context.Context, owner model.Identity, sessionID model.SessionID) ([]model.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT kind, from_identity, to_identity, amount
		FROM transfers WHERE owner = ? AND session_id = ? ORDER BY id`,
		string(owner), sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []model.Transfer
	for rows.Next() {
		var tr model.Transfer
		var kind, from, to string
		var amount int64
		if err := rows.Scan(&kind, &from, &to, &amount); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		tr.Kind = model.TransferKind(kind)
		tr.From = model.Identity(from)
		tr.To = model.Identity(to)
		tr.Amount = uint64(amount)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

func insertEvent(ctx context.Context, tx *sql.Tx, evt model.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events
		(timestamp, session_id, event_type, payload) VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.Session().String(), evt.EventType(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVault(row rowScanner) (*model.Vault, error) {
	var v model.Vault
	var owner, session, agent, feeRecipient string
	var balance, feeCollected, computeFeesPaid int64
	err := row.Scan(&owner, &session, &agent, &feeRecipient,
		&balance, &feeCollected, &computeFeesPaid,
		&v.DurationDays, &v.Status, &v.CreatedAt, &v.FundedAt,
		&v.ExpiresAt, &v.LastFeeDeduction)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}
	sid, err := model.ParseSessionID(session)
	if err != nil {
		return nil, err
	}
	v.Owner = model.Identity(owner)
	v.SessionID = sid
	v.Agent = model.Identity(agent)
	v.FeeRecipient = model.Identity(feeRecipient)
	v.Balance = uint64(balance)
	v.FeeCollected = uint64(feeCollected)
	v.ComputeFeesPaid = uint64(computeFeesPaid)
	return &v, nil
}
