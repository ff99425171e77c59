package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	-- Transaction log
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY,
		hash TEXT NOT NULL UNIQUE,
		contract TEXT NOT NULL,
		method TEXT NOT NULL,
		caller TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '0',
		args TEXT,
		result TEXT,
		status TEXT NOT NULL,
		error TEXT,
		block_number INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	-- Events of committed transactions
	CREATE TABLE IF NOT EXISTS events (
		tx_seq INTEGER NOT NULL REFERENCES transactions(seq) ON DELETE CASCADE,
		log_index INTEGER NOT NULL,
		tx_hash TEXT NOT NULL,
		block_number INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		contract TEXT NOT NULL,
		address TEXT NOT NULL,
		name TEXT NOT NULL,
		fields TEXT NOT NULL,
		PRIMARY KEY (tx_seq, log_index)
	);

	-- API keys
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now')),
		last_used_at TEXT,
		revoked_at TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_transactions_contract ON transactions(contract, method);
	CREATE INDEX IF NOT EXISTS idx_transactions_caller ON transactions(caller);
	CREATE INDEX IF NOT EXISTS idx_events_contract ON events(contract, name);
	CREATE INDEX IF NOT EXISTS idx_events_tx_hash ON events(tx_hash);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

// AppendTransaction stores a transaction and its events atomically
func (s *SQLiteStore) AppendTransaction(ctx context.Context, tx *Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO transactions (seq, hash, contract, method, caller, value, args, result, status, error, block_number, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, tx.Seq, tx.Hash, tx.Contract, tx.Method, tx.Caller, tx.Value,
		nullBytes(tx.Args), nullBytes(tx.Result), tx.Status, nullString(tx.Error), tx.BlockNumber, tx.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting transaction %d: %w", tx.Seq, err)
	}

	for _, e := range tx.Events {
		fields, err := encodeFields(e.Fields)
		if err != nil {
			return err
		}
		_, err = dbtx.ExecContext(ctx, `
			INSERT INTO events (tx_seq, log_index, tx_hash, block_number, timestamp, contract, address, name, fields)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, tx.Seq, e.LogIndex, tx.Hash, tx.BlockNumber, tx.Timestamp, e.Contract, e.Address, e.Name, fields)
		if err != nil {
			return fmt.Errorf("inserting event %d of transaction %d: %w", e.LogIndex, tx.Seq, err)
		}
	}

	return dbtx.Commit()
}

const transactionColumns = `seq, hash, contract, method, caller, value, args, result, status, error, block_number, timestamp, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var tx Transaction
	var args, result, errMsg, createdAt sql.NullString
	if err := row.Scan(&tx.Seq, &tx.Hash, &tx.Contract, &tx.Method, &tx.Caller, &tx.Value,
		&args, &result, &tx.Status, &errMsg, &tx.BlockNumber, &tx.Timestamp, &createdAt); err != nil {
		return nil, err
	}
	if args.Valid {
		tx.Args = []byte(args.String)
	}
	if result.Valid {
		tx.Result = []byte(result.String)
	}
	tx.Error = errMsg.String
	tx.CreatedAt = createdAt.String
	return &tx, nil
}

// GetTransaction retrieves a transaction and its events by hash
func (s *SQLiteStore) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE LOWER(hash) = LOWER(?)`, hash)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	events, err := s.ListEvents(ctx, EventFilter{TxHash: tx.Hash}, PaginationParams{Limit: 1 << 20})
	if err != nil {
		return nil, err
	}
	tx.Events = events.Data
	return tx, nil
}

// ListTransactions lists transactions in sequence order with cursor-based pagination
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error) {
	w, order, err := transactionWhere(sqlitePlaceholder, filter, pagination)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(pagination)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + w.String() +
		` ORDER BY seq ` + order + ` LIMIT ` + w.next(limit+1)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(txs, limit, seqCursor), nil
}

// LastSeq returns the highest stored sequence number
func (s *SQLiteStore) LastSeq(ctx context.Context) (int64, bool, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM transactions").Scan(&seq); err != nil {
		return 0, false, err
	}
	return seq.Int64, seq.Valid, nil
}

// ListEvents lists events in emission order
func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter, pagination PaginationParams) (*PaginatedResult[Event], error) {
	w, err := eventWhere(sqlitePlaceholder, filter, pagination)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(pagination)
	query := `SELECT tx_seq, log_index, tx_hash, block_number, timestamp, contract, address, name, fields FROM events` +
		w.String() + ` ORDER BY tx_seq, log_index LIMIT ` + w.next(limit+1)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var fields string
		if err := rows.Scan(&e.TxSeq, &e.LogIndex, &e.TxHash, &e.BlockNumber, &e.Timestamp, &e.Contract, &e.Address, &e.Name, &fields); err != nil {
			return nil, err
		}
		if e.Fields, err = decodeFields(fields); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(events, limit, eventCursor), nil
}

// CreateAPIKey creates a new API key bound to address
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, name, address string) (string, error) {
	key := generateAPIKey()
	hash := hashAPIKey(key)
	id := generateID()
	_, err := s.db.ExecContext(ctx, "INSERT INTO api_keys (id, key_hash, name, address, created_at) VALUES (?, ?, ?, ?, datetime('now'))", id, hash, name, address)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key
func (s *SQLiteStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	hash := hashAPIKey(key)
	var ak APIKey
	err := s.db.QueryRowContext(ctx, "SELECT id, key_hash, name, address, created_at FROM api_keys WHERE key_hash = ? AND revoked_at IS NULL", hash).Scan(
		&ak.ID, &ak.KeyHash, &ak.Name, &ak.Address, &ak.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// Update last used
	_, _ = s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = datetime('now') WHERE id = ?", ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all API keys
func (s *SQLiteStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, address, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullString
		if err := rows.Scan(&k.ID, &k.Name, &k.Address, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsedAt = lastUsed.String
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key
func (s *SQLiteStore) RevokeAPIKey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked_at = datetime('now') WHERE id = ? AND revoked_at IS NULL", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
