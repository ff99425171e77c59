package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	-- Transaction log
	CREATE TABLE IF NOT EXISTS transactions (
		seq BIGINT PRIMARY KEY,
		hash TEXT NOT NULL UNIQUE,
		contract TEXT NOT NULL,
		method TEXT NOT NULL,
		caller TEXT NOT NULL,
		value NUMERIC(78, 0) NOT NULL DEFAULT 0,
		args TEXT,
		result TEXT,
		status TEXT NOT NULL,
		error TEXT,
		block_number BIGINT NOT NULL,
		timestamp BIGINT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	-- Events of committed transactions
	CREATE TABLE IF NOT EXISTS events (
		tx_seq BIGINT NOT NULL REFERENCES transactions(seq) ON DELETE CASCADE,
		log_index INTEGER NOT NULL,
		tx_hash TEXT NOT NULL,
		block_number BIGINT NOT NULL,
		timestamp BIGINT NOT NULL,
		contract TEXT NOT NULL,
		address TEXT NOT NULL,
		name TEXT NOT NULL,
		fields JSONB NOT NULL,
		PRIMARY KEY (tx_seq, log_index)
	);

	-- API keys
	CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		last_used_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_transactions_contract ON transactions(contract, method);
	CREATE INDEX IF NOT EXISTS idx_transactions_caller ON transactions(LOWER(caller));
	CREATE INDEX IF NOT EXISTS idx_events_contract ON events(contract, name);
	CREATE INDEX IF NOT EXISTS idx_events_tx_hash ON events(LOWER(tx_hash));
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

// AppendTransaction stores a transaction and its events atomically
func (s *PostgresStore) AppendTransaction(ctx context.Context, tx *Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO transactions (seq, hash, contract, method, caller, value, args, result, status, error, block_number, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8, $9, $10, $11, $12)
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::JSONB)
		`, tx.Seq, e.LogIndex, tx.Hash, tx.BlockNumber, tx.Timestamp, e.Contract, e.Address, e.Name, fields)
		if err != nil {
			return fmt.Errorf("inserting event %d of transaction %d: %w", e.LogIndex, tx.Seq, err)
		}
	}

	return dbtx.Commit()
}

const pgTransactionColumns = `seq, hash, contract, method, caller, value::TEXT, args, result, status, error, block_number, timestamp, created_at`

func scanPgTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var tx Transaction
	var args, result, errMsg sql.NullString
	var createdAt time.Time
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
	tx.CreatedAt = createdAt.Format("2006-01-02 15:04:05")
	return &tx, nil
}

// GetTransaction retrieves a transaction and its events by hash
func (s *PostgresStore) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pgTransactionColumns+` FROM transactions WHERE LOWER(hash) = LOWER($1)`, hash)
	tx, err := scanPgTransaction(row)
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
func (s *PostgresStore) ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error) {
	w, order, err := transactionWhere(postgresPlaceholder, filter, pagination)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(pagination)
	query := `SELECT ` + pgTransactionColumns + ` FROM transactions` + w.String() +
		` ORDER BY seq ` + order + ` LIMIT ` + w.next(limit+1)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanPgTransaction(rows)
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
func (s *PostgresStore) LastSeq(ctx context.Context) (int64, bool, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM transactions").Scan(&seq); err != nil {
		return 0, false, err
	}
	return seq.Int64, seq.Valid, nil
}

// ListEvents lists events in emission order
func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter, pagination PaginationParams) (*PaginatedResult[Event], error) {
	w, err := eventWhere(postgresPlaceholder, filter, pagination)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(pagination)
	query := `SELECT tx_seq, log_index, tx_hash, block_number, timestamp, contract, address, name, fields::TEXT FROM events` +
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
func (s *PostgresStore) CreateAPIKey(ctx context.Context, name, address string) (string, error) {
	key := generateAPIKey()
	hash := hashAPIKey(key)
	_, err := s.db.ExecContext(ctx, "INSERT INTO api_keys (id, key_hash, name, address) VALUES ($1, $2, $3, $4)", generateID(), hash, name, address)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key
func (s *PostgresStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	hash := hashAPIKey(key)
	var ak APIKey
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT id, key_hash, name, address, created_at FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL", hash).Scan(
		&ak.ID, &ak.KeyHash, &ak.Name, &ak.Address, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ak.CreatedAt = createdAt.Format("2006-01-02 15:04:05")

	// Update last used
	_, _ = s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = NOW() WHERE id = $1", ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all API keys
func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, address, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var createdAt time.Time
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.Address, &createdAt, &lastUsed); err != nil {
			return nil, err
		}
		k.CreatedAt = createdAt.Format("2006-01-02 15:04:05")
		if lastUsed.Valid {
			k.LastUsedAt = lastUsed.Time.Format("2006-01-02 15:04:05")
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key
func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
