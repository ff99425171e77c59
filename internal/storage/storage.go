package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pendergraft/zoppel/internal/config"
)

// TransactionStore handles the append-only transaction log
type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, hash string) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error)
	LastSeq(ctx context.Context) (int64, bool, error)
}

// EventStore handles event log queries
type EventStore interface {
	ListEvents(ctx context.Context, filter EventFilter, pagination PaginationParams) (*PaginatedResult[Event], error)
}

// APIKeyStore handles API key operations
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, name, address string) (key string, err error)
	ValidateAPIKey(ctx context.Context, key string) (*APIKey, error)
	ListAPIKeys(ctx context.Context) ([]APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// Store combines all storage interfaces with lifecycle methods.
// Domain services define their own minimal interfaces based on their actual usage.
type Store interface {
	TransactionStore
	EventStore
	APIKeyStore

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Transaction is a persisted call and its outcome
type Transaction struct {
	Seq         int64
	Hash        string
	Contract    string
	Method      string
	Caller      string
	Value       string // decimal wei
	Args        []byte // JSON
	Result      []byte // JSON
	Status      string // "success" or "reverted"
	Error       string
	BlockNumber int64
	Timestamp   int64 // unix seconds
	Events      []Event
	CreatedAt   string
}

// Event is a log emitted by a committed transaction
type Event struct {
	TxSeq       int64
	TxHash      string
	LogIndex    int
	BlockNumber int64
	Timestamp   int64
	Contract    string
	Address     string
	Name        string
	Fields      map[string]string
}

// APIKey represents an API key bound to an account address
type APIKey struct {
	ID         string
	Name       string
	KeyHash    string
	Address    string
	CreatedAt  string
	LastUsedAt string
	RevokedAt  string
}

// TransactionFilter contains filter options for listing transactions
type TransactionFilter struct {
	Contract string
	Method   string
	Caller   string
	Status   string
	// Ascending lists oldest first; the default is newest first.
	Ascending bool
}

// EventFilter contains filter options for listing events
type EventFilter struct {
	Contract string
	Name     string
	TxHash   string
}

// PaginationParams contains pagination options
type PaginationParams struct {
	Limit  int
	Cursor string
}

// PaginatedResult contains paginated results
type PaginatedResult[T any] struct {
	Data       []T
	HasMore    bool
	NextCursor string
	PrevCursor string
}

// New creates a new store based on configuration
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
