// Package domain serves the recorded transaction log and chain head.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/storage"
	"github.com/pendergraft/zoppel/internal/validation"
)

// Common errors returned by the explorer service.
var (
	ErrNotFound      = errors.New("transaction not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Service defines the explorer service interface.
type Service interface {
	// Head returns the chain summary.
	Head(ctx context.Context) (*Head, error)

	// GetTransaction returns a transaction and its events by hash.
	GetTransaction(ctx context.Context, hash string) (*Transaction, error)

	// ListTransactions lists recorded transactions, newest first by default.
	ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*TransactionList, error)

	// ListEvents lists committed events in emission order.
	ListEvents(ctx context.Context, filter EventFilter, pagination PaginationParams) (*EventList, error)
}

// Store is the storage the explorer reads from.
type Store interface {
	GetTransaction(ctx context.Context, hash string) (*storage.Transaction, error)
	ListTransactions(ctx context.Context, filter storage.TransactionFilter, pagination storage.PaginationParams) (*storage.PaginatedResult[storage.Transaction], error)
	ListEvents(ctx context.Context, filter storage.EventFilter, pagination storage.PaginationParams) (*storage.PaginatedResult[storage.Event], error)
}

// Chain is the part of the runtime the explorer reads from.
type Chain interface {
	Head() chain.Head
}

// service implements the Service interface.
type service struct {
	store Store
	chain Chain
}

// NewService creates a new explorer service.
func NewService(store Store, c Chain) Service {
	return &service{store: store, chain: c}
}

// Head returns the chain summary.
func (s *service) Head(ctx context.Context) (*Head, error) {
	h := s.chain.Head()
	return &Head{
		ChainID:      h.ChainID,
		BlockNumber:  h.BlockNumber,
		BlockTime:    h.BlockTime,
		Transactions: h.NextSeq,
		Contracts:    h.Contracts,
	}, nil
}

// GetTransaction returns a transaction and its events by hash.
func (s *service) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	if _, err := validation.ParseHash(hash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	rec, err := s.store.GetTransaction(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	tx := fromStorageTransaction(rec)
	return &tx, nil
}

// ListTransactions lists recorded transactions, newest first by default.
func (s *service) ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*TransactionList, error) {
	switch filter.Status {
	case "", chain.StatusSuccess, chain.StatusReverted:
	default:
		return nil, fmt.Errorf("%w: status must be %s or %s", ErrInvalidFilter, chain.StatusSuccess, chain.StatusReverted)
	}
	if filter.Caller != "" {
		if err := validation.ValidateAddress(filter.Caller); err != nil {
			return nil, fmt.Errorf("%w: caller: %v", ErrInvalidFilter, err)
		}
	}

	result, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		Contract:  filter.Contract,
		Method:    filter.Method,
		Caller:    filter.Caller,
		Status:    filter.Status,
		Ascending: filter.Ascending,
	}, storage.PaginationParams{
		Limit:  pagination.Limit,
		Cursor: pagination.Cursor,
	})
	if err != nil {
		return nil, listError("listing transactions", err)
	}

	out := &TransactionList{
		Transactions: make([]Transaction, 0, len(result.Data)),
		HasMore:      result.HasMore,
		NextCursor:   result.NextCursor,
	}
	for i := range result.Data {
		out.Transactions = append(out.Transactions, fromStorageTransaction(&result.Data[i]))
	}
	return out, nil
}

// ListEvents lists committed events in emission order.
func (s *service) ListEvents(ctx context.Context, filter EventFilter, pagination PaginationParams) (*EventList, error) {
	if filter.TxHash != "" {
		if _, err := validation.ParseHash(filter.TxHash); err != nil {
			return nil, fmt.Errorf("%w: tx: %v", ErrInvalidFilter, err)
		}
	}

	result, err := s.store.ListEvents(ctx, storage.EventFilter{
		Contract: filter.Contract,
		Name:     filter.Name,
		TxHash:   filter.TxHash,
	}, storage.PaginationParams{
		Limit:  pagination.Limit,
		Cursor: pagination.Cursor,
	})
	if err != nil {
		return nil, listError("listing events", err)
	}

	out := &EventList{
		Events:     make([]Event, 0, len(result.Data)),
		HasMore:    result.HasMore,
		NextCursor: result.NextCursor,
	}
	for _, e := range result.Data {
		out.Events = append(out.Events, fromStorageEvent(e))
	}
	return out, nil
}

func listError(op string, err error) error {
	if errors.Is(err, storage.ErrInvalidCursor) {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromStorageTransaction(rec *storage.Transaction) Transaction {
	tx := Transaction{
		Seq:         uint64(rec.Seq),
		Hash:        rec.Hash,
		Contract:    rec.Contract,
		Method:      rec.Method,
		Caller:      rec.Caller,
		Value:       rec.Value,
		Args:        rec.Args,
		Result:      rec.Result,
		Status:      rec.Status,
		Error:       rec.Error,
		BlockNumber: uint64(rec.BlockNumber),
		Timestamp:   time.Unix(rec.Timestamp, 0).UTC(),
	}
	for _, e := range rec.Events {
		tx.Events = append(tx.Events, fromStorageEvent(e))
	}
	return tx
}

func fromStorageEvent(e storage.Event) Event {
	return Event{
		TxSeq:       uint64(e.TxSeq),
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
		BlockNumber: uint64(e.BlockNumber),
		Timestamp:   time.Unix(e.Timestamp, 0).UTC(),
		Contract:    e.Contract,
		Address:     e.Address,
		Name:        e.Name,
		Fields:      e.Fields,
	}
}
