package domain

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Head summarizes the chain.
type Head struct {
	ChainID      uint64
	BlockNumber  uint64
	BlockTime    time.Time
	Transactions uint64
	Contracts    map[string]common.Address
}

// Transaction is a recorded call and its outcome.
type Transaction struct {
	Seq         uint64
	Hash        string
	Contract    string
	Method      string
	Caller      string
	Value       string
	Args        json.RawMessage
	Result      json.RawMessage
	Status      string
	Error       string
	BlockNumber uint64
	Timestamp   time.Time
	Events      []Event
}

// Event is a log emitted by a committed transaction.
type Event struct {
	TxSeq       uint64
	TxHash      string
	LogIndex    int
	BlockNumber uint64
	Timestamp   time.Time
	Contract    string
	Address     string
	Name        string
	Fields      map[string]string
}

// TransactionFilter contains filter options for listing transactions.
type TransactionFilter struct {
	Contract  string
	Method    string
	Caller    string
	Status    string
	Ascending bool
}

// EventFilter contains filter options for listing events.
type EventFilter struct {
	Contract string
	Name     string
	TxHash   string
}

// PaginationParams contains pagination options.
type PaginationParams struct {
	Limit  int
	Cursor string
}

// TransactionList is a page of transactions.
type TransactionList struct {
	Transactions []Transaction
	HasMore      bool
	NextCursor   string
}

// EventList is a page of events.
type EventList struct {
	Events     []Event
	HasMore    bool
	NextCursor string
}
