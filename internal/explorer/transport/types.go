// Package transport provides HTTP request/response types for the explorer.
package transport

import (
	"encoding/json"
	"time"

	"github.com/pendergraft/zoppel/internal/explorer/domain"
	"github.com/pendergraft/zoppel/internal/httpapi"
)

// HeadResponse is the response for the chain summary.
type HeadResponse struct {
	ChainID      uint64            `json:"chainId"`
	BlockNumber  uint64            `json:"blockNumber"`
	BlockTime    time.Time         `json:"blockTime"`
	Transactions uint64            `json:"transactions"`
	Contracts    map[string]string `json:"contracts"`
}

// TransactionResponse is the response for a recorded transaction.
type TransactionResponse struct {
	Seq         uint64          `json:"seq"`
	Hash        string          `json:"hash"`
	Contract    string          `json:"contract"`
	Method      string          `json:"method"`
	Caller      string          `json:"caller"`
	Value       string          `json:"value"`
	Args        json.RawMessage `json:"args,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   time.Time       `json:"timestamp"`
	Events      []EventResponse `json:"events,omitempty"`
}

// EventResponse is the response for an event.
type EventResponse struct {
	TxSeq       uint64            `json:"txSeq"`
	TxHash      string            `json:"txHash"`
	LogIndex    int               `json:"logIndex"`
	BlockNumber uint64            `json:"blockNumber"`
	Timestamp   time.Time         `json:"timestamp"`
	Contract    string            `json:"contract"`
	Address     string            `json:"address"`
	Name        string            `json:"name"`
	Fields      map[string]string `json:"fields"`
}

// TransactionListResponse is a page of transactions.
type TransactionListResponse struct {
	Data       []TransactionResponse `json:"data"`
	Pagination httpapi.Pagination    `json:"pagination"`
}

// EventListResponse is a page of events.
type EventListResponse struct {
	Data       []EventResponse    `json:"data"`
	Pagination httpapi.Pagination `json:"pagination"`
}

// FromHead converts domain.Head to HeadResponse.
func FromHead(h *domain.Head) HeadResponse {
	contracts := make(map[string]string, len(h.Contracts))
	for name, addr := range h.Contracts {
		contracts[name] = addr.Hex()
	}
	return HeadResponse{
		ChainID:      h.ChainID,
		BlockNumber:  h.BlockNumber,
		BlockTime:    h.BlockTime.UTC(),
		Transactions: h.Transactions,
		Contracts:    contracts,
	}
}

// FromTransaction converts domain.Transaction to TransactionResponse.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Seq:         tx.Seq,
		Hash:        tx.Hash,
		Contract:    tx.Contract,
		Method:      tx.Method,
		Caller:      tx.Caller,
		Value:       tx.Value,
		Args:        tx.Args,
		Result:      tx.Result,
		Status:      tx.Status,
		Error:       tx.Error,
		BlockNumber: tx.BlockNumber,
		Timestamp:   tx.Timestamp,
	}
	for _, e := range tx.Events {
		resp.Events = append(resp.Events, FromEvent(e))
	}
	return resp
}

// FromEvent converts domain.Event to EventResponse.
func FromEvent(e domain.Event) EventResponse {
	return EventResponse{
		TxSeq:       e.TxSeq,
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
		BlockNumber: e.BlockNumber,
		Timestamp:   e.Timestamp,
		Contract:    e.Contract,
		Address:     e.Address,
		Name:        e.Name,
		Fields:      e.Fields,
	}
}
