package httpapi

import (
	"time"

	"github.com/pendergraft/zoppel/internal/chain"
)

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error       ErrorBody        `json:"error"`
	Transaction *ReceiptResponse `json:"transaction,omitempty"`
}

// ErrorBody describes an error.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TransactionResponse is returned by every operation that submits a call.
type TransactionResponse struct {
	Transaction ReceiptResponse `json:"transaction"`
	Result      any             `json:"result,omitempty"`
}

// ReceiptResponse is the wire form of a receipt.
type ReceiptResponse struct {
	Seq         uint64        `json:"seq"`
	Hash        string        `json:"hash"`
	Contract    string        `json:"contract"`
	Method      string        `json:"method"`
	Caller      string        `json:"caller"`
	Value       string        `json:"value"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	BlockNumber uint64        `json:"blockNumber"`
	Timestamp   time.Time     `json:"timestamp"`
	Logs        []LogResponse `json:"logs"`
}

// LogResponse is the wire form of an event.
type LogResponse struct {
	Index    int               `json:"index"`
	Contract string            `json:"contract"`
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields"`
}

// Pagination provides pagination metadata.
type Pagination struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor"`
}

// NewReceipt converts a receipt to its wire form.
func NewReceipt(r *chain.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		Seq:         r.Seq,
		Hash:        r.Hash.Hex(),
		Contract:    r.Contract,
		Method:      r.Method,
		Caller:      r.Caller.Hex(),
		Value:       "0",
		Status:      r.Status,
		BlockNumber: r.BlockNumber,
		Timestamp:   r.Timestamp.UTC(),
		Logs:        make([]LogResponse, 0, len(r.Logs)),
	}
	if r.Value != nil {
		resp.Value = r.Value.Dec()
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	for _, l := range r.Logs {
		resp.Logs = append(resp.Logs, LogResponse{
			Index:    l.Index,
			Contract: l.Contract,
			Address:  l.Address.Hex(),
			Name:     l.Name,
			Fields:   l.Fields,
		})
	}
	return resp
}
