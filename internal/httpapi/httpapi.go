// Package httpapi holds the JSON helpers and error mapping shared by the
// HTTP transports.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	artifacts "github.com/pendergraft/zoppel/internal/artifacts/domain"
	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	explorer "github.com/pendergraft/zoppel/internal/explorer/domain"
	"github.com/pendergraft/zoppel/internal/middleware/logging"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
	"github.com/pendergraft/zoppel/internal/storage"
)

// Page size bounds for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// WriteJSON writes data with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	metrics.APIError(code)
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// DecodeJSON reads a JSON request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Caller returns the account the request acts for and adds it to the
// request log line. It writes a 401 when there is none.
func Caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "caller identity required")
		return common.Address{}, false
	}
	logging.Annotate(r.Context(), "caller", caller.Hex())
	return caller, true
}

// Limit parses the limit query parameter.
func Limit(r *http.Request) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= MaxLimit {
			return parsed
		}
	}
	return DefaultLimit
}

// WriteReceipt writes the receipt of a committed transaction.
func WriteReceipt(w http.ResponseWriter, r *http.Request, status int, receipt *chain.Receipt, result any) {
	annotate(r, receipt)
	WriteJSON(w, status, TransactionResponse{Transaction: NewReceipt(receipt), Result: result})
}

// WriteTxError writes err using the mapping of ErrorCode. A reverted
// receipt is attached so the caller learns the transaction hash.
func WriteTxError(w http.ResponseWriter, r *http.Request, receipt *chain.Receipt, err error) {
	annotate(r, receipt)
	status, code := ErrorCode(err, receipt)
	metrics.APIError(code)
	resp := ErrorResponse{Error: ErrorBody{Code: code, Message: err.Error()}}
	if receipt != nil {
		rr := NewReceipt(receipt)
		resp.Transaction = &rr
	}
	if status == http.StatusInternalServerError {
		resp.Error.Message = "Internal server error"
	}
	WriteJSON(w, status, resp)
}

func annotate(r *http.Request, receipt *chain.Receipt) {
	if receipt == nil {
		return
	}
	logging.Annotate(r.Context(), "tx_hash", receipt.Hash.Hex(), "tx_status", receipt.Status)
}

// Mapping from error sentinels to responses. Earlier entries win.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{access.ErrUnauthorizedAccount, http.StatusForbidden, "UNAUTHORIZED_ACCOUNT"},
	{artifacts.ErrOutOfFunds, http.StatusConflict, "OUT_OF_FUNDS"},
	{artifacts.ErrLengthMismatch, http.StatusBadRequest, "LENGTH_MISMATCH"},
	{artifacts.ErrNonexistentToken, http.StatusNotFound, "NONEXISTENT_TOKEN"},
	{artifacts.ErrOutOfBoundsIndex, http.StatusNotFound, "NOT_FOUND"},
	{explorer.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{explorer.ErrInvalidFilter, http.StatusBadRequest, "INVALID_REQUEST"},
	{storage.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{storage.ErrInvalidCursor, http.StatusBadRequest, "INVALID_REQUEST"},
	{chain.ErrInvalidArgs, http.StatusBadRequest, "INVALID_REQUEST"},
	{chain.ErrNonPayable, http.StatusBadRequest, "INVALID_REQUEST"},
	{chain.ErrUnknownMethod, http.StatusBadRequest, "INVALID_REQUEST"},
	{chain.ErrUnknownContract, http.StatusNotFound, "NOT_FOUND"},
	{chain.ErrNotDeployed, http.StatusNotFound, "NOT_DEPLOYED"},
	{chain.ErrInsufficientFunds, http.StatusConflict, "INSUFFICIENT_FUNDS"},
}

// ErrorCode returns the HTTP status and error code for err. Errors of a
// reverted transaction without a specific mapping are REVERTED; anything
// else is an internal error.
func ErrorCode(err error, receipt *chain.Receipt) (int, string) {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	if receipt != nil && !receipt.Succeeded() {
		return http.StatusUnprocessableEntity, "REVERTED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// WriteServiceError writes the error of a read operation.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code := ErrorCode(err, nil)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	WriteError(w, status, code, message)
}
