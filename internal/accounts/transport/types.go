// Package transport provides HTTP request/response types for native accounts.
package transport

import (
	"github.com/pendergraft/zoppel/internal/accounts/domain"
)

// SendRequest is the HTTP request body for a native value transfer.
type SendRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// AccountResponse is the response for an account query.
type AccountResponse struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Nonce    uint64 `json:"nonce"`
	Contract string `json:"contract,omitempty"`
}

// FromAccount converts domain.Account to AccountResponse.
func FromAccount(a *domain.Account) AccountResponse {
	return AccountResponse{
		Address:  a.Address.Hex(),
		Balance:  a.Balance.Dec(),
		Nonce:    a.Nonce,
		Contract: a.Contract,
	}
}
