// Package transport provides HTTP request/response types for the Zoppel token.
package transport

import (
	"github.com/pendergraft/zoppel/internal/zoppel/domain"
)

// TransferRequest is the HTTP request body for a transfer.
type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// ApproveRequest is the HTTP request body for an approval.
type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// TransferFromRequest is the HTTP request body for a delegated transfer.
type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// PermitRequest is the HTTP request body for relaying a permit.
type PermitRequest struct {
	Owner    string `json:"owner"`
	Spender  string `json:"spender"`
	Value    string `json:"value"`
	Deadline string `json:"deadline"`
	V        uint8  `json:"v"`
	R        string `json:"r"`
	S        string `json:"s"`
}

// OwnerRequest is the HTTP request body for an ownership transfer.
type OwnerRequest struct {
	NewOwner string `json:"newOwner"`
}

// DomainResponse describes the EIP-712 signing domain.
type DomainResponse struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           uint64 `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// InfoResponse is the response for the token summary.
type InfoResponse struct {
	Address         string         `json:"address"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	Decimals        uint8          `json:"decimals"`
	TotalSupply     string         `json:"totalSupply"`
	MaxSupply       string         `json:"maxSupply"`
	Owner           string         `json:"owner"`
	DomainSeparator string         `json:"domainSeparator"`
	Domain          DomainResponse `json:"eip712Domain"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// AllowanceResponse is the response for an allowance query.
type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// NonceResponse is the response for a permit nonce query.
type NonceResponse struct {
	Owner string `json:"owner"`
	Nonce uint64 `json:"nonce"`
}

// FromInfo converts domain.Info to InfoResponse.
func FromInfo(i *domain.Info) InfoResponse {
	return InfoResponse{
		Address:         i.Address.Hex(),
		Name:            i.Name,
		Symbol:          i.Symbol,
		Decimals:        i.Decimals,
		TotalSupply:     i.TotalSupply,
		MaxSupply:       i.MaxSupply,
		Owner:           i.Owner.Hex(),
		DomainSeparator: i.DomainSeparator.Hex(),
		Domain: DomainResponse{
			Name:              i.Domain.Name,
			Version:           i.Domain.Version,
			ChainID:           i.Domain.ChainID,
			VerifyingContract: i.Domain.VerifyingContract.Hex(),
		},
	}
}
