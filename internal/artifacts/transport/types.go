// Package transport provides HTTP request/response types for the artifacts domain.
package transport

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/zoppel/internal/artifacts/domain"
)

// MintRequest is the HTTP request body for minting one artifact.
type MintRequest struct {
	To  string `json:"to"`
	URI string `json:"uri"`
}

// BatchMintRequest is the HTTP request body for minting several artifacts.
type BatchMintRequest struct {
	To   []string `json:"to"`
	URIs []string `json:"uris"`
}

// BaseURIRequest is the HTTP request body for setting the base URI.
type BaseURIRequest struct {
	BaseURI string `json:"baseUri"`
}

// MinterRequest is the HTTP request body for conceding the minter role.
type MinterRequest struct {
	Account string `json:"account"`
}

// AmountRequest carries a decimal wei amount.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// TransferRequest is the HTTP request body for a marketplace transfer.
type TransferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
	Safe    bool   `json:"safe,omitempty"`
	Data    string `json:"data,omitempty"`
}

// ApproveRequest is the HTTP request body for a single token approval.
type ApproveRequest struct {
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
}

// OperatorRequest is the HTTP request body for setting an operator.
type OperatorRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// RoleRequest is the HTTP request body of the role endpoints. Account is
// ignored by renounce.
type RoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account,omitempty"`
}

// InfoResponse is the response for the contract summary.
type InfoResponse struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	BaseURI       string `json:"baseUri"`
	TotalSupply   uint64 `json:"totalSupply"`
	NextTokenID   uint64 `json:"nextTokenId"`
	StipendAmount string `json:"stipendAmount"`
	Balance       string `json:"balance"`
	Admin         string `json:"admin"`
}

// TokenResponse is the response for a single token.
type TokenResponse struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	URI      string `json:"uri"`
	Approved string `json:"approved,omitempty"`
}

// OwnerTokensResponse is the response for the tokens of an owner.
type OwnerTokensResponse struct {
	Owner   string   `json:"owner"`
	Balance uint64   `json:"balance"`
	IDs     []string `json:"ids"`
	URIs    []string `json:"uris"`
}

// RoleResponse is the response for a role membership query.
type RoleResponse struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	HasRole bool   `json:"hasRole"`
}

// RoleMembersResponse lists the holders of a role.
type RoleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

// InterfaceResponse is the response for an ERC-165 query.
type InterfaceResponse struct {
	InterfaceID string `json:"interfaceId"`
	Supported   bool   `json:"supported"`
}

// MintResult is the result of a mint.
type MintResult struct {
	TokenID string `json:"tokenId"`
}

// BatchMintResult is the result of a batch mint.
type BatchMintResult struct {
	TokenIDs []string `json:"tokenIds"`
}

// FromInfo converts domain.Info to InfoResponse.
func FromInfo(i *domain.Info) InfoResponse {
	return InfoResponse{
		Address:       i.Address.Hex(),
		Name:          i.Name,
		Symbol:        i.Symbol,
		BaseURI:       i.BaseURI,
		TotalSupply:   i.TotalSupply,
		NextTokenID:   i.NextTokenID,
		StipendAmount: i.StipendAmount,
		Balance:       i.Balance,
		Admin:         i.Admin.Hex(),
	}
}

// FromToken converts domain.Token to TokenResponse.
func FromToken(t *domain.Token) TokenResponse {
	resp := TokenResponse{
		ID:    strconv.FormatUint(t.ID, 10),
		Owner: t.Owner.Hex(),
		URI:   t.URI,
	}
	if t.Approved != (common.Address{}) {
		resp.Approved = t.Approved.Hex()
	}
	return resp
}

// FromOwnerTokens converts domain.OwnerTokens to OwnerTokensResponse.
func FromOwnerTokens(o *domain.OwnerTokens) OwnerTokensResponse {
	return OwnerTokensResponse{
		Owner:   o.Owner.Hex(),
		Balance: o.Balance,
		IDs:     formatIDs(o.IDs),
		URIs:    append([]string{}, o.URIs...),
	}
}

func formatIDs(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(id, 10)
	}
	return out
}
