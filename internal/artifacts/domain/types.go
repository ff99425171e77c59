// Package domain contains the artifact generator contract and the service
// that submits its transactions.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DeployArgs initialize the contract.
type DeployArgs struct {
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	BaseURI      string           `json:"baseURI"`
	Stipend      string           `json:"stipend,omitempty"`
	Minters      []common.Address `json:"minters,omitempty"`
	Marketplaces []common.Address `json:"marketplaces,omitempty"`
}

// MintArgs are the arguments of mint.
type MintArgs struct {
	To  common.Address `json:"to"`
	URI string         `json:"uri"`
}

// BatchMintArgs are the arguments of batchMint.
type BatchMintArgs struct {
	To   []common.Address `json:"to"`
	URIs []string         `json:"uris"`
}

// BaseURIArgs are the arguments of setBaseURI.
type BaseURIArgs struct {
	BaseURI string `json:"baseURI"`
}

// AccountArgs carry a single target account.
type AccountArgs struct {
	Account common.Address `json:"account"`
}

// AmountArgs carry a decimal wei amount.
type AmountArgs struct {
	Amount string `json:"amount"`
}

// TransferArgs are the arguments of the transfer methods.
type TransferArgs struct {
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	TokenID uint64         `json:"tokenId"`
	Data    hexutil.Bytes  `json:"data,omitempty"`
}

// ApproveArgs are the arguments of approve.
type ApproveArgs struct {
	To      common.Address `json:"to"`
	TokenID uint64         `json:"tokenId"`
}

// OperatorArgs are the arguments of setApprovalForAll.
type OperatorArgs struct {
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

// RoleArgs are the arguments of the generic role methods.
type RoleArgs struct {
	Role    common.Hash    `json:"role"`
	Account common.Address `json:"account"`
}

// Info summarizes the deployed contract.
type Info struct {
	Address       common.Address
	Name          string
	Symbol        string
	BaseURI       string
	TotalSupply   uint64
	NextTokenID   uint64
	StipendAmount string
	Balance       string
	Admin         common.Address
}

// Token describes a minted token.
type Token struct {
	ID       uint64
	Owner    common.Address
	URI      string
	Approved common.Address
}

// OwnerTokens lists the tokens of one owner in enumeration order.
type OwnerTokens struct {
	Owner   common.Address
	Balance uint64
	IDs     []uint64
	URIs    []string
}
