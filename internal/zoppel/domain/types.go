// Package domain contains the Zoppel token contract and the service that
// submits its transactions.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// TransferArgs are the arguments of transfer.
type TransferArgs struct {
	To     common.Address `json:"to"`
	Amount string         `json:"amount"`
}

// ApproveArgs are the arguments of approve.
type ApproveArgs struct {
	Spender common.Address `json:"spender"`
	Amount  string         `json:"amount"`
}

// TransferFromArgs are the arguments of transferFrom.
type TransferFromArgs struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount string         `json:"amount"`
}

// PermitCallArgs are the JSON arguments of permit.
type PermitCallArgs struct {
	Owner    common.Address `json:"owner"`
	Spender  common.Address `json:"spender"`
	Value    string         `json:"value"`
	Deadline string         `json:"deadline"`
	V        uint8          `json:"v"`
	R        common.Hash    `json:"r"`
	S        common.Hash    `json:"s"`
}

// OwnerArgs are the arguments of transferOwnership.
type OwnerArgs struct {
	NewOwner common.Address `json:"newOwner"`
}

// Info summarizes the deployed token.
type Info struct {
	Address         common.Address
	Name            string
	Symbol          string
	Decimals        uint8
	TotalSupply     string
	MaxSupply       string
	Owner           common.Address
	DomainSeparator common.Hash
	Domain          Domain
}
