package domain

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
)

// Method names accepted by the handler.
const (
	MethodDeploy            = "deploy"
	MethodMint              = "mint"
	MethodBatchMint         = "batchMint"
	MethodSetBaseURI        = "setBaseURI"
	MethodConcedeMinterRole = "concedeMinterRole"
	MethodRevokeMinterRole  = "revokeMinterRole"
	MethodSetETHAmount      = "setETHAmount"
	MethodFund              = "fund"
	MethodTransferFrom      = "transferFrom"
	MethodSafeTransferFrom  = "safeTransferFrom"
	MethodApprove           = "approve"
	MethodSetApprovalForAll = "setApprovalForAll"
	MethodGrantRole         = "grantRole"
	MethodRevokeRole        = "revokeRole"
	MethodRenounceRole      = "renounceRole"
)

type handler struct {
	g *Generator
}

// NewHandler returns the runtime handler executing g's methods.
func NewHandler(g *Generator) chain.Handler {
	return &handler{g: g}
}

func (h *handler) Payable(method string) bool {
	return method == MethodFund
}

func (h *handler) Apply(tx *chain.Tx, method string, raw json.RawMessage) (any, error) {
	if method == MethodDeploy {
		var args DeployArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return h.g.Deploy(tx, args)
	}
	if !h.g.deployed {
		return nil, fmt.Errorf("%w: %s", chain.ErrNotDeployed, ContractName)
	}

	switch method {
	case MethodMint:
		var args MintArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return h.g.Mint(tx, args.To, args.URI)

	case MethodBatchMint:
		var args BatchMintArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return h.g.BatchMint(tx, args.To, args.URIs)

	case MethodSetBaseURI:
		var args BaseURIArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return nil, h.g.SetBaseURI(tx, args.BaseURI)

	case MethodConcedeMinterRole, MethodRevokeMinterRole:
		var args AccountArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		if method == MethodConcedeMinterRole {
			return nil, h.g.ConcedeMinterRole(tx, args.Account)
		}
		return nil, h.g.RevokeMinterRole(tx, args.Account)

	case MethodSetETHAmount:
		var args AmountArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		amount, err := parseAmount(method, args.Amount)
		if err != nil {
			return nil, err
		}
		return nil, h.g.SetETHAmount(tx, amount)

	case MethodFund:
		h.g.Fund(tx)
		return nil, nil

	case MethodTransferFrom, MethodSafeTransferFrom:
		var args TransferArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		if method == MethodTransferFrom {
			return nil, h.g.TransferFrom(tx, args.From, args.To, args.TokenID)
		}
		return nil, h.g.SafeTransferFrom(tx, args.From, args.To, args.TokenID, args.Data)

	case MethodApprove:
		var args ApproveArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return nil, h.g.Approve(tx, args.To, args.TokenID)

	case MethodSetApprovalForAll:
		var args OperatorArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return nil, h.g.SetApprovalForAll(tx, args.Operator, args.Approved)

	case MethodGrantRole, MethodRevokeRole, MethodRenounceRole:
		var args RoleArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		switch method {
		case MethodGrantRole:
			return nil, h.g.GrantRole(tx, args.Role, args.Account)
		case MethodRevokeRole:
			return nil, h.g.RevokeRole(tx, args.Role, args.Account)
		default:
			return nil, h.g.RenounceRole(tx, args.Role, args.Account)
		}
	}

	return nil, fmt.Errorf("%w: %s.%s", chain.ErrUnknownMethod, ContractName, method)
}

func parseAmount(method, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, chain.ArgsError(method, fmt.Errorf("amount %q: %w", s, err))
	}
	return v, nil
}
