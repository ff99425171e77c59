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
	MethodTransfer          = "transfer"
	MethodApprove           = "approve"
	MethodTransferFrom      = "transferFrom"
	MethodPermit            = "permit"
	MethodTransferOwnership = "transferOwnership"
	MethodRenounceOwnership = "renounceOwnership"
)

type handler struct {
	t *Token
}

// NewHandler returns the runtime handler executing t's methods.
func NewHandler(t *Token) chain.Handler {
	return &handler{t: t}
}

// Payable reports false: the token accepts no native value.
func (h *handler) Payable(string) bool { return false }

func (h *handler) Apply(tx *chain.Tx, method string, raw json.RawMessage) (any, error) {
	if method == MethodDeploy {
		return h.t.Deploy(tx)
	}
	if !h.t.deployed {
		return nil, fmt.Errorf("%w: %s", chain.ErrNotDeployed, ContractName)
	}

	switch method {
	case MethodTransfer:
		var args TransferArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		amount, err := parseAmount(method, args.Amount)
		if err != nil {
			return nil, err
		}
		return true, h.t.Transfer(tx, args.To, amount)

	case MethodApprove:
		var args ApproveArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		amount, err := parseAmount(method, args.Amount)
		if err != nil {
			return nil, err
		}
		return true, h.t.Approve(tx, args.Spender, amount)

	case MethodTransferFrom:
		var args TransferFromArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		amount, err := parseAmount(method, args.Amount)
		if err != nil {
			return nil, err
		}
		return true, h.t.TransferFrom(tx, args.From, args.To, amount)

	case MethodPermit:
		var args PermitCallArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		value, err := parseAmount(method, args.Value)
		if err != nil {
			return nil, err
		}
		deadline, err := parseAmount(method, args.Deadline)
		if err != nil {
			return nil, err
		}
		return nil, h.t.Permit(tx, PermitArgs{
			Owner:     args.Owner,
			Spender:   args.Spender,
			Value:     value,
			Deadline:  deadline,
			Signature: Signature{V: args.V, R: args.R, S: args.S},
		})

	case MethodTransferOwnership:
		var args OwnerArgs
		if err := chain.DecodeArgs(method, raw, &args); err != nil {
			return nil, err
		}
		return nil, h.t.TransferOwnership(tx, args.NewOwner)

	case MethodRenounceOwnership:
		return nil, h.t.RenounceOwnership(tx)
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
