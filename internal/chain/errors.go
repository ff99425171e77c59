package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Runtime errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownContract   = errors.New("unknown contract")
	ErrNotDeployed       = errors.New("contract not deployed")
	ErrAlreadyDeployed   = errors.New("contract already deployed")
	ErrNonPayable        = errors.New("method is not payable")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrInvalidArgs       = errors.New("invalid call arguments")
	ErrReplayDiverged    = errors.New("replay diverged from recorded history")
)

// InsufficientFundsError is returned when a value transfer exceeds the
// sender's native balance.
type InsufficientFundsError struct {
	Account common.Address
	Balance *uint256.Int
	Needed  *uint256.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: account %s has %s, needs %s", e.Account.Hex(), e.Balance.Dec(), e.Needed.Dec())
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// ArgsError wraps a decoding failure of call arguments.
func ArgsError(method string, err error) error {
	return fmt.Errorf("%w for %s: %v", ErrInvalidArgs, method, err)
}

// DecodeArgs unmarshals JSON call arguments into v. Empty arguments leave v
// untouched.
func DecodeArgs(method string, raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ArgsError(method, err)
	}
	return nil
}

// EncodeArgs marshals call arguments.
func EncodeArgs(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encoding call arguments: %v", err))
	}
	return b
}
