package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Common errors returned by the Zoppel token.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidSender         = errors.New("invalid sender")
	ErrInvalidReceiver       = errors.New("invalid receiver")
	ErrInvalidApprover       = errors.New("invalid approver")
	ErrInvalidSpender        = errors.New("invalid spender")
	ErrExpiredSignature      = errors.New("permit signature expired")
	ErrInvalidSigner         = errors.New("permit signer is not the owner")
	ErrInvalidSignature      = errors.New("malformed signature")
)

// InsufficientBalanceError reports a transfer above the sender balance.
type InsufficientBalanceError struct {
	Sender  common.Address
	Balance *uint256.Int
	Needed  *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("ERC20InsufficientBalance(%s, %s, %s)", e.Sender.Hex(), e.Balance.Dec(), e.Needed.Dec())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InsufficientAllowanceError reports a transferFrom above the allowance.
type InsufficientAllowanceError struct {
	Spender   common.Address
	Allowance *uint256.Int
	Needed    *uint256.Int
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("ERC20InsufficientAllowance(%s, %s, %s)", e.Spender.Hex(), e.Allowance.Dec(), e.Needed.Dec())
}

func (e *InsufficientAllowanceError) Unwrap() error { return ErrInsufficientAllowance }

// AddressError reports a zero address where an account is required.
type AddressError struct {
	Kind    error
	Name    string
	Address common.Address
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s(%s)", e.Name, e.Address.Hex())
}

func (e *AddressError) Unwrap() error { return e.Kind }

// ExpiredSignatureError reports a permit past its deadline.
type ExpiredSignatureError struct {
	Deadline *uint256.Int
}

func (e *ExpiredSignatureError) Error() string {
	return fmt.Sprintf("ERC2612ExpiredSignature(%s)", e.Deadline.Dec())
}

func (e *ExpiredSignatureError) Unwrap() error { return ErrExpiredSignature }

// InvalidSignerError reports a permit signed by someone other than the owner.
type InvalidSignerError struct {
	Signer common.Address
	Owner  common.Address
}

func (e *InvalidSignerError) Error() string {
	return fmt.Sprintf("ERC2612InvalidSigner(%s, %s)", e.Signer.Hex(), e.Owner.Hex())
}

func (e *InvalidSignerError) Unwrap() error { return ErrInvalidSigner }
