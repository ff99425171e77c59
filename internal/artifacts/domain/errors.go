package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Common errors returned by the artifact generator.
var (
	ErrNonexistentToken     = errors.New("nonexistent token")
	ErrInvalidOwner         = errors.New("invalid owner")
	ErrInvalidSender        = errors.New("invalid sender")
	ErrInvalidReceiver      = errors.New("invalid receiver")
	ErrIncorrectOwner       = errors.New("incorrect owner")
	ErrInsufficientApproval = errors.New("insufficient approval")
	ErrInvalidApprover      = errors.New("invalid approver")
	ErrInvalidOperator      = errors.New("invalid operator")
	ErrOutOfBoundsIndex     = errors.New("index out of bounds")
	ErrLengthMismatch       = errors.New("recipients and uris length mismatch")
	ErrOutOfFunds           = errors.New("out of funds")
)

// NonexistentTokenError reports a token id that was never minted.
type NonexistentTokenError struct {
	TokenID uint64
}

func (e *NonexistentTokenError) Error() string {
	return fmt.Sprintf("ERC721NonexistentToken(%d)", e.TokenID)
}

func (e *NonexistentTokenError) Unwrap() error { return ErrNonexistentToken }

// AddressError reports an address rejected by a token operation. Kind is one
// of the package sentinels.
type AddressError struct {
	Kind    error
	Name    string
	Address common.Address
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s(%s)", e.Name, e.Address.Hex())
}

func (e *AddressError) Unwrap() error { return e.Kind }

func invalidOwner(a common.Address) error {
	return &AddressError{Kind: ErrInvalidOwner, Name: "ERC721InvalidOwner", Address: a}
}

func invalidSender(a common.Address) error {
	return &AddressError{Kind: ErrInvalidSender, Name: "ERC721InvalidSender", Address: a}
}

func invalidReceiver(a common.Address) error {
	return &AddressError{Kind: ErrInvalidReceiver, Name: "ERC721InvalidReceiver", Address: a}
}

func invalidApprover(a common.Address) error {
	return &AddressError{Kind: ErrInvalidApprover, Name: "ERC721InvalidApprover", Address: a}
}

func invalidOperator(a common.Address) error {
	return &AddressError{Kind: ErrInvalidOperator, Name: "ERC721InvalidOperator", Address: a}
}

// IncorrectOwnerError reports a transfer whose from is not the token owner.
type IncorrectOwnerError struct {
	Sender  common.Address
	TokenID uint64
	Owner   common.Address
}

func (e *IncorrectOwnerError) Error() string {
	return fmt.Sprintf("ERC721IncorrectOwner(%s, %d, %s)", e.Sender.Hex(), e.TokenID, e.Owner.Hex())
}

func (e *IncorrectOwnerError) Unwrap() error { return ErrIncorrectOwner }

// InsufficientApprovalError reports an operator that may not move a token.
type InsufficientApprovalError struct {
	Operator common.Address
	TokenID  uint64
}

func (e *InsufficientApprovalError) Error() string {
	return fmt.Sprintf("ERC721InsufficientApproval(%s, %d)", e.Operator.Hex(), e.TokenID)
}

func (e *InsufficientApprovalError) Unwrap() error { return ErrInsufficientApproval }

// OutOfBoundsIndexError reports an enumeration index past the end.
type OutOfBoundsIndexError struct {
	Owner common.Address
	Index uint64
}

func (e *OutOfBoundsIndexError) Error() string {
	return fmt.Sprintf("ERC721OutOfBoundsIndex(%s, %d)", e.Owner.Hex(), e.Index)
}

func (e *OutOfBoundsIndexError) Unwrap() error { return ErrOutOfBoundsIndex }

// LengthMismatchError reports batch inputs of different lengths.
type LengthMismatchError struct {
	Recipients int
	URIs       int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("recipients and uris length mismatch: %d != %d", e.Recipients, e.URIs)
}

func (e *LengthMismatchError) Unwrap() error { return ErrLengthMismatch }

// OutOfFundsError reports a contract balance below the minter stipend.
type OutOfFundsError struct {
	Balance *uint256.Int
	Needed  *uint256.Int
}

func (e *OutOfFundsError) Error() string {
	return fmt.Sprintf("out of funds: contract holds %s wei, stipend is %s wei", e.Balance.Dec(), e.Needed.Dec())
}

func (e *OutOfFundsError) Unwrap() error { return ErrOutOfFunds }
