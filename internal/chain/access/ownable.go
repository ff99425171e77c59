package access

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/zoppel/internal/chain"
)

// ErrInvalidOwner is returned when ownership would move to the zero address.
var ErrInvalidOwner = errors.New("ownable invalid owner")

// OwnableUnauthorizedAccountError reports a caller that is not the owner.
type OwnableUnauthorizedAccountError struct {
	Account common.Address
}

func (e *OwnableUnauthorizedAccountError) Error() string {
	return fmt.Sprintf("OwnableUnauthorizedAccount(%s)", e.Account.Hex())
}

func (e *OwnableUnauthorizedAccountError) Unwrap() error {
	return ErrUnauthorizedAccount
}

// Ownable tracks a single owner account.
type Ownable struct {
	owner common.Address
}

// Owner returns the current owner, the zero address once renounced.
func (o *Ownable) Owner() common.Address {
	return o.owner
}

// CheckOwner returns an error unless account is the owner.
func (o *Ownable) CheckOwner(account common.Address) error {
	if account != o.owner {
		return &OwnableUnauthorizedAccountError{Account: account}
	}
	return nil
}

// Init sets the first owner.
func (o *Ownable) Init(tx *chain.Tx, owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrInvalidOwner
	}
	o.set(tx, owner)
	return nil
}

// TransferOwnership moves ownership to newOwner. Only the owner may call it.
func (o *Ownable) TransferOwnership(tx *chain.Tx, newOwner common.Address) error {
	if err := o.CheckOwner(tx.Caller()); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidOwner
	}
	o.set(tx, newOwner)
	return nil
}

// RenounceOwnership leaves the contract without an owner.
func (o *Ownable) RenounceOwnership(tx *chain.Tx) error {
	if err := o.CheckOwner(tx.Caller()); err != nil {
		return err
	}
	o.set(tx, common.Address{})
	return nil
}

func (o *Ownable) set(tx *chain.Tx, owner common.Address) {
	prev := o.owner
	o.owner = owner
	tx.Journal(chain.ChangeFunc(func() { o.owner = prev }))
	tx.Emit("OwnershipTransferred", map[string]string{
		"previousOwner": prev.Hex(),
		"newOwner":      owner.Hex(),
	})
}
