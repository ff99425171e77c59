// Package domain exposes native balances and value transfers of the chain
// runtime.
package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
)

// Account describes the native state of an address.
type Account struct {
	Address common.Address
	Balance *uint256.Int
	Nonce   uint64
	// Contract is the name of the contract deployed at Address, if any.
	Contract string
}

// Service defines the accounts service interface.
type Service interface {
	// Get returns the native balance and nonce of addr.
	Get(ctx context.Context, addr common.Address) (*Account, error)

	// Send moves amount of the native unit from caller to to.
	Send(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error)
}

// Runtime is the part of the chain runtime the service needs.
type Runtime interface {
	Submit(ctx context.Context, call chain.Call) (*chain.Receipt, error)
	Balance(addr common.Address) *uint256.Int
	Nonce(addr common.Address) uint64
	ContractAt(addr common.Address) (string, bool)
}

// service implements the Service interface.
type service struct {
	rt Runtime
}

// NewService creates a new accounts service.
func NewService(rt Runtime) Service {
	return &service{rt: rt}
}

// Get returns the native balance and nonce of addr.
func (s *service) Get(ctx context.Context, addr common.Address) (*Account, error) {
	name, _ := s.rt.ContractAt(addr)
	return &Account{
		Address:  addr,
		Balance:  s.rt.Balance(addr),
		Nonce:    s.rt.Nonce(addr),
		Contract: name,
	}, nil
}

// Send moves amount of the native unit from caller to to.
func (s *service) Send(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.rt.Submit(ctx, chain.Call{
		Contract: chain.NativeContract,
		Method:   chain.MethodSend,
		Caller:   caller,
		Value:    amount,
		Args:     chain.EncodeArgs(chain.SendArgs{To: to}),
	})
}
