package domain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
)

// Service defines the Zoppel token service interface.
type Service interface {
	// Deploy submits the deploy transaction.
	Deploy(ctx context.Context, caller common.Address) (*chain.Receipt, error)

	// Info returns the token summary.
	Info(ctx context.Context) (*Info, error)

	// BalanceOf returns the balance of account.
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)

	// Allowance returns the remaining allowance of spender over owner.
	Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error)

	// Nonces returns the next permit nonce of owner.
	Nonces(ctx context.Context, owner common.Address) (uint64, error)

	// Transfer moves tokens from caller.
	Transfer(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error)

	// Approve sets an allowance for spender.
	Approve(ctx context.Context, caller, spender common.Address, amount *uint256.Int) (*chain.Receipt, error)

	// TransferFrom moves tokens using caller's allowance.
	TransferFrom(ctx context.Context, caller, from, to common.Address, amount *uint256.Int) (*chain.Receipt, error)

	// Permit submits a signed approval. Anyone may relay it.
	Permit(ctx context.Context, caller common.Address, args PermitArgs) (*chain.Receipt, error)

	// TransferOwnership hands the owner role to newOwner.
	TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*chain.Receipt, error)

	// RenounceOwnership leaves the token without owner.
	RenounceOwnership(ctx context.Context, caller common.Address) (*chain.Receipt, error)
}

// Runtime is the part of the chain runtime the service needs.
type Runtime interface {
	Submit(ctx context.Context, call chain.Call) (*chain.Receipt, error)
	View(fn func())
}

// service implements the Service interface.
type service struct {
	rt Runtime
	t  *Token
}

// NewService creates a new Zoppel token service.
func NewService(rt Runtime, t *Token) Service {
	return &service{rt: rt, t: t}
}

func (s *service) submit(ctx context.Context, caller common.Address, method string, args any) (*chain.Receipt, error) {
	call := chain.Call{
		Contract: ContractName,
		Method:   method,
		Caller:   caller,
	}
	if args != nil {
		call.Args = chain.EncodeArgs(args)
	}
	return s.rt.Submit(ctx, call)
}

func (s *service) view(fn func()) error {
	var err error
	s.rt.View(func() {
		if !s.t.Deployed() {
			err = fmt.Errorf("%w: %s", chain.ErrNotDeployed, ContractName)
			return
		}
		fn()
	})
	return err
}

// Deploy submits the deploy transaction.
func (s *service) Deploy(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	receipt, err := s.submit(ctx, caller, MethodDeploy, nil)
	if err != nil {
		return receipt, err
	}
	whole := new(uint256.Int).Div(MaxSupply, new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals)))
	metrics.ZoppelSupply(float64(whole.Uint64()))
	return receipt, nil
}

// Info returns the token summary.
func (s *service) Info(ctx context.Context) (*Info, error) {
	var info *Info
	err := s.view(func() {
		domain := s.t.Domain()
		info = &Info{
			Address:         s.t.Address(),
			Name:            Name,
			Symbol:          Symbol,
			Decimals:        Decimals,
			TotalSupply:     s.t.TotalSupply().Dec(),
			MaxSupply:       MaxSupply.Dec(),
			Owner:           s.t.Owner(),
			DomainSeparator: domain.Separator(),
			Domain:          domain,
		}
	})
	return info, err
}

// BalanceOf returns the balance of account.
func (s *service) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := s.view(func() { balance = s.t.BalanceOf(account) })
	return balance, err
}

// Allowance returns the remaining allowance of spender over owner.
func (s *service) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	var allowance *uint256.Int
	err := s.view(func() { allowance = s.t.Allowance(owner, spender) })
	return allowance, err
}

// Nonces returns the next permit nonce of owner.
func (s *service) Nonces(ctx context.Context, owner common.Address) (uint64, error) {
	var nonce uint64
	err := s.view(func() { nonce = s.t.Nonces(owner) })
	return nonce, err
}

// Transfer moves tokens from caller.
func (s *service) Transfer(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodTransfer, TransferArgs{To: to, Amount: amount.Dec()})
}

// Approve sets an allowance for spender.
func (s *service) Approve(ctx context.Context, caller, spender common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodApprove, ApproveArgs{Spender: spender, Amount: amount.Dec()})
}

// TransferFrom moves tokens using caller's allowance.
func (s *service) TransferFrom(ctx context.Context, caller, from, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodTransferFrom, TransferFromArgs{From: from, To: to, Amount: amount.Dec()})
}

// Permit submits a signed approval. Anyone may relay it.
func (s *service) Permit(ctx context.Context, caller common.Address, args PermitArgs) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodPermit, PermitCallArgs{
		Owner:    args.Owner,
		Spender:  args.Spender,
		Value:    args.Value.Dec(),
		Deadline: args.Deadline.Dec(),
		V:        args.V,
		R:        args.R,
		S:        args.S,
	})
}

// TransferOwnership hands the owner role to newOwner.
func (s *service) TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodTransferOwnership, OwnerArgs{NewOwner: newOwner})
}

// RenounceOwnership leaves the token without owner.
func (s *service) RenounceOwnership(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodRenounceOwnership, nil)
}
