package domain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
)

// Service defines the artifact generator service interface.
type Service interface {
	// Deploy submits the deploy transaction.
	Deploy(ctx context.Context, caller common.Address, args DeployArgs) (*chain.Receipt, error)

	// Info returns the contract summary.
	Info(ctx context.Context) (*Info, error)

	// Mint mints one token and returns its id.
	Mint(ctx context.Context, caller, to common.Address, uri string) (uint64, *chain.Receipt, error)

	// BatchMint mints one token per recipient and returns the ids in input order.
	BatchMint(ctx context.Context, caller common.Address, to []common.Address, uris []string) ([]uint64, *chain.Receipt, error)

	// ListTokens returns the tokens and URIs of owner.
	ListTokens(ctx context.Context, owner common.Address) (*OwnerTokens, error)

	// GetToken returns a single token.
	GetToken(ctx context.Context, id uint64) (*Token, error)

	// TokenByIndex returns the token at index of the global enumeration.
	TokenByIndex(ctx context.Context, index uint64) (*Token, error)

	// SetBaseURI replaces the URI prefix.
	SetBaseURI(ctx context.Context, caller common.Address, base string) (*chain.Receipt, error)

	// ConcedeMinterRole grants the minter role and pays the stipend.
	ConcedeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error)

	// RevokeMinterRole removes the minter role.
	RevokeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error)

	// SetStipend changes the minter stipend.
	SetStipend(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error)

	// Fund sends native value to the contract.
	Fund(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error)

	// Transfer runs a marketplace transfer.
	Transfer(ctx context.Context, caller common.Address, args TransferArgs, safe bool) (*chain.Receipt, error)

	// Approve approves to for a single token.
	Approve(ctx context.Context, caller, to common.Address, id uint64) (*chain.Receipt, error)

	// SetApprovalForAll sets or clears an operator.
	SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) (*chain.Receipt, error)

	// HasRole reports role membership.
	HasRole(ctx context.Context, role access.Role, account common.Address) (bool, error)

	// RoleMembers lists the accounts holding a role.
	RoleMembers(ctx context.Context, role access.Role) ([]common.Address, error)

	// GrantRole grants a role.
	GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error)

	// RevokeRole revokes a role.
	RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error)

	// RenounceRole drops a role held by caller.
	RenounceRole(ctx context.Context, caller common.Address, role access.Role) (*chain.Receipt, error)

	// SupportsInterface reports ERC-165 support.
	SupportsInterface(ctx context.Context, id [4]byte) (bool, error)
}

// Runtime is the part of the chain runtime the service needs.
type Runtime interface {
	Submit(ctx context.Context, call chain.Call) (*chain.Receipt, error)
	View(fn func())
	Balance(addr common.Address) *uint256.Int
	ContractAddress(name string) (common.Address, bool)
}

// service implements the Service interface.
type service struct {
	rt Runtime
	g  *Generator
}

// NewService creates a new artifact generator service.
func NewService(rt Runtime, g *Generator) Service {
	return &service{rt: rt, g: g}
}

func (s *service) submit(ctx context.Context, caller common.Address, method string, value *uint256.Int, args any) (*chain.Receipt, error) {
	call := chain.Call{
		Contract: ContractName,
		Method:   method,
		Caller:   caller,
		Value:    value,
	}
	if args != nil {
		call.Args = chain.EncodeArgs(args)
	}
	return s.rt.Submit(ctx, call)
}

// view runs fn under the runtime read lock once the contract is deployed.
// fn must not call back into the runtime.
func (s *service) view(fn func() error) error {
	var err error
	s.rt.View(func() {
		if !s.g.Deployed() {
			err = fmt.Errorf("%w: %s", chain.ErrNotDeployed, ContractName)
			return
		}
		err = fn()
	})
	return err
}

// Deploy submits the deploy transaction.
func (s *service) Deploy(ctx context.Context, caller common.Address, args DeployArgs) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodDeploy, nil, args)
}

// Info returns the contract summary.
func (s *service) Info(ctx context.Context) (*Info, error) {
	addr, _ := s.rt.ContractAddress(ContractName)
	var info *Info
	err := s.view(func() error {
		info = &Info{
			Address:       addr,
			Name:          s.g.Name(),
			Symbol:        s.g.Symbol(),
			BaseURI:       s.g.BaseURI(),
			TotalSupply:   s.g.Registry().TotalSupply(),
			NextTokenID:   s.g.NextTokenID(),
			StipendAmount: s.g.StipendAmount().Dec(),
			Admin:         s.g.Admin(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	info.Balance = s.rt.Balance(addr).Dec()
	return info, nil
}

// Mint mints one token and returns its id.
func (s *service) Mint(ctx context.Context, caller, to common.Address, uri string) (uint64, *chain.Receipt, error) {
	receipt, err := s.submit(ctx, caller, MethodMint, nil, MintArgs{To: to, URI: uri})
	if err != nil {
		return 0, receipt, err
	}
	metrics.ArtifactMint("single", 1)
	id, _ := receipt.Result.(uint64)
	return id, receipt, nil
}

// BatchMint mints one token per recipient and returns the ids in input order.
func (s *service) BatchMint(ctx context.Context, caller common.Address, to []common.Address, uris []string) ([]uint64, *chain.Receipt, error) {
	receipt, err := s.submit(ctx, caller, MethodBatchMint, nil, BatchMintArgs{To: to, URIs: uris})
	if err != nil {
		return nil, receipt, err
	}
	ids, _ := receipt.Result.([]uint64)
	metrics.ArtifactMint("batch", len(ids))
	return ids, receipt, nil
}

// ListTokens returns the tokens and URIs of owner.
func (s *service) ListTokens(ctx context.Context, owner common.Address) (*OwnerTokens, error) {
	var out *OwnerTokens
	err := s.view(func() error {
		balance, err := s.g.Registry().BalanceOf(owner)
		if err != nil {
			return err
		}
		out = &OwnerTokens{
			Owner:   owner,
			Balance: balance,
			IDs:     s.g.ListTokenIDs(owner),
			URIs:    s.g.ListTokenURIs(owner),
		}
		return nil
	})
	return out, err
}

// GetToken returns a single token.
func (s *service) GetToken(ctx context.Context, id uint64) (*Token, error) {
	var token *Token
	err := s.view(func() error {
		var err error
		token, err = s.token(id)
		return err
	})
	return token, err
}

// TokenByIndex returns the token at index of the global enumeration.
func (s *service) TokenByIndex(ctx context.Context, index uint64) (*Token, error) {
	var token *Token
	err := s.view(func() error {
		id, err := s.g.Registry().TokenByIndex(index)
		if err != nil {
			return err
		}
		token, err = s.token(id)
		return err
	})
	return token, err
}

func (s *service) token(id uint64) (*Token, error) {
	owner, err := s.g.Registry().OwnerOf(id)
	if err != nil {
		return nil, err
	}
	uri, err := s.g.TokenURI(id)
	if err != nil {
		return nil, err
	}
	approved, err := s.g.Registry().GetApproved(id)
	if err != nil {
		return nil, err
	}
	return &Token{ID: id, Owner: owner, URI: uri, Approved: approved}, nil
}

// SetBaseURI replaces the URI prefix.
func (s *service) SetBaseURI(ctx context.Context, caller common.Address, base string) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodSetBaseURI, nil, BaseURIArgs{BaseURI: base})
}

// ConcedeMinterRole grants the minter role and pays the stipend.
func (s *service) ConcedeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	receipt, err := s.submit(ctx, caller, MethodConcedeMinterRole, nil, AccountArgs{Account: account})
	switch {
	case err == nil:
		metrics.MinterStipend("paid", stipendPaid(receipt))
	case receipt != nil && !receipt.Succeeded():
		metrics.MinterStipend("reverted", 0)
	}
	return receipt, err
}

// stipendPaid returns the wei amount of the StipendPaid event in receipt.
func stipendPaid(receipt *chain.Receipt) float64 {
	for _, l := range receipt.Logs {
		if l.Name != "StipendPaid" {
			continue
		}
		if v, err := uint256.FromDecimal(l.Fields["amount"]); err == nil {
			return v.Float64()
		}
	}
	return 0
}

// RevokeMinterRole removes the minter role.
func (s *service) RevokeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodRevokeMinterRole, nil, AccountArgs{Account: account})
}

// SetStipend changes the minter stipend.
func (s *service) SetStipend(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodSetETHAmount, nil, AmountArgs{Amount: amount.Dec()})
}

// Fund sends native value to the contract.
func (s *service) Fund(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodFund, amount, nil)
}

// Transfer runs a marketplace transfer.
func (s *service) Transfer(ctx context.Context, caller common.Address, args TransferArgs, safe bool) (*chain.Receipt, error) {
	method := MethodTransferFrom
	if safe {
		method = MethodSafeTransferFrom
	}
	receipt, err := s.submit(ctx, caller, method, nil, args)
	if receipt != nil {
		metrics.RestrictedTransfer(receipt.Status)
	}
	return receipt, err
}

// Approve approves to for a single token.
func (s *service) Approve(ctx context.Context, caller, to common.Address, id uint64) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodApprove, nil, ApproveArgs{To: to, TokenID: id})
}

// SetApprovalForAll sets or clears an operator.
func (s *service) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodSetApprovalForAll, nil, OperatorArgs{Operator: operator, Approved: approved})
}

// HasRole reports role membership.
func (s *service) HasRole(ctx context.Context, role access.Role, account common.Address) (bool, error) {
	var ok bool
	err := s.view(func() error {
		ok = s.g.HasRole(role, account)
		return nil
	})
	return ok, err
}

// RoleMembers lists the accounts holding a role.
func (s *service) RoleMembers(ctx context.Context, role access.Role) ([]common.Address, error) {
	var members []common.Address
	err := s.view(func() error {
		members = s.g.RoleMembers(role)
		return nil
	})
	return members, err
}

// GrantRole grants a role.
func (s *service) GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodGrantRole, nil, RoleArgs{Role: role, Account: account})
}

// RevokeRole revokes a role.
func (s *service) RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodRevokeRole, nil, RoleArgs{Role: role, Account: account})
}

// RenounceRole drops a role held by caller.
func (s *service) RenounceRole(ctx context.Context, caller common.Address, role access.Role) (*chain.Receipt, error) {
	return s.submit(ctx, caller, MethodRenounceRole, nil, RoleArgs{Role: role, Account: caller})
}

// SupportsInterface reports ERC-165 support.
func (s *service) SupportsInterface(ctx context.Context, id [4]byte) (bool, error) {
	var ok bool
	err := s.view(func() error {
		ok = s.g.SupportsInterface(id)
		return nil
	})
	return ok, err
}
