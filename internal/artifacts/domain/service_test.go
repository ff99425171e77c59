package domain

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	"github.com/pendergraft/zoppel/internal/chain/chaintest"
)

const baseURI = "https://example.com/metadata/"

type fixture struct {
	ctx    context.Context
	rt     *chain.Runtime
	log    *chaintest.MemoryLog
	g      *Generator
	svc    Service
	admin  common.Address
	minter common.Address
	market common.Address
	user   common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		admin:  chaintest.NewAddress("admin"),
		minter: chaintest.NewAddress("minter"),
		market: chaintest.NewAddress("market"),
		user:   chaintest.NewAddress("user"),
	}
	f.rt, f.log = chaintest.NewRuntime(f.admin, f.minter, f.market, f.user)
	f.g = NewGenerator()
	f.rt.Register(ContractName, NewHandler(f.g))
	f.svc = NewService(f.rt, f.g)

	_, err := f.svc.Deploy(f.ctx, f.admin, DeployArgs{
		Name:         "Artifacts",
		Symbol:       "ART",
		BaseURI:      baseURI,
		Marketplaces: []common.Address{f.market},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) contract() common.Address {
	addr, _ := f.rt.ContractAddress(ContractName)
	return addr
}

func (f *fixture) mint(t *testing.T, to common.Address, uri string) uint64 {
	t.Helper()
	id, _, err := f.svc.Mint(f.ctx, f.admin, to, uri)
	require.NoError(t, err)
	return id
}

func TestDeploy(t *testing.T) {
	f := newFixture(t)

	info, err := f.svc.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.contract(), info.Address)
	assert.Equal(t, "Artifacts", info.Name)
	assert.Equal(t, "ART", info.Symbol)
	assert.Equal(t, baseURI, info.BaseURI)
	assert.Equal(t, DefaultStipend.Dec(), info.StipendAmount)
	assert.Equal(t, f.admin, info.Admin)
	assert.Equal(t, "0", info.Balance)

	assert.True(t, f.g.HasRole(DefaultAdminRole, f.admin))
	assert.True(t, f.g.HasRole(MinterRole, f.admin))
	assert.True(t, f.g.HasRole(MarketplaceRole, f.market))
	assert.False(t, f.g.HasRole(MinterRole, f.minter))
	assert.Equal(t, DefaultAdminRole, f.g.RoleAdmin(MinterRole))
	assert.Equal(t, DefaultAdminRole, f.g.RoleAdmin(MarketplaceRole))

	_, err = f.svc.Deploy(f.ctx, f.admin, DeployArgs{})
	assert.ErrorIs(t, err, chain.ErrAlreadyDeployed)
}

func TestNotDeployed(t *testing.T) {
	admin := chaintest.NewAddress("admin")
	rt, _ := chaintest.NewRuntime(admin)
	g := NewGenerator()
	rt.Register(ContractName, NewHandler(g))
	svc := NewService(rt, g)

	_, err := svc.Info(context.Background())
	assert.ErrorIs(t, err, chain.ErrNotDeployed)

	_, _, err = svc.Mint(context.Background(), admin, admin, "uri")
	assert.ErrorIs(t, err, chain.ErrNotDeployed)
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, uint64(0), f.mint(t, f.user, "uri1"))
	assert.Equal(t, uint64(1), f.mint(t, f.user, "uri2"))

	token, err := f.svc.GetToken(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/metadata/uri1", token.URI)
	assert.Equal(t, f.user, token.Owner)

	token, err = f.svc.GetToken(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/metadata/uri2", token.URI)

	tokens, err := f.svc.ListTokens(f.ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tokens.Balance)
	assert.Equal(t, []uint64{0, 1}, tokens.IDs)
	assert.Equal(t, []string{baseURI + "uri1", baseURI + "uri2"}, tokens.URIs)
}

func TestMintEmitsEvents(t *testing.T) {
	f := newFixture(t)

	_, receipt, err := f.svc.Mint(f.ctx, f.admin, f.user, "uri1")
	require.NoError(t, err)

	require.Len(t, receipt.Logs, 2)
	assert.Equal(t, "Transfer", receipt.Logs[0].Name)
	assert.Equal(t, common.Address{}.Hex(), receipt.Logs[0].Fields["from"])
	assert.Equal(t, f.user.Hex(), receipt.Logs[0].Fields["to"])
	assert.Equal(t, "0", receipt.Logs[0].Fields["tokenId"])
	assert.Equal(t, "MetadataUpdate", receipt.Logs[1].Name)
}

func TestMintIsSequentialAcrossMinters(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.admin, chaintest.Ether(1))
	require.NoError(t, err)
	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)

	ids := []uint64{}
	for i, caller := range []common.Address{f.admin, f.minter, f.admin, f.minter} {
		id, _, err := f.svc.Mint(f.ctx, caller, f.user, "u")
		require.NoError(t, err, "mint %d", i)
		ids = append(ids, id)
	}

	assert.Equal(t, []uint64{0, 1, 2, 3}, ids)
	assert.Equal(t, uint64(4), f.g.NextTokenID())
}

func TestMintRequiresMinter(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.user, "uri1")

	_, receipt, err := f.svc.Mint(f.ctx, f.user, f.user, "uri2")

	var unauthorized *access.UnauthorizedAccountError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, f.user, unauthorized.Account)
	assert.Equal(t, MinterRole, unauthorized.Role)
	require.NotNil(t, receipt)
	assert.Equal(t, chain.StatusReverted, receipt.Status)

	tokens, err := f.svc.ListTokens(f.ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokens.Balance)
	assert.Equal(t, uint64(1), f.g.NextTokenID())
}

func TestMintToZeroAddress(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Mint(f.ctx, f.admin, common.Address{}, "uri")

	assert.ErrorIs(t, err, ErrInvalidReceiver)
	assert.Equal(t, uint64(0), f.g.NextTokenID())
}

func TestBatchMint(t *testing.T) {
	f := newFixture(t)
	other := chaintest.NewAddress("other")

	ids, _, err := f.svc.BatchMint(f.ctx, f.admin,
		[]common.Address{f.user, other, f.user},
		[]string{"a", "b", "c"},
	)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, ids)

	tokens, err := f.svc.ListTokens(f.ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, tokens.IDs)
	assert.Equal(t, []string{baseURI + "a", baseURI + "c"}, tokens.URIs)

	tokens, err = f.svc.ListTokens(f.ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, tokens.IDs)
}

func TestBatchMintLengthMismatch(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.BatchMint(f.ctx, f.admin, []common.Address{f.user}, []string{"a", "b"})

	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.Equal(t, 1, mismatch.Recipients)
	assert.Equal(t, 2, mismatch.URIs)
}

func TestBatchMintEmpty(t *testing.T) {
	f := newFixture(t)

	ids, receipt, err := f.svc.BatchMint(f.ctx, f.admin, []common.Address{}, []string{})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
	assert.True(t, receipt.Succeeded())
	assert.Empty(t, receipt.Logs)
	assert.Equal(t, uint64(0), f.g.NextTokenID())

	_, _, err = f.svc.BatchMint(f.ctx, f.user, nil, nil)
	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)
}

func TestBatchMintIsAtomic(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.BatchMint(f.ctx, f.admin,
		[]common.Address{f.user, common.Address{}},
		[]string{"a", "b"},
	)
	require.ErrorIs(t, err, ErrInvalidReceiver)

	tokens, err := f.svc.ListTokens(f.ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, tokens.IDs)
	assert.Equal(t, uint64(0), tokens.Balance)
	assert.Equal(t, uint64(0), f.g.Registry().TotalSupply())
	assert.Equal(t, uint64(0), f.g.NextTokenID())
}

func TestBatchMintRequiresMinter(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.BatchMint(f.ctx, f.user, []common.Address{f.user}, []string{"a"})
	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)
}

func TestSetBaseURIIsRetroactive(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.user, "uri1")
	f.mint(t, f.user, "uri2")

	receipt, err := f.svc.SetBaseURI(f.ctx, f.admin, "ipfs://cid/")
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, "BatchMetadataUpdate", receipt.Logs[0].Name)

	tokens, err := f.svc.ListTokens(f.ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, []string{"ipfs://cid/uri1", "ipfs://cid/uri2"}, tokens.URIs)

	f.mint(t, f.user, "uri3")
	token, err := f.svc.GetToken(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/uri3", token.URI)
}

func TestSetBaseURIRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetBaseURI(f.ctx, f.market, "ipfs://cid/")

	var unauthorized *access.UnauthorizedAccountError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, DefaultAdminRole, unauthorized.Role)
	assert.Equal(t, baseURI, f.g.BaseURI())
}

func TestEmptyBaseURI(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetBaseURI(f.ctx, f.admin, "")
	require.NoError(t, err)
	f.mint(t, f.user, "ipfs://full")

	uri, err := f.g.TokenURI(0)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://full", uri)
}

func TestGetTokenNonexistent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetToken(f.ctx, 7)

	var nonexistent *NonexistentTokenError
	require.ErrorAs(t, err, &nonexistent)
	assert.Equal(t, uint64(7), nonexistent.TokenID)
}

func TestConcedeMinterRoleOutOfFunds(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)

	var outOfFunds *OutOfFundsError
	require.ErrorAs(t, err, &outOfFunds)
	assert.ErrorIs(t, err, ErrOutOfFunds)
	assert.True(t, outOfFunds.Balance.IsZero())
	assert.Equal(t, DefaultStipend, outOfFunds.Needed)
	require.NotNil(t, receipt)
	assert.Empty(t, receipt.Logs)

	has, err := f.svc.HasRole(f.ctx, MinterRole, f.minter)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestConcedeMinterRolePaysStipend(t *testing.T) {
	f := newFixture(t)
	funding := new(uint256.Int).Mul(DefaultStipend, uint256.NewInt(3))
	_, err := f.svc.Fund(f.ctx, f.user, funding)
	require.NoError(t, err)
	before := f.rt.Balance(f.minter)

	receipt, err := f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)

	names := []string{}
	for _, l := range receipt.Logs {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"RoleGranted", "StipendPaid"}, names)

	has, err := f.svc.HasRole(f.ctx, MinterRole, f.minter)
	require.NoError(t, err)
	assert.True(t, has)

	members, err := f.svc.RoleMembers(f.ctx, MinterRole)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{f.admin, f.minter}, members)

	paid := new(uint256.Int).Sub(f.rt.Balance(f.minter), before)
	assert.Equal(t, DefaultStipend, paid)
	assert.Equal(t, new(uint256.Int).Sub(funding, DefaultStipend), f.rt.Balance(f.contract()))

	// The stipend is paid again when the account already holds the role.
	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Sub(funding, new(uint256.Int).Mul(DefaultStipend, uint256.NewInt(2))), f.rt.Balance(f.contract()))
}

func TestConcedeMinterRoleRequiresMinter(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.user, chaintest.Ether(1))
	require.NoError(t, err)

	_, err = f.svc.ConcedeMinterRole(f.ctx, f.user, f.user)

	var unauthorized *access.UnauthorizedAccountError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, MinterRole, unauthorized.Role)
	assert.Equal(t, chaintest.Ether(1), f.rt.Balance(f.contract()))
}

func TestMinterDelegationChain(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.user, chaintest.Ether(1))
	require.NoError(t, err)
	delegate := chaintest.NewAddress("delegate")

	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)

	// A conceded minter can delegate further without admin rights.
	_, err = f.svc.ConcedeMinterRole(f.ctx, f.minter, delegate)
	require.NoError(t, err)
	assert.Equal(t, DefaultStipend, f.rt.Balance(delegate))

	// ...and any minter can revoke another.
	_, err = f.svc.RevokeMinterRole(f.ctx, f.minter, delegate)
	require.NoError(t, err)

	has, err := f.svc.HasRole(f.ctx, MinterRole, delegate)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, DefaultStipend, f.rt.Balance(delegate), "stipend is not clawed back")

	_, _, err = f.svc.Mint(f.ctx, delegate, delegate, "u")
	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)
}

func TestRevokeMinterRoleRequiresMinter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RevokeMinterRole(f.ctx, f.user, f.admin)

	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)
	assert.True(t, f.g.HasRole(MinterRole, f.admin))
}

func TestSetStipend(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.user, chaintest.Ether(1))
	require.NoError(t, err)
	amount := uint256.NewInt(12345)

	_, err = f.svc.SetStipend(f.ctx, f.minter, amount)
	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)

	receipt, err := f.svc.SetStipend(f.ctx, f.admin, amount)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, "StipendAmountChanged", receipt.Logs[0].Name)
	assert.Equal(t, amount, f.g.StipendAmount())

	before := f.rt.Balance(f.minter)
	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)
	assert.Equal(t, amount, new(uint256.Int).Sub(f.rt.Balance(f.minter), before))
}

func TestFundByNativeSend(t *testing.T) {
	f := newFixture(t)

	_, err := f.rt.Submit(f.ctx, chain.Call{
		Contract: chain.NativeContract,
		Method:   "send",
		Caller:   f.user,
		Value:    DefaultStipend,
		Args:     chain.EncodeArgs(chain.SendArgs{To: f.contract()}),
	})
	require.NoError(t, err)

	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)
	assert.True(t, f.rt.Balance(f.contract()).IsZero())
}

func TestRestrictedTransfer(t *testing.T) {
	f := newFixture(t)
	buyer := chaintest.NewAddress("buyer")
	id := f.mint(t, f.user, "uri")
	args := TransferArgs{From: f.user, To: buyer, TokenID: id}

	// The owner itself lacks the marketplace role.
	_, err := f.svc.Transfer(f.ctx, f.user, args, false)
	var unauthorized *access.UnauthorizedAccountError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, MarketplaceRole, unauthorized.Role)

	// The marketplace is not approved yet.
	_, err = f.svc.Transfer(f.ctx, f.market, args, false)
	var approval *InsufficientApprovalError
	require.ErrorAs(t, err, &approval)
	assert.Equal(t, f.market, approval.Operator)

	_, err = f.svc.Approve(f.ctx, f.user, f.market, id)
	require.NoError(t, err)

	receipt, err := f.svc.Transfer(f.ctx, f.market, args, false)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, "Transfer", receipt.Logs[0].Name)

	token, err := f.svc.GetToken(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer, token.Owner)
	assert.Equal(t, common.Address{}, token.Approved, "approval is cleared on transfer")
}

func TestRestrictedTransferAsOperator(t *testing.T) {
	f := newFixture(t)
	buyer := chaintest.NewAddress("buyer")
	first := f.mint(t, f.user, "a")
	second := f.mint(t, f.user, "b")

	_, err := f.svc.SetApprovalForAll(f.ctx, f.user, f.market, true)
	require.NoError(t, err)

	for _, id := range []uint64{first, second} {
		_, err := f.svc.Transfer(f.ctx, f.market, TransferArgs{From: f.user, To: buyer, TokenID: id}, true)
		require.NoError(t, err)
	}

	tokens, err := f.svc.ListTokens(f.ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first, second}, tokens.IDs)

	_, err = f.svc.SetApprovalForAll(f.ctx, buyer, f.market, false)
	require.NoError(t, err)
	_, err = f.svc.Transfer(f.ctx, f.market, TransferArgs{From: buyer, To: f.user, TokenID: first}, false)
	assert.ErrorIs(t, err, ErrInsufficientApproval)
}

func TestRestrictedTransferMarketplaceOwnsToken(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, f.market, "uri")

	_, err := f.svc.Transfer(f.ctx, f.market, TransferArgs{From: f.market, To: f.user, TokenID: id}, false)
	require.NoError(t, err)

	token, err := f.svc.GetToken(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.user, token.Owner)
}

func TestRestrictedTransferChecks(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, f.market, "uri")

	tests := []struct {
		name    string
		args    TransferArgs
		safe    bool
		wantErr error
	}{
		{
			name:    "wrong from",
			args:    TransferArgs{From: f.user, To: f.admin, TokenID: id},
			wantErr: ErrIncorrectOwner,
		},
		{
			name:    "zero receiver",
			args:    TransferArgs{From: f.market, To: common.Address{}, TokenID: id},
			wantErr: ErrInvalidReceiver,
		},
		{
			name:    "nonexistent token",
			args:    TransferArgs{From: f.market, To: f.user, TokenID: 99},
			wantErr: ErrNonexistentToken,
		},
		{
			name:    "safe transfer to contract",
			args:    TransferArgs{From: f.market, To: f.contract(), TokenID: id},
			safe:    true,
			wantErr: ErrInvalidReceiver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Transfer(f.ctx, f.market, tt.args, tt.safe)
			assert.ErrorIs(t, err, tt.wantErr)

			token, err := f.svc.GetToken(f.ctx, id)
			require.NoError(t, err)
			assert.Equal(t, f.market, token.Owner)
		})
	}
}

func TestEnumerationSwapAndPop(t *testing.T) {
	f := newFixture(t)
	for _, uri := range []string{"a", "b", "c", "d"} {
		f.mint(t, f.market, uri)
	}

	_, err := f.svc.Transfer(f.ctx, f.market, TransferArgs{From: f.market, To: f.user, TokenID: 0}, false)
	require.NoError(t, err)

	tokens, err := f.svc.ListTokens(f.ctx, f.market)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1, 2}, tokens.IDs)
	assert.Equal(t, []string{baseURI + "d", baseURI + "b", baseURI + "c"}, tokens.URIs)

	id, err := f.g.Registry().TokenOfOwnerByIndex(f.market, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	_, err = f.g.Registry().TokenOfOwnerByIndex(f.market, 3)
	assert.ErrorIs(t, err, ErrOutOfBoundsIndex)

	// The global enumeration keeps mint order.
	token, err := f.svc.TokenByIndex(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), token.ID)
	assert.Equal(t, f.user, token.Owner)

	_, err = f.svc.TokenByIndex(f.ctx, 4)
	assert.ErrorIs(t, err, ErrOutOfBoundsIndex)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, f.user, "uri")

	_, err := f.svc.Approve(f.ctx, f.market, f.market, id)
	assert.ErrorIs(t, err, ErrInvalidApprover)

	_, err = f.svc.SetApprovalForAll(f.ctx, f.user, f.minter, true)
	require.NoError(t, err)

	// An operator may approve on the owner's behalf.
	receipt, err := f.svc.Approve(f.ctx, f.minter, f.market, id)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, f.user.Hex(), receipt.Logs[0].Fields["owner"])

	token, err := f.svc.GetToken(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.market, token.Approved)

	_, err = f.svc.SetApprovalForAll(f.ctx, f.user, common.Address{}, true)
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = f.svc.Approve(f.ctx, f.user, f.market, 42)
	assert.ErrorIs(t, err, ErrNonexistentToken)
}

func TestBalanceOfZeroOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListTokens(f.ctx, common.Address{})
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestGenericRoles(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.user, chaintest.Ether(1))
	require.NoError(t, err)

	_, err = f.svc.GrantRole(f.ctx, f.admin, MinterRole, f.minter)
	require.NoError(t, err)
	assert.True(t, f.rt.Balance(f.contract()).Eq(chaintest.Ether(1)), "grantRole pays no stipend")

	_, err = f.svc.GrantRole(f.ctx, f.minter, MarketplaceRole, f.minter)
	assert.ErrorIs(t, err, access.ErrUnauthorizedAccount)

	_, err = f.svc.RenounceRole(f.ctx, f.minter, MinterRole)
	require.NoError(t, err)
	assert.False(t, f.g.HasRole(MinterRole, f.minter))

	_, err = f.svc.RevokeRole(f.ctx, f.admin, MarketplaceRole, f.market)
	require.NoError(t, err)
	assert.False(t, f.g.HasRole(MarketplaceRole, f.market))

	_, err = f.svc.RevokeRole(f.ctx, f.admin, DefaultAdminRole, f.admin)
	assert.ErrorIs(t, err, access.ErrProtectedAccount)
	_, err = f.svc.RenounceRole(f.ctx, f.admin, DefaultAdminRole)
	assert.ErrorIs(t, err, access.ErrProtectedAccount)
	assert.True(t, f.g.HasRole(DefaultAdminRole, f.admin))
}

func TestSupportsInterface(t *testing.T) {
	f := newFixture(t)

	for _, id := range [][4]byte{
		InterfaceERC165, InterfaceERC721, InterfaceERC721Metadata,
		InterfaceERC721Enumerable, InterfaceERC4906, InterfaceAccessControl,
	} {
		ok, err := f.svc.SupportsInterface(f.ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, "%x", id)
	}

	ok, err := f.svc.SupportsInterface(f.ctx, [4]byte{0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonPayableMethods(t *testing.T) {
	f := newFixture(t)

	_, err := f.rt.Submit(f.ctx, chain.Call{
		Contract: ContractName,
		Method:   MethodMint,
		Caller:   f.admin,
		Value:    uint256.NewInt(1),
		Args:     chain.EncodeArgs(MintArgs{To: f.user, URI: "u"}),
	})
	assert.ErrorIs(t, err, chain.ErrNonPayable)
}

func TestRestoreReproducesState(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Fund(f.ctx, f.user, chaintest.Ether(1))
	require.NoError(t, err)
	_, err = f.svc.ConcedeMinterRole(f.ctx, f.admin, f.minter)
	require.NoError(t, err)
	_, _, err = f.svc.BatchMint(f.ctx, f.minter, []common.Address{f.market, f.market, f.user}, []string{"a", "b", "c"})
	require.NoError(t, err)
	_, err = f.svc.Transfer(f.ctx, f.market, TransferArgs{From: f.market, To: f.user, TokenID: 0}, false)
	require.NoError(t, err)
	_, _, err = f.svc.Mint(f.ctx, f.user, f.user, "nope")
	require.Error(t, err)
	_, err = f.svc.SetBaseURI(f.ctx, f.admin, "ar://")
	require.NoError(t, err)

	alloc := map[common.Address]*uint256.Int{}
	for _, a := range []common.Address{f.admin, f.minter, f.market, f.user} {
		alloc[a] = chaintest.Ether(100)
	}
	rt := chain.New(chain.Config{ChainID: chaintest.ChainID, GenesisTime: chaintest.GenesisTime, Alloc: alloc}, f.log, chaintest.Logger())
	g := NewGenerator()
	rt.Register(ContractName, NewHandler(g))
	_, err = rt.Restore(f.ctx)
	require.NoError(t, err)
	svc := NewService(rt, g)

	for _, owner := range []common.Address{f.market, f.user} {
		want, err := f.svc.ListTokens(f.ctx, owner)
		require.NoError(t, err)
		got, err := svc.ListTokens(f.ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	wantInfo, err := f.svc.Info(f.ctx)
	require.NoError(t, err)
	gotInfo, err := svc.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, wantInfo, gotInfo)
	assert.True(t, g.HasRole(MinterRole, f.minter))
	assert.Equal(t, f.rt.Balance(f.minter), rt.Balance(f.minter))
}
