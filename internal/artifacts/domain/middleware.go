package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
)

// LoggingMiddleware returns a service middleware that logs all operations.
func LoggingMiddleware(logger *slog.Logger) func(Service) Service {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger *slog.Logger
}

func (m *loggingMiddleware) logTx(op string, start time.Time, caller common.Address, receipt *chain.Receipt, err error, attrs ...any) {
	attrs = append(attrs, "caller", caller.Hex())
	if receipt != nil {
		attrs = append(attrs, "seq", receipt.Seq, "status", receipt.Status)
	}
	attrs = append(attrs, "duration", time.Since(start), "error", err)
	m.logger.Info(op, attrs...)
}

func (m *loggingMiddleware) Deploy(ctx context.Context, caller common.Address, args DeployArgs) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Deploy(ctx, caller, args)
	m.logTx("Deploy", start, caller, receipt, err, "baseURI", args.BaseURI)
	return receipt, err
}

func (m *loggingMiddleware) Info(ctx context.Context) (*Info, error) {
	start := time.Now()
	info, err := m.next.Info(ctx)
	m.logger.Debug("Info",
		"duration", time.Since(start),
		"error", err,
	)
	return info, err
}

func (m *loggingMiddleware) Mint(ctx context.Context, caller, to common.Address, uri string) (uint64, *chain.Receipt, error) {
	start := time.Now()
	id, receipt, err := m.next.Mint(ctx, caller, to, uri)
	m.logTx("Mint", start, caller, receipt, err, "to", to.Hex(), "tokenId", id)
	return id, receipt, err
}

func (m *loggingMiddleware) BatchMint(ctx context.Context, caller common.Address, to []common.Address, uris []string) ([]uint64, *chain.Receipt, error) {
	start := time.Now()
	ids, receipt, err := m.next.BatchMint(ctx, caller, to, uris)
	m.logTx("BatchMint", start, caller, receipt, err, "count", len(to))
	return ids, receipt, err
}

func (m *loggingMiddleware) ListTokens(ctx context.Context, owner common.Address) (*OwnerTokens, error) {
	start := time.Now()
	out, err := m.next.ListTokens(ctx, owner)
	m.logger.Debug("ListTokens",
		"owner", owner.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return out, err
}

func (m *loggingMiddleware) GetToken(ctx context.Context, id uint64) (*Token, error) {
	start := time.Now()
	token, err := m.next.GetToken(ctx, id)
	m.logger.Debug("GetToken",
		"tokenId", id,
		"duration", time.Since(start),
		"error", err,
	)
	return token, err
}

func (m *loggingMiddleware) TokenByIndex(ctx context.Context, index uint64) (*Token, error) {
	start := time.Now()
	token, err := m.next.TokenByIndex(ctx, index)
	m.logger.Debug("TokenByIndex",
		"index", index,
		"duration", time.Since(start),
		"error", err,
	)
	return token, err
}

func (m *loggingMiddleware) SetBaseURI(ctx context.Context, caller common.Address, base string) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.SetBaseURI(ctx, caller, base)
	m.logTx("SetBaseURI", start, caller, receipt, err, "baseURI", base)
	return receipt, err
}

func (m *loggingMiddleware) ConcedeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.ConcedeMinterRole(ctx, caller, account)
	m.logTx("ConcedeMinterRole", start, caller, receipt, err, "account", account.Hex())
	return receipt, err
}

func (m *loggingMiddleware) RevokeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.RevokeMinterRole(ctx, caller, account)
	m.logTx("RevokeMinterRole", start, caller, receipt, err, "account", account.Hex())
	return receipt, err
}

func (m *loggingMiddleware) SetStipend(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.SetStipend(ctx, caller, amount)
	m.logTx("SetStipend", start, caller, receipt, err, "amount", amount.Dec())
	return receipt, err
}

func (m *loggingMiddleware) Fund(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Fund(ctx, caller, amount)
	m.logTx("Fund", start, caller, receipt, err, "amount", amount.Dec())
	return receipt, err
}

func (m *loggingMiddleware) Transfer(ctx context.Context, caller common.Address, args TransferArgs, safe bool) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Transfer(ctx, caller, args, safe)
	m.logTx("Transfer", start, caller, receipt, err,
		"from", args.From.Hex(),
		"to", args.To.Hex(),
		"tokenId", args.TokenID,
		"safe", safe,
	)
	return receipt, err
}

func (m *loggingMiddleware) Approve(ctx context.Context, caller, to common.Address, id uint64) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Approve(ctx, caller, to, id)
	m.logTx("Approve", start, caller, receipt, err, "to", to.Hex(), "tokenId", id)
	return receipt, err
}

func (m *loggingMiddleware) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.SetApprovalForAll(ctx, caller, operator, approved)
	m.logTx("SetApprovalForAll", start, caller, receipt, err, "operator", operator.Hex(), "approved", approved)
	return receipt, err
}

func (m *loggingMiddleware) HasRole(ctx context.Context, role access.Role, account common.Address) (bool, error) {
	return m.next.HasRole(ctx, role, account)
}

func (m *loggingMiddleware) RoleMembers(ctx context.Context, role access.Role) ([]common.Address, error) {
	return m.next.RoleMembers(ctx, role)
}

func (m *loggingMiddleware) GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.GrantRole(ctx, caller, role, account)
	m.logTx("GrantRole", start, caller, receipt, err, "role", role.Hex(), "account", account.Hex())
	return receipt, err
}

func (m *loggingMiddleware) RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.RevokeRole(ctx, caller, role, account)
	m.logTx("RevokeRole", start, caller, receipt, err, "role", role.Hex(), "account", account.Hex())
	return receipt, err
}

func (m *loggingMiddleware) RenounceRole(ctx context.Context, caller common.Address, role access.Role) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.RenounceRole(ctx, caller, role)
	m.logTx("RenounceRole", start, caller, receipt, err, "role", role.Hex())
	return receipt, err
}

func (m *loggingMiddleware) SupportsInterface(ctx context.Context, id [4]byte) (bool, error) {
	return m.next.SupportsInterface(ctx, id)
}
