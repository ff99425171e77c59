package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
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

func (m *loggingMiddleware) Deploy(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Deploy(ctx, caller)
	m.logger.Info("Deploy",
		"caller", caller.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) Info(ctx context.Context) (*Info, error) {
	return m.next.Info(ctx)
}

func (m *loggingMiddleware) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	start := time.Now()
	balance, err := m.next.BalanceOf(ctx, account)
	m.logger.Debug("BalanceOf",
		"account", account.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return balance, err
}

func (m *loggingMiddleware) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	return m.next.Allowance(ctx, owner, spender)
}

func (m *loggingMiddleware) Nonces(ctx context.Context, owner common.Address) (uint64, error) {
	return m.next.Nonces(ctx, owner)
}

func (m *loggingMiddleware) Transfer(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Transfer(ctx, caller, to, amount)
	m.logger.Info("Transfer",
		"caller", caller.Hex(),
		"to", to.Hex(),
		"amount", amount.Dec(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) Approve(ctx context.Context, caller, spender common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Approve(ctx, caller, spender, amount)
	m.logger.Info("Approve",
		"caller", caller.Hex(),
		"spender", spender.Hex(),
		"amount", amount.Dec(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) TransferFrom(ctx context.Context, caller, from, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.TransferFrom(ctx, caller, from, to, amount)
	m.logger.Info("TransferFrom",
		"caller", caller.Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
		"amount", amount.Dec(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) Permit(ctx context.Context, caller common.Address, args PermitArgs) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Permit(ctx, caller, args)
	m.logger.Info("Permit",
		"caller", caller.Hex(),
		"owner", args.Owner.Hex(),
		"spender", args.Spender.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.TransferOwnership(ctx, caller, newOwner)
	m.logger.Info("TransferOwnership",
		"caller", caller.Hex(),
		"newOwner", newOwner.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}

func (m *loggingMiddleware) RenounceOwnership(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.RenounceOwnership(ctx, caller)
	m.logger.Info("RenounceOwnership",
		"caller", caller.Hex(),
		"duration", time.Since(start),
		"error", err,
	)
	return receipt, err
}
