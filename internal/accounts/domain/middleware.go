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

func (m *loggingMiddleware) Get(ctx context.Context, addr common.Address) (*Account, error) {
	return m.next.Get(ctx, addr)
}

func (m *loggingMiddleware) Send(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	start := time.Now()
	receipt, err := m.next.Send(ctx, caller, to, amount)
	attrs := []any{"caller", caller.Hex(), "to", to.Hex(), "amount", amount.Dec()}
	if receipt != nil {
		attrs = append(attrs, "seq", receipt.Seq, "status", receipt.Status)
	}
	attrs = append(attrs, "duration", time.Since(start), "error", err)
	m.logger.Info("Send", attrs...)
	return receipt, err
}
