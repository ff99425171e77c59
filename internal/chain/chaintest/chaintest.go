// Package chaintest provides an in-memory transaction log and helpers for
// testing code that runs on the chain runtime.
package chaintest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/storage"
)

// ChainID is the chain identifier used by NewRuntime.
const ChainID = 31337

// GenesisTime is the genesis block time used by NewRuntime.
var GenesisTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// MemoryLog is a TransactionLog kept in memory.
type MemoryLog struct {
	mu  sync.Mutex
	txs []storage.Transaction

	// FailAppend makes AppendTransaction return the error when set.
	FailAppend error
}

// AppendTransaction stores tx.
func (m *MemoryLog) AppendTransaction(_ context.Context, tx *storage.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.txs = append(m.txs, *tx)
	return nil
}

// ListTransactions lists stored transactions using seq cursors.
func (m *MemoryLog) ListTransactions(_ context.Context, filter storage.TransactionFilter, pagination storage.PaginationParams) (*storage.PaginatedResult[storage.Transaction], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cursor int64 = -1
	if pagination.Cursor != "" {
		c, err := strconv.ParseInt(pagination.Cursor, 10, 64)
		if err != nil {
			return nil, err
		}
		cursor = c
	}
	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	ordered := make([]storage.Transaction, 0, len(m.txs))
	if filter.Ascending {
		ordered = append(ordered, m.txs...)
	} else {
		for i := len(m.txs) - 1; i >= 0; i-- {
			ordered = append(ordered, m.txs[i])
		}
	}

	var out []storage.Transaction
	for _, tx := range ordered {
		if cursor >= 0 {
			if filter.Ascending && tx.Seq <= cursor {
				continue
			}
			if !filter.Ascending && tx.Seq >= cursor {
				continue
			}
		}
		if filter.Contract != "" && tx.Contract != filter.Contract {
			continue
		}
		if filter.Method != "" && tx.Method != filter.Method {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, tx)
	}

	result := &storage.PaginatedResult[storage.Transaction]{Data: out}
	if len(out) > limit {
		result.Data = out[:limit]
		result.HasMore = true
		result.NextCursor = strconv.FormatInt(out[limit-1].Seq, 10)
	}
	return result, nil
}

// Transactions returns a copy of every stored transaction.
func (m *MemoryLog) Transactions() []storage.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Transaction(nil), m.txs...)
}

// NewAddress derives a deterministic address from seed.
func NewAddress(seed string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(seed))[12:])
}

// Ether returns n * 10^18 wei.
func Ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

// NewRuntime creates a runtime on a fresh MemoryLog. Every account in funded
// starts with 100 ether.
func NewRuntime(funded ...common.Address) (*chain.Runtime, *MemoryLog) {
	log := &MemoryLog{}
	alloc := make(map[common.Address]*uint256.Int, len(funded))
	for _, addr := range funded {
		alloc[addr] = Ether(100)
	}
	clock := GenesisTime
	rt := chain.New(chain.Config{
		ChainID:     ChainID,
		GenesisTime: GenesisTime,
		Alloc:       alloc,
	}, log, Logger(), chain.WithClock(func() time.Time {
		clock = clock.Add(12 * time.Second)
		return clock
	}))
	return rt, log
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type execHandler func(tx *chain.Tx) error

func (f execHandler) Apply(tx *chain.Tx, _ string, _ json.RawMessage) (any, error) {
	return nil, f(tx)
}

func (f execHandler) Payable(string) bool { return false }

// Exec runs fn as a transaction sent by caller and returns its receipt.
// Such transactions cannot be replayed.
func Exec(rt *chain.Runtime, caller common.Address, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	rt.Register("exec", execHandler(fn))
	return rt.Submit(context.Background(), chain.Call{Contract: "exec", Method: "exec", Caller: caller})
}
