package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/observability/metrics"
	"github.com/pendergraft/zoppel/internal/storage"
)

// Handler executes the methods of one contract.
type Handler interface {
	// Apply runs method with JSON encoded args inside tx.
	Apply(tx *Tx, method string, args json.RawMessage) (any, error)

	// Payable reports whether method accepts native value.
	Payable(method string) bool
}

// TransactionLog is the persistence the runtime needs.
type TransactionLog interface {
	AppendTransaction(ctx context.Context, tx *storage.Transaction) error
	ListTransactions(ctx context.Context, filter storage.TransactionFilter, pagination storage.PaginationParams) (*storage.PaginatedResult[storage.Transaction], error)
}

// Config holds the genesis parameters of a runtime.
type Config struct {
	ChainID     uint64
	GenesisTime time.Time
	Alloc       map[common.Address]*uint256.Int
}

// Option configures a Runtime
type Option func(*Runtime)

// WithClock sets the block time source
func WithClock(now func() time.Time) Option {
	return func(rt *Runtime) {
		rt.now = now
	}
}

// Runtime executes calls one at a time against in-memory state.
type Runtime struct {
	mu      sync.RWMutex
	chainID uint64
	log     TransactionLog
	logger  *slog.Logger
	now     func() time.Time

	handlers  map[string]Handler
	contracts map[string]common.Address
	byAddress map[common.Address]string
	balances  map[common.Address]*uint256.Int
	nonces    map[common.Address]uint64

	seq       uint64
	block     uint64
	blockTime time.Time
}

// New creates a runtime with the genesis allocation applied.
func New(cfg Config, log TransactionLog, logger *slog.Logger, opts ...Option) *Runtime {
	rt := &Runtime{
		chainID:   cfg.ChainID,
		log:       log,
		logger:    logger,
		now:       time.Now,
		handlers:  make(map[string]Handler),
		contracts: make(map[string]common.Address),
		byAddress: make(map[common.Address]string),
		balances:  make(map[common.Address]*uint256.Int),
		nonces:    make(map[common.Address]uint64),
		blockTime: cfg.GenesisTime.Truncate(time.Second),
	}
	for addr, amount := range cfg.Alloc {
		rt.balances[addr] = new(uint256.Int).Set(amount)
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Register installs the handler for a contract name.
func (rt *Runtime) Register(name string, h Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.handlers[name] = h
}

// ChainID returns the chain identifier.
func (rt *Runtime) ChainID() uint64 { return rt.chainID }

// View runs fn while holding the read lock. fn must not submit calls.
func (rt *Runtime) View(fn func()) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	fn()
}

// Balance returns the native balance of addr.
func (rt *Runtime) Balance(addr common.Address) *uint256.Int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.balanceOf(addr)
}

// Nonce returns the number of committed transactions sent by addr.
func (rt *Runtime) Nonce(addr common.Address) uint64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.nonces[addr]
}

// ContractAddress returns the deployed address of a contract.
func (rt *Runtime) ContractAddress(name string) (common.Address, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	addr, ok := rt.contracts[name]
	return addr, ok
}

// ContractAt returns the name of the contract deployed at addr.
func (rt *Runtime) ContractAt(addr common.Address) (string, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	name, ok := rt.byAddress[addr]
	return name, ok
}

// Head returns a summary of the chain state.
func (rt *Runtime) Head() Head {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	contracts := make(map[string]common.Address, len(rt.contracts))
	for k, v := range rt.contracts {
		contracts[k] = v
	}
	return Head{
		ChainID:     rt.chainID,
		BlockNumber: rt.block,
		BlockTime:   rt.blockTime,
		NextSeq:     rt.seq,
		Contracts:   contracts,
	}
}

func (rt *Runtime) balanceOf(addr common.Address) *uint256.Int {
	if b, ok := rt.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Submit executes call and persists the outcome. A reverted call returns its
// receipt together with the revert error; no state change survives it.
func (rt *Runtime) Submit(ctx context.Context, call Call) (*Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ts := rt.now().Truncate(time.Second)
	if ts.Before(rt.blockTime) {
		ts = rt.blockTime
	}

	tx, result, execErr := rt.execute(call, rt.seq, ts)
	receipt := rt.receipt(tx, result, execErr)

	record, err := toRecord(receipt, call.Args)
	if err != nil {
		tx.revert()
		return nil, err
	}
	if err := rt.log.AppendTransaction(ctx, record); err != nil {
		if execErr == nil {
			tx.revert()
		}
		return nil, fmt.Errorf("persisting transaction: %w", err)
	}

	rt.seq++
	if execErr == nil {
		rt.commit(tx)
	}
	metrics.Transaction(call.Contract, call.Method, receipt.Status)

	rt.logger.Debug("transaction",
		"seq", receipt.Seq,
		"hash", receipt.Hash.Hex(),
		"contract", call.Contract,
		"method", call.Method,
		"caller", call.Caller.Hex(),
		"status", receipt.Status,
		"error", execErr,
	)
	return receipt, execErr
}

// Restore replays every committed transaction found in the log. It returns
// the number of transactions replayed.
func (rt *Runtime) Restore(ctx context.Context) (int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	replayed := 0
	cursor := ""
	for {
		page, err := rt.log.ListTransactions(ctx, storage.TransactionFilter{Ascending: true}, storage.PaginationParams{
			Limit:  500,
			Cursor: cursor,
		})
		if err != nil {
			return replayed, fmt.Errorf("listing transactions: %w", err)
		}
		for _, rec := range page.Data {
			call, err := fromRecord(&rec)
			if err != nil {
				return replayed, err
			}
			seq := uint64(rec.Seq)
			if rec.Status == StatusSuccess {
				tx, _, err := rt.execute(call, seq, time.Unix(rec.Timestamp, 0).UTC())
				if err != nil {
					return replayed, fmt.Errorf("%w: seq %d: %v", ErrReplayDiverged, rec.Seq, err)
				}
				rt.commit(tx)
				replayed++
			}
			rt.seq = seq + 1
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	rt.logger.Info("chain state restored", "transactions", replayed, "block", rt.block)
	return replayed, nil
}

// execute applies call without persisting it. On error every change has
// already been reverted.
func (rt *Runtime) execute(call Call, seq uint64, ts time.Time) (*Tx, any, error) {
	tx := &Tx{
		rt:      rt,
		call:    call,
		seq:     seq,
		time:    ts,
		journal: newJournal(),
	}

	result, err := rt.dispatch(tx)
	if err != nil {
		tx.revert()
		return tx, nil, err
	}
	return tx, result, nil
}

func (rt *Runtime) dispatch(tx *Tx) (any, error) {
	call := tx.call
	value := tx.Value()

	if call.Contract == NativeContract {
		return applyNative(tx, call.Method, call.Args)
	}

	h, ok := rt.handlers[call.Contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, call.Contract)
	}

	if !value.IsZero() && !h.Payable(call.Method) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNonPayable, call.Contract, call.Method)
	}

	if addr, deployed := rt.contracts[call.Contract]; deployed {
		tx.self = addr
		if err := tx.Transfer(call.Caller, addr, value); err != nil {
			return nil, err
		}
	} else if !value.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNotDeployed, call.Contract)
	}

	return h.Apply(tx, call.Method, call.Args)
}

func (rt *Runtime) commit(tx *Tx) {
	rt.nonces[tx.call.Caller]++
	rt.block++
	rt.blockTime = tx.time
}

func (rt *Runtime) receipt(tx *Tx, result any, err error) *Receipt {
	r := &Receipt{
		Seq:       tx.seq,
		Hash:      txHash(rt.chainID, tx.seq, tx.call),
		Contract:  tx.call.Contract,
		Method:    tx.call.Method,
		Caller:    tx.call.Caller,
		Value:     tx.Value(),
		Status:    StatusSuccess,
		Result:    result,
		Timestamp: tx.time,
	}
	if err != nil {
		r.Status = StatusReverted
		r.Err = err
		r.BlockNumber = rt.block
		return r
	}
	r.BlockNumber = rt.block + 1
	r.Logs = append([]Log(nil), tx.logs...)
	return r
}

func toRecord(r *Receipt, args json.RawMessage) (*storage.Transaction, error) {
	rec := &storage.Transaction{
		Args:        args,
		Seq:         int64(r.Seq),
		Hash:        r.Hash.Hex(),
		Contract:    r.Contract,
		Method:      r.Method,
		Caller:      r.Caller.Hex(),
		Value:       r.Value.Dec(),
		Status:      r.Status,
		BlockNumber: int64(r.BlockNumber),
		Timestamp:   r.Timestamp.Unix(),
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	if r.Result != nil {
		b, err := json.Marshal(r.Result)
		if err != nil {
			return nil, fmt.Errorf("encoding result: %w", err)
		}
		rec.Result = b
	}
	for _, l := range r.Logs {
		rec.Events = append(rec.Events, storage.Event{
			TxSeq:       rec.Seq,
			TxHash:      rec.Hash,
			LogIndex:    l.Index,
			BlockNumber: rec.BlockNumber,
			Timestamp:   rec.Timestamp,
			Contract:    l.Contract,
			Address:     l.Address.Hex(),
			Name:        l.Name,
			Fields:      l.Fields,
		})
	}
	return rec, nil
}

func fromRecord(rec *storage.Transaction) (Call, error) {
	value, err := uint256.FromDecimal(rec.Value)
	if err != nil {
		return Call{}, fmt.Errorf("decoding value of seq %d: %w", rec.Seq, err)
	}
	if !common.IsHexAddress(rec.Caller) {
		return Call{}, fmt.Errorf("decoding caller of seq %d: %q", rec.Seq, rec.Caller)
	}
	return Call{
		Contract: rec.Contract,
		Method:   rec.Method,
		Caller:   common.HexToAddress(rec.Caller),
		Value:    value,
		Args:     json.RawMessage(rec.Args),
	}, nil
}
