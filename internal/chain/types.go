// Package chain implements the host runtime the token contracts execute on:
// native balances, account nonces, contract addresses, block time and
// strictly serialized, all-or-nothing transactions that are persisted as a
// replayable log.
package chain

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeContract is the pseudo contract name used for plain value transfers.
const NativeContract = "native"

// Transaction status values.
const (
	StatusSuccess  = "success"
	StatusReverted = "reverted"
)

// Call is a request to execute a contract method on behalf of Caller.
type Call struct {
	Contract string
	Method   string
	Caller   common.Address
	Value    *uint256.Int
	Args     json.RawMessage
}

// Log is an event emitted by a contract during a transaction.
type Log struct {
	Contract string
	Address  common.Address
	Name     string
	Fields   map[string]string
	Index    int
}

// Receipt describes the outcome of a submitted call.
type Receipt struct {
	Seq         uint64
	Hash        common.Hash
	Contract    string
	Method      string
	Caller      common.Address
	Value       *uint256.Int
	Status      string
	Err         error
	Result      any
	Logs        []Log
	BlockNumber uint64
	Timestamp   time.Time
}

// Succeeded reports whether the call committed.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Head is a summary of the chain state.
type Head struct {
	ChainID     uint64
	BlockNumber uint64
	BlockTime   time.Time
	NextSeq     uint64
	Contracts   map[string]common.Address
}
