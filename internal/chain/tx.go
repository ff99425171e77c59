package chain

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Tx is the execution context of a single call. All state changes made
// through it, or journaled with Journal, are undone if the call fails.
type Tx struct {
	rt      *Runtime
	call    Call
	seq     uint64
	time    time.Time
	self    common.Address
	journal *journal
	logs    []Log
}

// Caller returns the account that submitted the call.
func (tx *Tx) Caller() common.Address { return tx.call.Caller }

// Value returns the native value attached to the call. It is never nil.
func (tx *Tx) Value() *uint256.Int {
	if tx.call.Value == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(tx.call.Value)
}

// Self returns the address of the executing contract. It is the zero address
// until the contract is deployed.
func (tx *Tx) Self() common.Address { return tx.self }

// Time returns the block timestamp the call executes at.
func (tx *Tx) Time() time.Time { return tx.time }

// ChainID returns the chain identifier.
func (tx *Tx) ChainID() uint64 { return tx.rt.chainID }

// Journal records a change to contract-owned state.
func (tx *Tx) Journal(c Change) {
	tx.journal.append(c)
}

// Emit appends an event log attributed to the executing contract.
func (tx *Tx) Emit(name string, fields map[string]string) {
	tx.logs = append(tx.logs, Log{
		Contract: tx.call.Contract,
		Address:  tx.self,
		Name:     name,
		Fields:   fields,
		Index:    len(tx.logs),
	})
	n := len(tx.logs) - 1
	tx.journal.append(ChangeFunc(func() {
		if len(tx.logs) > n {
			tx.logs = tx.logs[:n]
		}
	}))
}

// BalanceOf returns the native balance of addr.
func (tx *Tx) BalanceOf(addr common.Address) *uint256.Int {
	return tx.rt.balanceOf(addr)
}

// IsContract reports whether addr belongs to a deployed contract.
func (tx *Tx) IsContract(addr common.Address) bool {
	_, ok := tx.rt.byAddress[addr]
	return ok
}

// Transfer moves native value between two accounts.
func (tx *Tx) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	bal := tx.rt.balanceOf(from)
	if bal.Lt(amount) {
		return &InsufficientFundsError{Account: from, Balance: bal, Needed: new(uint256.Int).Set(amount)}
	}
	tx.setBalance(from, new(uint256.Int).Sub(bal, amount))
	tx.setBalance(to, new(uint256.Int).Add(tx.rt.balanceOf(to), amount))
	return nil
}

func (tx *Tx) setBalance(addr common.Address, v *uint256.Int) {
	prev, had := tx.rt.balances[addr]
	tx.rt.balances[addr] = v
	tx.journal.append(ChangeFunc(func() {
		if had {
			tx.rt.balances[addr] = prev
		} else {
			delete(tx.rt.balances, addr)
		}
	}))
}

// Deploy assigns the executing contract its address, derived from the
// caller and the caller's nonce.
func (tx *Tx) Deploy() (common.Address, error) {
	name := tx.call.Contract
	if _, ok := tx.rt.contracts[name]; ok {
		return common.Address{}, ErrAlreadyDeployed
	}
	addr := crypto.CreateAddress(tx.call.Caller, tx.rt.nonces[tx.call.Caller])
	tx.rt.contracts[name] = addr
	tx.rt.byAddress[addr] = name
	tx.self = addr
	tx.journal.append(ChangeFunc(func() {
		delete(tx.rt.contracts, name)
		delete(tx.rt.byAddress, addr)
		tx.self = common.Address{}
	}))
	return addr, nil
}

func (tx *Tx) revert() {
	tx.journal.revert(0)
	tx.logs = nil
}

// txHash derives a deterministic transaction hash.
func txHash(chainID, seq uint64, call Call) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], chainID)
	binary.BigEndian.PutUint64(buf[8:], seq)
	value := []byte{}
	if call.Value != nil {
		b := call.Value.Bytes32()
		value = b[:]
	}
	return crypto.Keccak256Hash(
		buf[:],
		call.Caller.Bytes(),
		[]byte(call.Contract), []byte{0},
		[]byte(call.Method), []byte{0},
		value,
		call.Args,
	)
}
