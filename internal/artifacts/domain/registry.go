package domain

import (
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/zoppel/internal/chain"
)

// Registry is the token ledger: ownership, per-owner and global
// enumeration, URI suffixes and approvals. Every mutation goes through
// update so the three indexes never disagree.
type Registry struct {
	owners     map[uint64]common.Address
	balances   map[common.Address]uint64
	owned      map[common.Address][]uint64
	ownedIndex map[uint64]int
	all        []uint64
	suffixes   map[uint64]string
	approvals  map[uint64]common.Address
	operators  map[common.Address]map[common.Address]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		owners:     make(map[uint64]common.Address),
		balances:   make(map[common.Address]uint64),
		owned:      make(map[common.Address][]uint64),
		ownedIndex: make(map[uint64]int),
		suffixes:   make(map[uint64]string),
		approvals:  make(map[uint64]common.Address),
		operators:  make(map[common.Address]map[common.Address]bool),
	}
}

func (r *Registry) ownerOf(id uint64) common.Address {
	return r.owners[id]
}

// OwnerOf returns the owner of a minted token.
func (r *Registry) OwnerOf(id uint64) (common.Address, error) {
	owner := r.ownerOf(id)
	if owner == (common.Address{}) {
		return common.Address{}, &NonexistentTokenError{TokenID: id}
	}
	return owner, nil
}

// BalanceOf returns how many tokens owner holds.
func (r *Registry) BalanceOf(owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, invalidOwner(owner)
	}
	return r.balances[owner], nil
}

// TotalSupply returns the number of tokens in existence.
func (r *Registry) TotalSupply() uint64 {
	return uint64(len(r.all))
}

// TokenByIndex returns the token at index of the global enumeration.
func (r *Registry) TokenByIndex(index uint64) (uint64, error) {
	if index >= uint64(len(r.all)) {
		return 0, &OutOfBoundsIndexError{Index: index}
	}
	return r.all[index], nil
}

// TokenOfOwnerByIndex returns the token at index of owner's enumeration.
func (r *Registry) TokenOfOwnerByIndex(owner common.Address, index uint64) (uint64, error) {
	list := r.owned[owner]
	if index >= uint64(len(list)) {
		return 0, &OutOfBoundsIndexError{Owner: owner, Index: index}
	}
	return list[index], nil
}

// TokensOf returns the tokens of owner in enumeration order.
func (r *Registry) TokensOf(owner common.Address) []uint64 {
	return slices.Clone(r.owned[owner])
}

// Suffix returns the URI suffix stored at mint.
func (r *Registry) Suffix(id uint64) (string, error) {
	if _, err := r.OwnerOf(id); err != nil {
		return "", err
	}
	return r.suffixes[id], nil
}

// GetApproved returns the account approved for a single token.
func (r *Registry) GetApproved(id uint64) (common.Address, error) {
	if _, err := r.OwnerOf(id); err != nil {
		return common.Address{}, err
	}
	return r.approvals[id], nil
}

// IsApprovedForAll reports whether operator manages every token of owner.
func (r *Registry) IsApprovedForAll(owner, operator common.Address) bool {
	return r.operators[owner][operator]
}

func (r *Registry) isAuthorized(owner, spender common.Address, id uint64) bool {
	return spender != (common.Address{}) &&
		(owner == spender || r.IsApprovedForAll(owner, spender) || r.approvals[id] == spender)
}

// mint creates token id for to with its URI suffix.
func (r *Registry) mint(tx *chain.Tx, to common.Address, id uint64, suffix string) error {
	if to == (common.Address{}) {
		return invalidReceiver(to)
	}
	if r.ownerOf(id) != (common.Address{}) {
		return invalidSender(common.Address{})
	}
	chain.SetValue(tx, r.suffixes, id, suffix)
	if _, err := r.update(tx, to, id, common.Address{}); err != nil {
		return err
	}
	tx.Emit("MetadataUpdate", map[string]string{"tokenId": strconv.FormatUint(id, 10)})
	return nil
}

// transfer moves id from from to to on behalf of auth.
func (r *Registry) transfer(tx *chain.Tx, from, to common.Address, id uint64, auth common.Address) error {
	if to == (common.Address{}) {
		return invalidReceiver(to)
	}
	prev, err := r.update(tx, to, id, auth)
	if err != nil {
		return err
	}
	if prev == (common.Address{}) {
		return &NonexistentTokenError{TokenID: id}
	}
	if prev != from {
		return &IncorrectOwnerError{Sender: from, TokenID: id, Owner: prev}
	}
	return nil
}

// update assigns id to to and returns the previous owner. A non-zero auth
// must be the owner, an operator of the owner or the approved account.
func (r *Registry) update(tx *chain.Tx, to common.Address, id uint64, auth common.Address) (common.Address, error) {
	from := r.ownerOf(id)

	if auth != (common.Address{}) {
		if from == (common.Address{}) {
			return common.Address{}, &NonexistentTokenError{TokenID: id}
		}
		if !r.isAuthorized(from, auth, id) {
			return common.Address{}, &InsufficientApprovalError{Operator: auth, TokenID: id}
		}
	}

	if from != (common.Address{}) {
		chain.DeleteValue(tx, r.approvals, id)
		chain.SetValue(tx, r.balances, from, r.balances[from]-1)
		r.removeFromOwner(tx, from, id)
	} else {
		chain.SetField(tx, &r.all, append(slices.Clip(r.all), id))
	}

	chain.SetValue(tx, r.balances, to, r.balances[to]+1)
	r.addToOwner(tx, to, id)
	chain.SetValue(tx, r.owners, id, to)

	tx.Emit("Transfer", map[string]string{
		"from":    from.Hex(),
		"to":      to.Hex(),
		"tokenId": strconv.FormatUint(id, 10),
	})
	return from, nil
}

func (r *Registry) addToOwner(tx *chain.Tx, owner common.Address, id uint64) {
	list := r.owned[owner]
	chain.SetValue(tx, r.ownedIndex, id, len(list))
	chain.SetValue(tx, r.owned, owner, append(slices.Clip(list), id))
}

// removeFromOwner drops id from owner's enumeration by moving the last
// token into its slot.
func (r *Registry) removeFromOwner(tx *chain.Tx, owner common.Address, id uint64) {
	list := slices.Clone(r.owned[owner])
	i := r.ownedIndex[id]
	last := len(list) - 1
	if i != last {
		moved := list[last]
		list[i] = moved
		chain.SetValue(tx, r.ownedIndex, moved, i)
	}
	list = list[:last]
	chain.DeleteValue(tx, r.ownedIndex, id)
	if len(list) == 0 {
		chain.DeleteValue(tx, r.owned, owner)
		return
	}
	chain.SetValue(tx, r.owned, owner, list)
}

// approve sets the approved account of id. A non-zero auth must be the
// owner or one of its operators.
func (r *Registry) approve(tx *chain.Tx, to common.Address, id uint64, auth common.Address) error {
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if auth != (common.Address{}) && auth != owner && !r.IsApprovedForAll(owner, auth) {
		return invalidApprover(auth)
	}
	chain.SetValue(tx, r.approvals, id, to)
	tx.Emit("Approval", map[string]string{
		"owner":    owner.Hex(),
		"approved": to.Hex(),
		"tokenId":  strconv.FormatUint(id, 10),
	})
	return nil
}

func (r *Registry) setApprovalForAll(tx *chain.Tx, owner, operator common.Address, approved bool) error {
	if operator == (common.Address{}) {
		return invalidOperator(operator)
	}
	set, ok := r.operators[owner]
	if !ok {
		set = make(map[common.Address]bool)
		chain.SetValue(tx, r.operators, owner, set)
	}
	chain.SetValue(tx, set, operator, approved)
	tx.Emit("ApprovalForAll", map[string]string{
		"owner":    owner.Hex(),
		"operator": operator.Hex(),
		"approved": strconv.FormatBool(approved),
	})
	return nil
}
