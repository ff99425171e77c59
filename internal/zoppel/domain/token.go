package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
)

// ContractName is the runtime name of the Zoppel token.
const ContractName = "zoppel"

// Token metadata.
const (
	Name     = "Zoppel"
	Symbol   = "ZPL"
	Decimals = 18
	Version  = "1"
)

// MaxSupply is the fixed total supply: 21 million tokens of 18 decimals.
var MaxSupply = new(uint256.Int).Mul(uint256.NewInt(21_000_000), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals)))

var maxUint256 = new(uint256.Int).SetAllOne()

// Token is the state of the Zoppel contract.
type Token struct {
	access.Ownable

	deployed    bool
	address     common.Address
	chainID     uint64
	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	nonces      map[common.Address]uint64
}

// NewToken returns an undeployed token.
func NewToken() *Token {
	return &Token{
		totalSupply: new(uint256.Int),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		nonces:      make(map[common.Address]uint64),
	}
}

// Deploy mints the whole supply to the caller and makes it the owner.
func (t *Token) Deploy(tx *chain.Tx) (common.Address, error) {
	addr, err := tx.Deploy()
	if err != nil {
		return common.Address{}, err
	}
	chain.SetField(tx, &t.deployed, true)
	chain.SetField(tx, &t.address, addr)
	chain.SetField(tx, &t.chainID, tx.ChainID())
	if err := t.Init(tx, tx.Caller()); err != nil {
		return common.Address{}, err
	}
	if err := t.mint(tx, tx.Caller(), MaxSupply); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Deployed reports whether Deploy has run.
func (t *Token) Deployed() bool { return t.deployed }

// Address returns the contract address.
func (t *Token) Address() common.Address { return t.address }

// TotalSupply returns the amount of tokens in existence.
func (t *Token) TotalSupply() *uint256.Int { return new(uint256.Int).Set(t.totalSupply) }

// BalanceOf returns the balance of account.
func (t *Token) BalanceOf(account common.Address) *uint256.Int {
	if b, ok := t.balances[account]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Allowance returns what spender may still move on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int)
}

// Nonces returns the next permit nonce of owner.
func (t *Token) Nonces(owner common.Address) uint64 {
	return t.nonces[owner]
}

// Domain returns the EIP-712 signing domain.
func (t *Token) Domain() Domain {
	return Domain{
		Name:              Name,
		Version:           Version,
		ChainID:           t.chainID,
		VerifyingContract: t.address,
	}
}

// Holders returns every account with a non-zero balance.
func (t *Token) Holders() []common.Address {
	out := make([]common.Address, 0, len(t.balances))
	for addr, b := range t.balances {
		if !b.IsZero() {
			out = append(out, addr)
		}
	}
	return out
}

// Transfer moves amount from the caller to to.
func (t *Token) Transfer(tx *chain.Tx, to common.Address, amount *uint256.Int) error {
	return t.transfer(tx, tx.Caller(), to, amount)
}

// Approve sets the allowance of spender over the caller's tokens.
func (t *Token) Approve(tx *chain.Tx, spender common.Address, amount *uint256.Int) error {
	return t.approve(tx, tx.Caller(), spender, amount, true)
}

// TransferFrom moves amount from from to to using the caller's allowance.
func (t *Token) TransferFrom(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	if err := t.spendAllowance(tx, from, tx.Caller(), amount); err != nil {
		return err
	}
	return t.transfer(tx, from, to, amount)
}

// PermitArgs are the arguments of permit.
type PermitArgs struct {
	Owner    common.Address
	Spender  common.Address
	Value    *uint256.Int
	Deadline *uint256.Int
	Signature
}

// Permit sets an allowance from an owner signature.
func (t *Token) Permit(tx *chain.Tx, args PermitArgs) error {
	now := uint256.NewInt(uint64(tx.Time().Unix()))
	if now.Gt(args.Deadline) {
		return &ExpiredSignatureError{Deadline: args.Deadline}
	}

	nonce := t.nonces[args.Owner]
	digest := Permit{
		Owner:    args.Owner,
		Spender:  args.Spender,
		Value:    args.Value,
		Nonce:    uint256.NewInt(nonce),
		Deadline: args.Deadline,
	}.Digest(t.Domain())

	signer, err := recoverSigner(digest, args.Signature)
	if err != nil {
		return err
	}
	if signer != args.Owner {
		return &InvalidSignerError{Signer: signer, Owner: args.Owner}
	}

	chain.SetValue(tx, t.nonces, args.Owner, nonce+1)
	return t.approve(tx, args.Owner, args.Spender, args.Value, true)
}

func (t *Token) mint(tx *chain.Tx, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return &AddressError{Kind: ErrInvalidReceiver, Name: "ERC20InvalidReceiver", Address: to}
	}
	return t.update(tx, common.Address{}, to, amount)
}

func (t *Token) transfer(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return &AddressError{Kind: ErrInvalidSender, Name: "ERC20InvalidSender", Address: from}
	}
	if to == (common.Address{}) {
		return &AddressError{Kind: ErrInvalidReceiver, Name: "ERC20InvalidReceiver", Address: to}
	}
	return t.update(tx, from, to, amount)
}

// update moves amount between accounts. A zero from mints.
func (t *Token) update(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		chain.SetField(tx, &t.totalSupply, new(uint256.Int).Add(t.totalSupply, amount))
	} else {
		balance := t.BalanceOf(from)
		if balance.Lt(amount) {
			return &InsufficientBalanceError{Sender: from, Balance: balance, Needed: new(uint256.Int).Set(amount)}
		}
		chain.SetValue(tx, t.balances, from, new(uint256.Int).Sub(balance, amount))
	}
	chain.SetValue(tx, t.balances, to, new(uint256.Int).Add(t.BalanceOf(to), amount))

	tx.Emit("Transfer", map[string]string{
		"from":  from.Hex(),
		"to":    to.Hex(),
		"value": amount.Dec(),
	})
	return nil
}

func (t *Token) approve(tx *chain.Tx, owner, spender common.Address, amount *uint256.Int, emit bool) error {
	if owner == (common.Address{}) {
		return &AddressError{Kind: ErrInvalidApprover, Name: "ERC20InvalidApprover", Address: owner}
	}
	if spender == (common.Address{}) {
		return &AddressError{Kind: ErrInvalidSpender, Name: "ERC20InvalidSpender", Address: spender}
	}
	set, ok := t.allowances[owner]
	if !ok {
		set = make(map[common.Address]*uint256.Int)
		chain.SetValue(tx, t.allowances, owner, set)
	}
	chain.SetValue(tx, set, spender, new(uint256.Int).Set(amount))
	if emit {
		tx.Emit("Approval", map[string]string{
			"owner":   owner.Hex(),
			"spender": spender.Hex(),
			"value":   amount.Dec(),
		})
	}
	return nil
}

// spendAllowance lowers the allowance of spender. An infinite allowance
// is left untouched.
func (t *Token) spendAllowance(tx *chain.Tx, owner, spender common.Address, amount *uint256.Int) error {
	current := t.Allowance(owner, spender)
	if current.Eq(maxUint256) {
		return nil
	}
	if current.Lt(amount) {
		return &InsufficientAllowanceError{Spender: spender, Allowance: current, Needed: new(uint256.Int).Set(amount)}
	}
	return t.approve(tx, owner, spender, new(uint256.Int).Sub(current, amount), false)
}
