package domain

import (
	"encoding/hex"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
)

// ContractName is the runtime name of the artifact generator.
const ContractName = "artifacts"

// Roles of the artifact generator.
var (
	DefaultAdminRole = access.DefaultAdminRole
	MinterRole       = access.RoleID("MINTER_ROLE")
	MarketplaceRole  = access.RoleID("MARKETPLACE_ROLE")
)

// DefaultStipend is the minter stipend in wei paid when no amount is
// configured at deploy: 0.01 of the native unit.
var DefaultStipend = uint256.NewInt(1e16)

// Interface ids reported by SupportsInterface.
var (
	InterfaceERC165           = [4]byte{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721           = [4]byte{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC721Metadata   = [4]byte{0x5b, 0x5e, 0x13, 0x9f}
	InterfaceERC721Enumerable = [4]byte{0x78, 0x0e, 0x9d, 0x63}
	InterfaceERC4906          = [4]byte{0x49, 0x06, 0x49, 0x06}
	InterfaceAccessControl    = [4]byte{0x79, 0x65, 0xdb, 0x0b}
)

// Generator is the state of the artifact generator contract.
type Generator struct {
	roles    *access.Roles
	registry *Registry

	deployed bool
	admin    common.Address
	name     string
	symbol   string
	baseURI  string
	nextID   uint64
	amount   *uint256.Int
}

// NewGenerator returns an undeployed generator.
func NewGenerator() *Generator {
	return &Generator{
		roles:    access.NewRoles(common.Address{}),
		registry: NewRegistry(),
		amount:   new(uint256.Int),
	}
}

// Deploy initializes the contract. The caller becomes the seed admin and a
// minter; listed minters and marketplaces are granted their roles without a
// stipend.
func (g *Generator) Deploy(tx *chain.Tx, args DeployArgs) (common.Address, error) {
	addr, err := tx.Deploy()
	if err != nil {
		return common.Address{}, err
	}

	amount := DefaultStipend
	if args.Stipend != "" {
		amount, err = parseAmount("deploy", args.Stipend)
		if err != nil {
			return common.Address{}, err
		}
	}

	admin := tx.Caller()
	roles := access.NewRoles(admin)
	chain.SetField(tx, &g.roles, roles)
	chain.SetField(tx, &g.deployed, true)
	chain.SetField(tx, &g.admin, admin)
	chain.SetField(tx, &g.name, args.Name)
	chain.SetField(tx, &g.symbol, args.Symbol)
	chain.SetField(tx, &g.baseURI, args.BaseURI)
	chain.SetField(tx, &g.amount, new(uint256.Int).Set(amount))

	roles.SetRoleAdmin(tx, MinterRole, DefaultAdminRole)
	roles.SetRoleAdmin(tx, MarketplaceRole, DefaultAdminRole)
	roles.Grant(tx, DefaultAdminRole, admin)
	roles.Grant(tx, MinterRole, admin)
	for _, m := range args.Minters {
		roles.Grant(tx, MinterRole, m)
	}
	for _, m := range args.Marketplaces {
		roles.Grant(tx, MarketplaceRole, m)
	}
	return addr, nil
}

// Mint creates the next token for to. Only minters may call it.
func (g *Generator) Mint(tx *chain.Tx, to common.Address, suffix string) (uint64, error) {
	if err := g.roles.CheckRole(MinterRole, tx.Caller()); err != nil {
		return 0, err
	}
	return g.mint(tx, to, suffix)
}

func (g *Generator) mint(tx *chain.Tx, to common.Address, suffix string) (uint64, error) {
	id := g.nextID
	if err := g.registry.mint(tx, to, id, suffix); err != nil {
		return 0, err
	}
	chain.SetField(tx, &g.nextID, id+1)
	return id, nil
}

// BatchMint mints one token per recipient in input order.
func (g *Generator) BatchMint(tx *chain.Tx, to []common.Address, suffixes []string) ([]uint64, error) {
	if err := g.roles.CheckRole(MinterRole, tx.Caller()); err != nil {
		return nil, err
	}
	if len(to) != len(suffixes) {
		return nil, &LengthMismatchError{Recipients: len(to), URIs: len(suffixes)}
	}
	ids := make([]uint64, 0, len(to))
	for i := range to {
		id, err := g.mint(tx, to[i], suffixes[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SetBaseURI replaces the prefix of every token URI. Admin only.
func (g *Generator) SetBaseURI(tx *chain.Tx, base string) error {
	if err := g.roles.CheckRole(DefaultAdminRole, tx.Caller()); err != nil {
		return err
	}
	chain.SetField(tx, &g.baseURI, base)
	if g.nextID > 0 {
		tx.Emit("BatchMetadataUpdate", map[string]string{
			"fromTokenId": "0",
			"toTokenId":   strconv.FormatUint(g.nextID-1, 10),
		})
	}
	return nil
}

// ConcedeMinterRole grants the minter role to account and pays it the
// stipend from the contract balance. Minters only.
func (g *Generator) ConcedeMinterRole(tx *chain.Tx, account common.Address) error {
	if err := g.roles.CheckRole(MinterRole, tx.Caller()); err != nil {
		return err
	}
	g.roles.Grant(tx, MinterRole, account)
	return g.payStipend(tx, account)
}

func (g *Generator) payStipend(tx *chain.Tx, to common.Address) error {
	balance := tx.BalanceOf(tx.Self())
	if balance.Lt(g.amount) {
		return &OutOfFundsError{Balance: balance, Needed: new(uint256.Int).Set(g.amount)}
	}
	if err := tx.Transfer(tx.Self(), to, g.amount); err != nil {
		return err
	}
	tx.Emit("StipendPaid", map[string]string{
		"account": to.Hex(),
		"amount":  g.amount.Dec(),
	})
	return nil
}

// RevokeMinterRole removes the minter role from account. Minters only.
func (g *Generator) RevokeMinterRole(tx *chain.Tx, account common.Address) error {
	if err := g.roles.CheckRole(MinterRole, tx.Caller()); err != nil {
		return err
	}
	g.roles.Revoke(tx, MinterRole, account)
	return nil
}

// SetETHAmount changes the minter stipend. Admin only.
func (g *Generator) SetETHAmount(tx *chain.Tx, amount *uint256.Int) error {
	if err := g.roles.CheckRole(DefaultAdminRole, tx.Caller()); err != nil {
		return err
	}
	prev := g.amount
	chain.SetField(tx, &g.amount, new(uint256.Int).Set(amount))
	tx.Emit("StipendAmountChanged", map[string]string{
		"previous": prev.Dec(),
		"amount":   amount.Dec(),
	})
	return nil
}

// Fund accepts the value attached to the call.
func (g *Generator) Fund(tx *chain.Tx) {
	tx.Emit("Funded", map[string]string{
		"sender": tx.Caller().Hex(),
		"amount": tx.Value().Dec(),
	})
}

// TransferFrom moves a token. The caller needs the marketplace role and
// must be the owner, approved or an operator.
func (g *Generator) TransferFrom(tx *chain.Tx, from, to common.Address, id uint64) error {
	if err := g.roles.CheckRole(MarketplaceRole, tx.Caller()); err != nil {
		return err
	}
	return g.registry.transfer(tx, from, to, id, tx.Caller())
}

// SafeTransferFrom is TransferFrom that refuses contract receivers. No
// contract on the runtime accepts tokens.
func (g *Generator) SafeTransferFrom(tx *chain.Tx, from, to common.Address, id uint64, data []byte) error {
	if err := g.TransferFrom(tx, from, to, id); err != nil {
		return err
	}
	if tx.IsContract(to) {
		return invalidReceiver(to)
	}
	if len(data) > 0 {
		tx.Emit("TransferData", map[string]string{
			"tokenId": strconv.FormatUint(id, 10),
			"data":    "0x" + hex.EncodeToString(data),
		})
	}
	return nil
}

// Approve lets to move a single token of the caller.
func (g *Generator) Approve(tx *chain.Tx, to common.Address, id uint64) error {
	return g.registry.approve(tx, to, id, tx.Caller())
}

// SetApprovalForAll lets operator move every token of the caller.
func (g *Generator) SetApprovalForAll(tx *chain.Tx, operator common.Address, approved bool) error {
	return g.registry.setApprovalForAll(tx, tx.Caller(), operator, approved)
}

// GrantRole grants role if the caller administers it.
func (g *Generator) GrantRole(tx *chain.Tx, role access.Role, account common.Address) error {
	return g.roles.GrantRole(tx, role, account)
}

// RevokeRole revokes role if the caller administers it.
func (g *Generator) RevokeRole(tx *chain.Tx, role access.Role, account common.Address) error {
	return g.roles.RevokeRole(tx, role, account)
}

// RenounceRole drops role from the caller.
func (g *Generator) RenounceRole(tx *chain.Tx, role access.Role, confirmation common.Address) error {
	return g.roles.RenounceRole(tx, role, confirmation)
}

// Deployed reports whether Deploy has run.
func (g *Generator) Deployed() bool { return g.deployed }

// Admin returns the seed admin.
func (g *Generator) Admin() common.Address { return g.admin }

// Name returns the collection name.
func (g *Generator) Name() string { return g.name }

// Symbol returns the collection symbol.
func (g *Generator) Symbol() string { return g.symbol }

// BaseURI returns the current URI prefix.
func (g *Generator) BaseURI() string { return g.baseURI }

// NextTokenID returns the id the next mint receives.
func (g *Generator) NextTokenID() uint64 { return g.nextID }

// StipendAmount returns the minter stipend in wei.
func (g *Generator) StipendAmount() *uint256.Int { return new(uint256.Int).Set(g.amount) }

// Registry exposes the token ledger for reads.
func (g *Generator) Registry() *Registry { return g.registry }

// HasRole reports whether account holds role.
func (g *Generator) HasRole(role access.Role, account common.Address) bool {
	return g.roles.HasRole(role, account)
}

// RoleMembers returns the accounts holding role.
func (g *Generator) RoleMembers(role access.Role) []common.Address {
	return g.roles.Members(role)
}

// RoleAdmin returns the admin role of role.
func (g *Generator) RoleAdmin(role access.Role) access.Role {
	return g.roles.GetRoleAdmin(role)
}

// TokenURI returns the base URI followed by the token's suffix.
func (g *Generator) TokenURI(id uint64) (string, error) {
	suffix, err := g.registry.Suffix(id)
	if err != nil {
		return "", err
	}
	return g.baseURI + suffix, nil
}

// ListTokenIDs returns the tokens of owner in enumeration order.
func (g *Generator) ListTokenIDs(owner common.Address) []uint64 {
	return g.registry.TokensOf(owner)
}

// ListTokenURIs returns the URIs of owner's tokens in enumeration order.
func (g *Generator) ListTokenURIs(owner common.Address) []string {
	ids := g.registry.TokensOf(owner)
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = g.baseURI + g.registry.suffixes[id]
	}
	return uris
}

// SupportsInterface reports ERC-165 support for id.
func (g *Generator) SupportsInterface(id [4]byte) bool {
	switch id {
	case InterfaceERC165, InterfaceERC721, InterfaceERC721Metadata,
		InterfaceERC721Enumerable, InterfaceERC4906, InterfaceAccessControl:
		return true
	}
	return false
}
