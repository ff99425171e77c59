// Package access implements role based access control and single-owner
// administration for contracts running on the chain runtime.
package access

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pendergraft/zoppel/internal/chain"
)

// Errors
var (
	ErrUnauthorizedAccount = errors.New("account is missing role")
	ErrBadConfirmation     = errors.New("access control bad confirmation")
	ErrProtectedAccount    = errors.New("seed admin cannot lose the admin role")
)

// Role identifies a role. Roles are the keccak256 hash of their name, except
// DefaultAdminRole which is zero.
type Role = common.Hash

// DefaultAdminRole administers every role that has no other admin.
var DefaultAdminRole = Role{}

// RoleID returns the identifier of a named role.
func RoleID(name string) Role {
	return crypto.Keccak256Hash([]byte(name))
}

// UnauthorizedAccountError reports an account that lacks a required role.
type UnauthorizedAccountError struct {
	Account common.Address
	Role    Role
}

func (e *UnauthorizedAccountError) Error() string {
	return fmt.Sprintf("AccessControlUnauthorizedAccount(%s, %s)", e.Account.Hex(), e.Role.Hex())
}

func (e *UnauthorizedAccountError) Unwrap() error {
	return ErrUnauthorizedAccount
}

// Roles holds role memberships and role admins. The zero value is not
// usable; call NewRoles.
type Roles struct {
	members map[Role]map[common.Address]struct{}
	admins  map[Role]Role
	seed    common.Address
}

// NewRoles creates an empty role set. seed is the account whose
// DefaultAdminRole membership cannot be revoked or renounced; pass the zero
// address to disable the protection.
func NewRoles(seed common.Address) *Roles {
	return &Roles{
		members: make(map[Role]map[common.Address]struct{}),
		admins:  make(map[Role]Role),
		seed:    seed,
	}
}

// HasRole reports whether account holds role.
func (r *Roles) HasRole(role Role, account common.Address) bool {
	_, ok := r.members[role][account]
	return ok
}

// CheckRole returns an UnauthorizedAccountError if account lacks role.
func (r *Roles) CheckRole(role Role, account common.Address) error {
	if !r.HasRole(role, account) {
		return &UnauthorizedAccountError{Account: account, Role: role}
	}
	return nil
}

// GetRoleAdmin returns the role that administers role.
func (r *Roles) GetRoleAdmin(role Role) Role {
	return r.admins[role]
}

// Members returns the accounts holding role in ascending address order.
func (r *Roles) Members(role Role) []common.Address {
	out := make([]common.Address, 0, len(r.members[role]))
	for addr := range r.members[role] {
		out = append(out, addr)
	}
	slices.SortFunc(out, common.Address.Cmp)
	return out
}

// GrantRole grants role to account if caller holds the role's admin role.
func (r *Roles) GrantRole(tx *chain.Tx, role Role, account common.Address) error {
	if err := r.CheckRole(r.GetRoleAdmin(role), tx.Caller()); err != nil {
		return err
	}
	r.Grant(tx, role, account)
	return nil
}

// RevokeRole revokes role from account if caller holds the role's admin
// role.
func (r *Roles) RevokeRole(tx *chain.Tx, role Role, account common.Address) error {
	if err := r.CheckRole(r.GetRoleAdmin(role), tx.Caller()); err != nil {
		return err
	}
	if err := r.checkProtected(role, account); err != nil {
		return err
	}
	r.Revoke(tx, role, account)
	return nil
}

// RenounceRole removes role from the caller. confirmation must equal the
// caller.
func (r *Roles) RenounceRole(tx *chain.Tx, role Role, confirmation common.Address) error {
	if confirmation != tx.Caller() {
		return ErrBadConfirmation
	}
	if err := r.checkProtected(role, confirmation); err != nil {
		return err
	}
	r.Revoke(tx, role, confirmation)
	return nil
}

// SetRoleAdmin changes the admin role of role.
func (r *Roles) SetRoleAdmin(tx *chain.Tx, role, admin Role) {
	prev, had := r.admins[role]
	r.admins[role] = admin
	tx.Journal(chain.ChangeFunc(func() {
		if had {
			r.admins[role] = prev
		} else {
			delete(r.admins, role)
		}
	}))
	tx.Emit("RoleAdminChanged", map[string]string{
		"role":              role.Hex(),
		"previousAdminRole": prev.Hex(),
		"newAdminRole":      admin.Hex(),
	})
}

// Grant adds account to role without an authorization check. It reports
// whether the membership changed.
func (r *Roles) Grant(tx *chain.Tx, role Role, account common.Address) bool {
	if r.HasRole(role, account) {
		return false
	}
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		r.members[role] = set
	}
	set[account] = struct{}{}
	tx.Journal(chain.ChangeFunc(func() {
		delete(set, account)
	}))
	tx.Emit("RoleGranted", map[string]string{
		"role":    role.Hex(),
		"account": account.Hex(),
		"sender":  tx.Caller().Hex(),
	})
	return true
}

// Revoke removes account from role without an authorization check. It
// reports whether the membership changed.
func (r *Roles) Revoke(tx *chain.Tx, role Role, account common.Address) bool {
	if !r.HasRole(role, account) {
		return false
	}
	set := r.members[role]
	delete(set, account)
	tx.Journal(chain.ChangeFunc(func() {
		set[account] = struct{}{}
	}))
	tx.Emit("RoleRevoked", map[string]string{
		"role":    role.Hex(),
		"account": account.Hex(),
		"sender":  tx.Caller().Hex(),
	})
	return true
}

func (r *Roles) checkProtected(role Role, account common.Address) error {
	if role == DefaultAdminRole && account == r.seed && r.seed != (common.Address{}) {
		return ErrProtectedAccount
	}
	return nil
}
