// Package transport provides HTTP handlers for the artifact generator.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/pendergraft/zoppel/internal/artifacts/domain"
	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	"github.com/pendergraft/zoppel/internal/httpapi"
	"github.com/pendergraft/zoppel/internal/validation"
)

type (
	amountFunc func(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error)
	roleFunc   func(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error)
)

// Handler handles HTTP requests for the artifact generator.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new artifacts HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers the query routes (no identity required).
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleInfo)
	r.Get("/owners/{address}/tokens", h.handleOwnerTokens)
	r.Get("/tokens", h.handleTokenByIndex)
	r.Get("/tokens/{id}", h.handleGetToken)
	r.Get("/roles/{role}", h.handleRoleMembers)
	r.Get("/roles/{role}/{address}", h.handleHasRole)
	r.Get("/interfaces/{id}", h.handleSupportsInterface)
}

// RegisterWriteRoutes registers the routes that submit transactions.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/mint", h.handleMint)
	r.Post("/batch-mint", h.handleBatchMint)
	r.Put("/base-uri", h.handleSetBaseURI)
	r.Post("/minters", h.handleConcedeMinter)
	r.Delete("/minters/{address}", h.handleRevokeMinter)
	r.Post("/transfers", h.handleTransfer)
	r.Put("/stipend", h.handleSetStipend)
	r.Post("/fund", h.handleFund)
	r.Post("/approvals", h.handleApprove)
	r.Put("/operators", h.handleSetOperator)
	r.Post("/roles/grant", h.handleGrantRole)
	r.Post("/roles/revoke", h.handleRevokeRole)
	r.Post("/roles/renounce", h.handleRenounceRole)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromInfo(info))
}

func (h *Handler) handleOwnerTokens(w http.ResponseWriter, r *http.Request) {
	owner, err := validation.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	tokens, err := h.svc.ListTokens(r.Context(), owner)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromOwnerTokens(tokens))
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	token, err := h.svc.GetToken(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromToken(token))
}

func (h *Handler) handleTokenByIndex(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("index")
	if raw == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "index query parameter is required")
		return
	}
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "index must be a non-negative integer")
		return
	}
	token, err := h.svc.TokenByIndex(r.Context(), index)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromToken(token))
}

func (h *Handler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	account, err := validation.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	ok, err := h.svc.HasRole(r.Context(), role, account)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, RoleResponse{
		Role:    RoleName(role),
		Account: account.Hex(),
		HasRole: ok,
	})
}

func (h *Handler) handleRoleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	members, err := h.svc.RoleMembers(r.Context(), role)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	resp := RoleMembersResponse{Role: RoleName(role), Members: make([]string, len(members))}
	for i, m := range members {
		resp.Members[i] = m.Hex()
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSupportsInterface(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := validation.ParseInterfaceID(raw)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	ok, err := h.svc.SupportsInterface(r.Context(), id)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, InterfaceResponse{
		InterfaceID: hexutil.Encode(id[:]),
		Supported:   ok,
	})
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	to, err := validation.ParseAddress(req.To)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "to: "+err.Error())
		return
	}
	if err := validation.ValidateURI(req.URI); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "uri: "+err.Error())
		return
	}

	id, receipt, err := h.svc.Mint(r.Context(), caller, to, req.URI)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusCreated, receipt, MintResult{TokenID: strconv.FormatUint(id, 10)})
}

func (h *Handler) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req BatchMintRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	to, err := validation.ParseAddresses(req.To)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "to: "+err.Error())
		return
	}
	for i, uri := range req.URIs {
		if err := validation.ValidateURI(uri); err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("uris: entry %d: %s", i, err))
			return
		}
	}

	ids, receipt, err := h.svc.BatchMint(r.Context(), caller, to, req.URIs)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusCreated, receipt, BatchMintResult{TokenIDs: formatIDs(ids)})
}

func (h *Handler) handleSetBaseURI(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req BaseURIRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := validation.ValidateURI(req.BaseURI); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "baseUri: "+err.Error())
		return
	}

	receipt, err := h.svc.SetBaseURI(r.Context(), caller, req.BaseURI)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleConcedeMinter(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req MinterRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	account, err := validation.ParseAddress(req.Account)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "account: "+err.Error())
		return
	}

	receipt, err := h.svc.ConcedeMinterRole(r.Context(), caller, account)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleRevokeMinter(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	account, err := validation.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	receipt, err := h.svc.RevokeMinterRole(r.Context(), caller, account)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	from, err := validation.ParseAddress(req.From)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "from: "+err.Error())
		return
	}
	to, err := validation.ParseAddress(req.To)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "to: "+err.Error())
		return
	}
	id, err := validation.ParseTokenID(req.TokenID)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "tokenId: "+err.Error())
		return
	}
	var data []byte
	if req.Data != "" {
		if !req.Safe {
			httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "data requires a safe transfer")
			return
		}
		data, err = hexutil.Decode(req.Data)
		if err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "data: "+err.Error())
			return
		}
	}

	args := domain.TransferArgs{From: from, To: to, TokenID: id, Data: data}
	receipt, err := h.svc.Transfer(r.Context(), caller, args, req.Safe)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleSetStipend(w http.ResponseWriter, r *http.Request) {
	h.handleAmount(w, r, h.svc.SetStipend)
}

func (h *Handler) handleFund(w http.ResponseWriter, r *http.Request) {
	h.handleAmount(w, r, h.svc.Fund)
}

func (h *Handler) handleAmount(w http.ResponseWriter, r *http.Request, submit amountFunc) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "amount: "+err.Error())
		return
	}

	receipt, err := submit(r.Context(), caller, amount)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	to, err := validation.ParseAddress(req.To)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "to: "+err.Error())
		return
	}
	id, err := validation.ParseTokenID(req.TokenID)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "tokenId: "+err.Error())
		return
	}

	receipt, err := h.svc.Approve(r.Context(), caller, to, id)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req OperatorRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	operator, err := validation.ParseAddress(req.Operator)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "operator: "+err.Error())
		return
	}

	receipt, err := h.svc.SetApprovalForAll(r.Context(), caller, operator, req.Approved)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRole(w, r, h.svc.GrantRole)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRole(w, r, h.svc.RevokeRole)
}

func (h *Handler) handleRole(w http.ResponseWriter, r *http.Request, submit roleFunc) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "role: "+err.Error())
		return
	}
	account, err := validation.ParseAddress(req.Account)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "account: "+err.Error())
		return
	}

	receipt, err := submit(r.Context(), caller, role, account)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleRenounceRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "role: "+err.Error())
		return
	}

	receipt, err := h.svc.RenounceRole(r.Context(), caller, role)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

var roleNames = map[string]access.Role{
	"DEFAULT_ADMIN_ROLE": domain.DefaultAdminRole,
	"MINTER_ROLE":        domain.MinterRole,
	"MARKETPLACE_ROLE":   domain.MarketplaceRole,
}

// ParseRole accepts a role name (MINTER_ROLE, MARKETPLACE_ROLE,
// DEFAULT_ADMIN_ROLE) or a 0x-prefixed 32 byte role id.
func ParseRole(s string) (access.Role, error) {
	if role, ok := roleNames[strings.ToUpper(s)]; ok {
		return role, nil
	}
	if strings.HasPrefix(s, "0x") {
		return validation.ParseHash(s)
	}
	return access.Role{}, fmt.Errorf("unknown role %q", s)
}

// RoleName returns the name of a known role or its hex id.
func RoleName(role access.Role) string {
	for name, id := range roleNames {
		if id == role {
			return name
		}
	}
	return role.Hex()
}
