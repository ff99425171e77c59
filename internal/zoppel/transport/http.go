// Package transport provides HTTP handlers for the Zoppel token.
package transport

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/zoppel/internal/httpapi"
	"github.com/pendergraft/zoppel/internal/validation"
	"github.com/pendergraft/zoppel/internal/zoppel/domain"
)

// Handler handles HTTP requests for the Zoppel token.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new Zoppel HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers the query routes (no identity required).
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleInfo)
	r.Get("/balances/{address}", h.handleBalance)
	r.Get("/allowances/{owner}/{spender}", h.handleAllowance)
	r.Get("/nonces/{owner}", h.handleNonce)
}

// RegisterWriteRoutes registers the routes that submit transactions.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/transfers", h.handleTransfer)
	r.Post("/transfers/from", h.handleTransferFrom)
	r.Post("/approvals", h.handleApprove)
	r.Post("/permits", h.handlePermit)
	r.Put("/owner", h.handleTransferOwnership)
	r.Delete("/owner", h.handleRenounceOwnership)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromInfo(info))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := validation.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	balance, err := h.svc.BalanceOf(r.Context(), account)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account.Hex(), Balance: balance.Dec()})
}

func (h *Handler) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := validation.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "owner: "+err.Error())
		return
	}
	spender, err := validation.ParseAddress(chi.URLParam(r, "spender"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "spender: "+err.Error())
		return
	}
	allowance, err := h.svc.Allowance(r.Context(), owner, spender)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, AllowanceResponse{
		Owner:     owner.Hex(),
		Spender:   spender.Hex(),
		Allowance: allowance.Dec(),
	})
}

func (h *Handler) handleNonce(w http.ResponseWriter, r *http.Request) {
	owner, err := validation.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	nonce, err := h.svc.Nonces(r.Context(), owner)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, NonceResponse{Owner: owner.Hex(), Nonce: nonce})
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
	to, err := validation.ParseAddress(req.To)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "to: "+err.Error())
		return
	}
	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "amount: "+err.Error())
		return
	}

	receipt, err := h.svc.Transfer(r.Context(), caller, to, amount)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req TransferFromRequest
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
	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "amount: "+err.Error())
		return
	}

	receipt, err := h.svc.TransferFrom(r.Context(), caller, from, to, amount)
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
	spender, err := validation.ParseAddress(req.Spender)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "spender: "+err.Error())
		return
	}
	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "amount: "+err.Error())
		return
	}

	receipt, err := h.svc.Approve(r.Context(), caller, spender, amount)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handlePermit(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req PermitRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	args, err := parsePermit(req)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	receipt, err := h.svc.Permit(r.Context(), caller, args)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func parsePermit(req PermitRequest) (domain.PermitArgs, error) {
	var args domain.PermitArgs
	var err error
	if args.Owner, err = validation.ParseAddress(req.Owner); err != nil {
		return args, fmt.Errorf("owner: %w", err)
	}
	if args.Spender, err = validation.ParseAddress(req.Spender); err != nil {
		return args, fmt.Errorf("spender: %w", err)
	}
	if args.Value, err = validation.ParseAmount(req.Value); err != nil {
		return args, fmt.Errorf("value: %w", err)
	}
	if args.Deadline, err = validation.ParseAmount(req.Deadline); err != nil {
		return args, fmt.Errorf("deadline: %w", err)
	}
	args.V = req.V
	if args.R, err = validation.ParseHash(req.R); err != nil {
		return args, fmt.Errorf("r: %w", err)
	}
	if args.S, err = validation.ParseHash(req.S); err != nil {
		return args, fmt.Errorf("s: %w", err)
	}
	return args, nil
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req OwnerRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	newOwner, err := validation.ParseAddress(req.NewOwner)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "newOwner: "+err.Error())
		return
	}

	receipt, err := h.svc.TransferOwnership(r.Context(), caller, newOwner)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}

func (h *Handler) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	receipt, err := h.svc.RenounceOwnership(r.Context(), caller)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}
