// Package transport provides HTTP handlers for native accounts.
package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/zoppel/internal/accounts/domain"
	"github.com/pendergraft/zoppel/internal/httpapi"
	"github.com/pendergraft/zoppel/internal/validation"
)

// Handler handles HTTP requests for native accounts.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new accounts HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only account routes.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/{address}", h.handleGet)
}

// RegisterWriteRoutes registers the value transfer route.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/transfers", h.handleSend)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	addr, err := validation.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	account, err := h.svc.Get(r.Context(), addr)
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromAccount(account))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	var req SendRequest
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

	receipt, err := h.svc.Send(r.Context(), caller, to, amount)
	if err != nil {
		httpapi.WriteTxError(w, r, receipt, err)
		return
	}
	httpapi.WriteReceipt(w, r, http.StatusOK, receipt, nil)
}
