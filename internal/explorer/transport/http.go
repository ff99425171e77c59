// Package transport provides HTTP handlers for the chain explorer.
package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/zoppel/internal/explorer/domain"
	"github.com/pendergraft/zoppel/internal/httpapi"
)

// Handler handles HTTP requests for the chain explorer.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new explorer HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers the explorer routes. All of them are reads.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.handleHead)
	r.Get("/transactions", h.handleListTransactions)
	r.Get("/transactions/{hash}", h.handleGetTransaction)
	r.Get("/events", h.handleListEvents)
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	head, err := h.svc.Head(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromHead(head))
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.GetTransaction(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, FromTransaction(tx))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := httpapi.Limit(r)
	result, err := h.svc.ListTransactions(r.Context(), domain.TransactionFilter{
		Contract:  q.Get("contract"),
		Method:    q.Get("method"),
		Caller:    q.Get("caller"),
		Status:    q.Get("status"),
		Ascending: q.Get("order") == "asc",
	}, domain.PaginationParams{
		Limit:  limit,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}

	resp := TransactionListResponse{
		Data: make([]TransactionResponse, 0, len(result.Transactions)),
		Pagination: httpapi.Pagination{
			Limit:      limit,
			HasMore:    result.HasMore,
			NextCursor: result.NextCursor,
		},
	}
	for i := range result.Transactions {
		resp.Data = append(resp.Data, FromTransaction(&result.Transactions[i]))
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := httpapi.Limit(r)
	result, err := h.svc.ListEvents(r.Context(), domain.EventFilter{
		Contract: q.Get("contract"),
		Name:     q.Get("name"),
		TxHash:   q.Get("tx"),
	}, domain.PaginationParams{
		Limit:  limit,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		httpapi.WriteServiceError(w, err)
		return
	}

	resp := EventListResponse{
		Data: make([]EventResponse, 0, len(result.Events)),
		Pagination: httpapi.Pagination{
			Limit:      limit,
			HasMore:    result.HasMore,
			NextCursor: result.NextCursor,
		},
	}
	for _, e := range result.Events {
		resp.Data = append(resp.Data, FromEvent(e))
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}
