package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_TokenInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/zoppel/" {
			t.Errorf("Expected path /api/v1/zoppel/, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET method, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":   "ZPL",
			"decimals": 18,
			"eip712Domain": map[string]any{
				"name":    "Zoppel",
				"chainId": 31337,
			},
		})
	}))
	defer server.Close()

	info, err := New(server.URL, "").TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo() error = %v", err)
	}
	if info.Symbol != "ZPL" || info.Decimals != 18 {
		t.Errorf("TokenInfo() = %+v, want ZPL with 18 decimals", info)
	}
	if info.Domain.ChainID != 31337 {
		t.Errorf("TokenInfo().Domain.ChainID = %d, want 31337", info.Domain.ChainID)
	}
}

func TestClient_TransferSendsCallerAndKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/zoppel/transfers" {
			t.Errorf("Expected path /api/v1/zoppel/transfers, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("Expected X-API-Key test-key, got %s", got)
		}
		if got := r.Header.Get(CallerHeader); got != "0xabc" {
			t.Errorf("Expected caller 0xabc, got %s", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", got)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["to"] != "0xdef" || body["amount"] != "10" {
			t.Errorf("unexpected body %v", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"transaction": map[string]any{"seq": 7, "hash": "0x01", "status": "success"},
		})
	}))
	defer server.Close()

	c := New(server.URL, "test-key", WithCaller("0xabc"))
	receipt, err := c.Transfer(context.Background(), "0xdef", "10")
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if receipt.Seq != 7 || receipt.Status != "success" {
		t.Errorf("Transfer() receipt = %+v", receipt)
	}
}

func TestClient_MintDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/artifacts/mint" {
			t.Errorf("Expected path /api/v1/artifacts/mint, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"transaction": map[string]any{"hash": "0x02", "status": "success"},
			"result":      map[string]any{"tokenId": "3"},
		})
	}))
	defer server.Close()

	id, receipt, err := New(server.URL, "").Mint(context.Background(), "0xdef", "a.json")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if id != "3" {
		t.Errorf("Mint() id = %s, want 3", id)
	}
	if receipt.Hash != "0x02" {
		t.Errorf("Mint() hash = %s, want 0x02", receipt.Hash)
	}
}

func TestClient_RevertedTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "UNAUTHORIZED_ACCOUNT",
				"message": "AccessControlUnauthorizedAccount",
			},
			"transaction": map[string]any{"hash": "0x03", "status": "reverted"},
		})
	}))
	defer server.Close()

	_, _, err := New(server.URL, "").Mint(context.Background(), "0xdef", "a.json")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.Code != "UNAUTHORIZED_ACCOUNT" || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 UNAUTHORIZED_ACCOUNT, got %d %s", apiErr.StatusCode, apiErr.Code)
	}
	if apiErr.Transaction == nil || apiErr.Transaction.Status != "reverted" {
		t.Errorf("Expected reverted transaction, got %+v", apiErr.Transaction)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL, "").Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", apiErr.StatusCode)
	}
}

func TestClient_ListTransactionsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("contract") != "zoppel" || q.Get("status") != "reverted" {
			t.Errorf("unexpected filter %s", r.URL.RawQuery)
		}
		if q.Get("order") != "asc" || q.Get("limit") != "5" || q.Get("cursor") != "9" {
			t.Errorf("unexpected paging %s", r.URL.RawQuery)
		}
		if q.Has("method") {
			t.Errorf("empty filters must be omitted: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data":       []map[string]any{{"seq": 10}},
			"pagination": map[string]any{"limit": 5, "hasMore": true, "nextCursor": "10"},
		})
	}))
	defer server.Close()

	list, err := New(server.URL, "").ListTransactions(context.Background(), TransactionQuery{
		Contract:  "zoppel",
		Status:    "reverted",
		Ascending: true,
		Limit:     5,
		Cursor:    "9",
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list.Data) != 1 || !list.Pagination.HasMore || list.Pagination.NextCursor != "10" {
		t.Errorf("ListTransactions() = %+v", list)
	}
}

func TestClient_RenounceOwnershipHasNoBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/zoppel/owner" {
			t.Errorf("Expected DELETE /api/v1/zoppel/owner, got %s %s", r.Method, r.URL.Path)
		}
		if r.ContentLength != 0 {
			t.Errorf("Expected empty body, got %d bytes", r.ContentLength)
		}
		json.NewEncoder(w).Encode(map[string]any{"transaction": map[string]any{"status": "success"}})
	}))
	defer server.Close()

	if _, err := New(server.URL, "").RenounceOwnership(context.Background()); err != nil {
		t.Fatalf("RenounceOwnership() error = %v", err)
	}
}
