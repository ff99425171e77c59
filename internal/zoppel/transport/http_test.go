package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	"github.com/pendergraft/zoppel/internal/httpapi"
	"github.com/pendergraft/zoppel/internal/zoppel/domain"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

// mockService implements domain.Service for testing
type mockService struct {
	owner      common.Address
	balances   map[common.Address]*uint256.Int
	allowances map[[2]common.Address]*uint256.Int
	permits    []domain.PermitArgs
}

func newMockService() *mockService {
	return &mockService{
		owner:      owner,
		balances:   map[common.Address]*uint256.Int{owner: new(uint256.Int).Set(domain.MaxSupply)},
		allowances: make(map[[2]common.Address]*uint256.Int),
	}
}

func (m *mockService) receipt(caller common.Address, method string, err error) (*chain.Receipt, error) {
	r := &chain.Receipt{Contract: domain.ContractName, Method: method, Caller: caller, Status: chain.StatusSuccess}
	if err != nil {
		r.Status = chain.StatusReverted
		r.Err = err
	}
	return r, err
}

func (m *mockService) balance(a common.Address) *uint256.Int {
	if b, ok := m.balances[a]; ok {
		return b
	}
	return new(uint256.Int)
}

func (m *mockService) Deploy(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	return m.receipt(caller, domain.MethodDeploy, nil)
}

func (m *mockService) Info(ctx context.Context) (*domain.Info, error) {
	return &domain.Info{
		Name:        domain.Name,
		Symbol:      domain.Symbol,
		Decimals:    domain.Decimals,
		TotalSupply: domain.MaxSupply.Dec(),
		MaxSupply:   domain.MaxSupply.Dec(),
		Owner:       m.owner,
		Domain:      domain.Domain{Name: domain.Name, Version: domain.Version, ChainID: 31337},
	}, nil
}

func (m *mockService) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return m.balance(account), nil
}

func (m *mockService) Allowance(ctx context.Context, o, spender common.Address) (*uint256.Int, error) {
	if a, ok := m.allowances[[2]common.Address{o, spender}]; ok {
		return a, nil
	}
	return new(uint256.Int), nil
}

func (m *mockService) Nonces(ctx context.Context, o common.Address) (uint64, error) {
	return uint64(len(m.permits)), nil
}

func (m *mockService) Transfer(ctx context.Context, caller, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	balance := m.balance(caller)
	if balance.Lt(amount) {
		return m.receipt(caller, domain.MethodTransfer, &domain.InsufficientBalanceError{Sender: caller, Balance: balance, Needed: amount})
	}
	m.balances[caller] = new(uint256.Int).Sub(balance, amount)
	m.balances[to] = new(uint256.Int).Add(m.balance(to), amount)
	return m.receipt(caller, domain.MethodTransfer, nil)
}

func (m *mockService) Approve(ctx context.Context, caller, spender common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	m.allowances[[2]common.Address{caller, spender}] = amount
	return m.receipt(caller, domain.MethodApprove, nil)
}

func (m *mockService) TransferFrom(ctx context.Context, caller, from, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	return m.receipt(caller, domain.MethodTransferFrom, nil)
}

func (m *mockService) Permit(ctx context.Context, caller common.Address, args domain.PermitArgs) (*chain.Receipt, error) {
	m.permits = append(m.permits, args)
	return m.receipt(caller, domain.MethodPermit, nil)
}

func (m *mockService) TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*chain.Receipt, error) {
	if caller != m.owner {
		return m.receipt(caller, domain.MethodTransferOwnership, &access.OwnableUnauthorizedAccountError{Account: caller})
	}
	m.owner = newOwner
	return m.receipt(caller, domain.MethodTransferOwnership, nil)
}

func (m *mockService) RenounceOwnership(ctx context.Context, caller common.Address) (*chain.Receipt, error) {
	if caller != m.owner {
		return m.receipt(caller, domain.MethodRenounceOwnership, &access.OwnableUnauthorizedAccountError{Account: caller})
	}
	m.owner = common.Address{}
	return m.receipt(caller, domain.MethodRenounceOwnership, nil)
}

func setupRouter(svc domain.Service) *chi.Mux {
	r := chi.NewRouter()
	h := NewHandler(svc)
	r.Route("/zoppel", func(r chi.Router) {
		h.RegisterReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.DevMiddleware(httpapi.WriteError))
			h.RegisterWriteRoutes(r)
		})
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path string, caller common.Address, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != (common.Address{}) {
		req.Header.Set(auth.CallerHeader, caller.Hex())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestHandler_Info(t *testing.T) {
	router := setupRouter(newMockService())

	rec, resp := do(t, router, "GET", "/zoppel/", common.Address{}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Zoppel", resp["name"])
	assert.Equal(t, "ZPL", resp["symbol"])
	assert.Equal(t, float64(18), resp["decimals"])
	assert.Equal(t, "21000000000000000000000000", resp["maxSupply"])
	assert.Equal(t, owner.Hex(), resp["owner"])
	assert.Equal(t, float64(31337), resp["eip712Domain"].(map[string]any)["chainId"])
}

func TestHandler_Transfer(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	rec, resp := do(t, router, "POST", "/zoppel/transfers", owner, `{"to":"`+alice.Hex()+`","amount":"1000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", resp["transaction"].(map[string]any)["status"])

	rec, resp = do(t, router, "GET", "/zoppel/balances/"+alice.Hex(), common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", resp["balance"])

	t.Run("insufficient balance reverts", func(t *testing.T) {
		rec, resp := do(t, router, "POST", "/zoppel/transfers", bob, `{"to":"`+alice.Hex()+`","amount":"1"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "REVERTED", resp["error"].(map[string]any)["code"])
		assert.Equal(t, "reverted", resp["transaction"].(map[string]any)["status"])
	})

	t.Run("amount must be decimal", func(t *testing.T) {
		rec, _ := do(t, router, "POST", "/zoppel/transfers", owner, `{"to":"`+alice.Hex()+`","amount":"0x10"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Allowance(t *testing.T) {
	router := setupRouter(newMockService())

	rec, _ := do(t, router, "POST", "/zoppel/approvals", owner, `{"spender":"`+bob.Hex()+`","amount":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := do(t, router, "GET", "/zoppel/allowances/"+owner.Hex()+"/"+bob.Hex(), common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50", resp["allowance"])

	rec, _ = do(t, router, "GET", "/zoppel/allowances/"+owner.Hex()+"/bob", common.Address{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, "POST", "/zoppel/transfers/from", bob, `{"from":"`+owner.Hex()+`","to":"`+alice.Hex()+`","amount":"10"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Permit(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	r := common.HexToHash("0x01").Hex()
	s := common.HexToHash("0x02").Hex()
	body := `{"owner":"` + owner.Hex() + `","spender":"` + bob.Hex() + `","value":"7","deadline":"99","v":27,"r":"` + r + `","s":"` + s + `"}`

	rec, _ := do(t, router, "POST", "/zoppel/permits", alice, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.permits, 1)
	assert.Equal(t, uint8(27), svc.permits[0].V)
	assert.Equal(t, "99", svc.permits[0].Deadline.Dec())
	assert.Equal(t, bob, svc.permits[0].Spender)

	rec, resp := do(t, router, "GET", "/zoppel/nonces/"+owner.Hex(), common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["nonce"])

	bad := `{"owner":"` + owner.Hex() + `","spender":"` + bob.Hex() + `","value":"7","deadline":"99","v":27,"r":"0x01","s":"` + s + `"}`
	rec, resp = do(t, router, "POST", "/zoppel/permits", alice, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"].(map[string]any)["message"], "r: ")
}

func TestHandler_Ownership(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	rec, resp := do(t, router, "PUT", "/zoppel/owner", alice, `{"newOwner":"`+alice.Hex()+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED_ACCOUNT", resp["error"].(map[string]any)["code"])

	rec, _ = do(t, router, "PUT", "/zoppel/owner", owner, `{"newOwner":"`+alice.Hex()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice, svc.owner)

	rec, _ = do(t, router, "DELETE", "/zoppel/owner", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.Address{}, svc.owner)
}
