package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/zoppel/internal/artifacts/domain"
	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/chain/access"
	"github.com/pendergraft/zoppel/internal/httpapi"
)

var (
	admin    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob      = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	contract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

// mockService implements domain.Service for testing
type mockService struct {
	minters map[common.Address]bool
	owners  map[uint64]common.Address
	uris    map[uint64]string
	base    string
	stipend *uint256.Int
	funds   *uint256.Int
	seq     uint64

	lastTransfer domain.TransferArgs
	lastSafe     bool
}

func newMockService() *mockService {
	return &mockService{
		minters: map[common.Address]bool{admin: true},
		owners:  make(map[uint64]common.Address),
		uris:    make(map[uint64]string),
		base:    "https://example.com/metadata/",
		stipend: uint256.NewInt(1e16),
		funds:   new(uint256.Int),
	}
}

func (m *mockService) receipt(caller common.Address, method string, err error) (*chain.Receipt, error) {
	r := &chain.Receipt{
		Seq:       m.seq,
		Hash:      common.BigToHash(uint256.NewInt(m.seq + 1).ToBig()),
		Contract:  domain.ContractName,
		Method:    method,
		Caller:    caller,
		Status:    chain.StatusSuccess,
		Timestamp: time.Unix(1700000000, 0),
	}
	m.seq++
	if err != nil {
		r.Status = chain.StatusReverted
		r.Err = err
	}
	return r, err
}

func (m *mockService) checkMinter(caller common.Address) error {
	if !m.minters[caller] {
		return &access.UnauthorizedAccountError{Account: caller, Role: domain.MinterRole}
	}
	return nil
}

func (m *mockService) Deploy(ctx context.Context, caller common.Address, args domain.DeployArgs) (*chain.Receipt, error) {
	return m.receipt(caller, domain.MethodDeploy, nil)
}

func (m *mockService) Info(ctx context.Context) (*domain.Info, error) {
	return &domain.Info{
		Address:       contract,
		Name:          "Artifacts",
		Symbol:        "ART",
		BaseURI:       m.base,
		TotalSupply:   uint64(len(m.owners)),
		NextTokenID:   uint64(len(m.owners)),
		StipendAmount: m.stipend.Dec(),
		Balance:       m.funds.Dec(),
		Admin:         admin,
	}, nil
}

func (m *mockService) Mint(ctx context.Context, caller, to common.Address, uri string) (uint64, *chain.Receipt, error) {
	if err := m.checkMinter(caller); err != nil {
		r, err := m.receipt(caller, domain.MethodMint, err)
		return 0, r, err
	}
	id := uint64(len(m.owners))
	m.owners[id] = to
	m.uris[id] = uri
	r, err := m.receipt(caller, domain.MethodMint, nil)
	return id, r, err
}

func (m *mockService) BatchMint(ctx context.Context, caller common.Address, to []common.Address, uris []string) ([]uint64, *chain.Receipt, error) {
	if err := m.checkMinter(caller); err != nil {
		r, err := m.receipt(caller, domain.MethodBatchMint, err)
		return nil, r, err
	}
	if len(to) != len(uris) {
		r, err := m.receipt(caller, domain.MethodBatchMint, &domain.LengthMismatchError{Recipients: len(to), URIs: len(uris)})
		return nil, r, err
	}
	ids := make([]uint64, 0, len(to))
	for i := range to {
		id := uint64(len(m.owners))
		m.owners[id] = to[i]
		m.uris[id] = uris[i]
		ids = append(ids, id)
	}
	r, err := m.receipt(caller, domain.MethodBatchMint, nil)
	return ids, r, err
}

func (m *mockService) ListTokens(ctx context.Context, owner common.Address) (*domain.OwnerTokens, error) {
	out := &domain.OwnerTokens{Owner: owner}
	for id := uint64(0); id < uint64(len(m.owners)); id++ {
		if m.owners[id] == owner {
			out.IDs = append(out.IDs, id)
			out.URIs = append(out.URIs, m.base+m.uris[id])
		}
	}
	out.Balance = uint64(len(out.IDs))
	return out, nil
}

func (m *mockService) GetToken(ctx context.Context, id uint64) (*domain.Token, error) {
	owner, ok := m.owners[id]
	if !ok {
		return nil, &domain.NonexistentTokenError{TokenID: id}
	}
	return &domain.Token{ID: id, Owner: owner, URI: m.base + m.uris[id]}, nil
}

func (m *mockService) TokenByIndex(ctx context.Context, index uint64) (*domain.Token, error) {
	if index >= uint64(len(m.owners)) {
		return nil, domain.ErrOutOfBoundsIndex
	}
	return m.GetToken(ctx, index)
}

func (m *mockService) SetBaseURI(ctx context.Context, caller common.Address, base string) (*chain.Receipt, error) {
	if caller != admin {
		return m.receipt(caller, domain.MethodSetBaseURI, &access.UnauthorizedAccountError{Account: caller, Role: domain.DefaultAdminRole})
	}
	m.base = base
	return m.receipt(caller, domain.MethodSetBaseURI, nil)
}

func (m *mockService) ConcedeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	if err := m.checkMinter(caller); err != nil {
		return m.receipt(caller, domain.MethodConcedeMinterRole, err)
	}
	if m.funds.Lt(m.stipend) {
		return m.receipt(caller, domain.MethodConcedeMinterRole, &domain.OutOfFundsError{Balance: m.funds, Needed: m.stipend})
	}
	m.funds = new(uint256.Int).Sub(m.funds, m.stipend)
	m.minters[account] = true
	return m.receipt(caller, domain.MethodConcedeMinterRole, nil)
}

func (m *mockService) RevokeMinterRole(ctx context.Context, caller, account common.Address) (*chain.Receipt, error) {
	if err := m.checkMinter(caller); err != nil {
		return m.receipt(caller, domain.MethodRevokeMinterRole, err)
	}
	delete(m.minters, account)
	return m.receipt(caller, domain.MethodRevokeMinterRole, nil)
}

func (m *mockService) SetStipend(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	m.stipend = amount
	return m.receipt(caller, domain.MethodSetETHAmount, nil)
}

func (m *mockService) Fund(ctx context.Context, caller common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	m.funds = new(uint256.Int).Add(m.funds, amount)
	return m.receipt(caller, domain.MethodFund, nil)
}

func (m *mockService) Transfer(ctx context.Context, caller common.Address, args domain.TransferArgs, safe bool) (*chain.Receipt, error) {
	m.lastTransfer = args
	m.lastSafe = safe
	return m.receipt(caller, domain.MethodTransferFrom, nil)
}

func (m *mockService) Approve(ctx context.Context, caller, to common.Address, id uint64) (*chain.Receipt, error) {
	return m.receipt(caller, domain.MethodApprove, nil)
}

func (m *mockService) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) (*chain.Receipt, error) {
	return m.receipt(caller, domain.MethodSetApprovalForAll, nil)
}

func (m *mockService) HasRole(ctx context.Context, role access.Role, account common.Address) (bool, error) {
	if role == domain.MinterRole {
		return m.minters[account], nil
	}
	return role == domain.DefaultAdminRole && account == admin, nil
}

func (m *mockService) RoleMembers(ctx context.Context, role access.Role) ([]common.Address, error) {
	members := []common.Address{}
	switch role {
	case domain.MinterRole:
		for addr, ok := range m.minters {
			if ok {
				members = append(members, addr)
			}
		}
		slices.SortFunc(members, common.Address.Cmp)
	case domain.DefaultAdminRole:
		members = append(members, admin)
	}
	return members, nil
}

func (m *mockService) GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	if role == domain.MinterRole {
		m.minters[account] = true
	}
	return m.receipt(caller, domain.MethodGrantRole, nil)
}

func (m *mockService) RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (*chain.Receipt, error) {
	if role == domain.MinterRole {
		delete(m.minters, account)
	}
	return m.receipt(caller, domain.MethodRevokeRole, nil)
}

func (m *mockService) RenounceRole(ctx context.Context, caller common.Address, role access.Role) (*chain.Receipt, error) {
	if role == domain.MinterRole {
		delete(m.minters, caller)
	}
	return m.receipt(caller, domain.MethodRenounceRole, nil)
}

func (m *mockService) SupportsInterface(ctx context.Context, id [4]byte) (bool, error) {
	return id == domain.InterfaceERC721, nil
}

func setupRouter(svc domain.Service) *chi.Mux {
	r := chi.NewRouter()
	h := NewHandler(svc)
	r.Route("/artifacts", func(r chi.Router) {
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
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
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

func errorCode(t *testing.T, resp map[string]any) string {
	t.Helper()
	body, ok := resp["error"].(map[string]any)
	require.True(t, ok, "missing error body: %v", resp)
	return body["code"].(string)
}

func TestHandler_Info(t *testing.T) {
	router := setupRouter(newMockService())

	rec, resp := do(t, router, "GET", "/artifacts/", common.Address{}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Artifacts", resp["name"])
	assert.Equal(t, "ART", resp["symbol"])
	assert.Equal(t, "10000000000000000", resp["stipendAmount"])
	assert.Equal(t, admin.Hex(), resp["admin"])
}

func TestHandler_Mint(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	t.Run("minter mints sequential ids", func(t *testing.T) {
		rec, resp := do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"uri1"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "0", resp["result"].(map[string]any)["tokenId"])

		tx := resp["transaction"].(map[string]any)
		assert.Equal(t, "success", tx["status"])
		assert.Equal(t, admin.Hex(), tx["caller"])

		rec, resp = do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"uri2"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "1", resp["result"].(map[string]any)["tokenId"])
	})

	t.Run("non minter is forbidden", func(t *testing.T) {
		rec, resp := do(t, router, "POST", "/artifacts/mint", bob, `{"to":"`+bob.Hex()+`","uri":"x"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "UNAUTHORIZED_ACCOUNT", errorCode(t, resp))

		tx, ok := resp["transaction"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "reverted", tx["status"])
	})

	t.Run("missing caller", func(t *testing.T) {
		rec, resp := do(t, router, "POST", "/artifacts/mint", common.Address{}, `{"to":"`+alice.Hex()+`","uri":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
	})

	t.Run("invalid recipient", func(t *testing.T) {
		rec, resp := do(t, router, "POST", "/artifacts/mint", admin, `{"to":"0x123","uri":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, resp))
	})

	t.Run("unknown field", func(t *testing.T) {
		rec, _ := do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"x","extra":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_BatchMint(t *testing.T) {
	router := setupRouter(newMockService())

	body := `{"to":["` + alice.Hex() + `","` + bob.Hex() + `"],"uris":["a","b"]}`
	rec, resp := do(t, router, "POST", "/artifacts/batch-mint", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"0", "1"}, resp["result"].(map[string]any)["tokenIds"])

	body = `{"to":["` + alice.Hex() + `"],"uris":["a","b"]}`
	rec, resp = do(t, router, "POST", "/artifacts/batch-mint", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LENGTH_MISMATCH", errorCode(t, resp))

	// An empty batch mints nothing and still succeeds
	rec, resp = do(t, router, "POST", "/artifacts/batch-mint", admin, `{"to":[],"uris":[]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []any{}, resp["result"].(map[string]any)["tokenIds"])

	rec, resp = do(t, router, "POST", "/artifacts/batch-mint", bob, `{"to":[],"uris":[]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED_ACCOUNT", errorCode(t, resp))
}

func TestHandler_OwnerTokens(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"uri1"}`)
	do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"uri2"}`)

	rec, resp := do(t, router, "GET", "/artifacts/owners/"+alice.Hex()+"/tokens", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), resp["balance"])
	assert.Equal(t, []any{"0", "1"}, resp["ids"])
	assert.Equal(t, []any{
		"https://example.com/metadata/uri1",
		"https://example.com/metadata/uri2",
	}, resp["uris"])

	rec, _ = do(t, router, "PUT", "/artifacts/base-uri", admin, `{"baseUri":"ipfs://cid/"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, resp = do(t, router, "GET", "/artifacts/owners/"+alice.Hex()+"/tokens", common.Address{}, "")
	assert.Equal(t, []any{"ipfs://cid/uri1", "ipfs://cid/uri2"}, resp["uris"])

	rec, _ = do(t, router, "GET", "/artifacts/owners/nope/tokens", common.Address{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Tokens(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/artifacts/mint", admin, `{"to":"`+alice.Hex()+`","uri":"uri1"}`)

	rec, resp := do(t, router, "GET", "/artifacts/tokens/0", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.Hex(), resp["owner"])
	assert.Equal(t, "https://example.com/metadata/uri1", resp["uri"])
	assert.NotContains(t, resp, "approved")

	rec, resp = do(t, router, "GET", "/artifacts/tokens/7", common.Address{}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NONEXISTENT_TOKEN", errorCode(t, resp))

	rec, resp = do(t, router, "GET", "/artifacts/tokens?index=0", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", resp["id"])

	rec, _ = do(t, router, "GET", "/artifacts/tokens?index=5", common.Address{}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, "GET", "/artifacts/tokens", common.Address{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ConcedeMinter(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)
	body := `{"account":"` + alice.Hex() + `"}`

	rec, resp := do(t, router, "POST", "/artifacts/minters", admin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OUT_OF_FUNDS", errorCode(t, resp))
	assert.False(t, svc.minters[alice])

	rec, _ = do(t, router, "POST", "/artifacts/fund", bob, `{"amount":"20000000000000000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, "POST", "/artifacts/minters", admin, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.minters[alice])

	rec, resp = do(t, router, "GET", "/artifacts/roles/MINTER_ROLE/"+alice.Hex(), common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["hasRole"])
	assert.Equal(t, "MINTER_ROLE", resp["role"])

	rec, resp = do(t, router, "GET", "/artifacts/roles/MINTER_ROLE", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{alice.Hex(), admin.Hex()}, resp["members"])

	rec, _ = do(t, router, "DELETE", "/artifacts/minters/"+alice.Hex(), admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.minters[alice])

	rec, resp = do(t, router, "GET", "/artifacts/roles/MINTER_ROLE", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{admin.Hex()}, resp["members"])

	rec, resp = do(t, router, "GET", "/artifacts/roles/ROOT", common.Address{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, resp))
}

func TestHandler_SetStipend(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	rec, _ := do(t, router, "PUT", "/artifacts/stipend", admin, `{"amount":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", svc.stipend.Dec())

	rec, resp := do(t, router, "PUT", "/artifacts/stipend", admin, `{"amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, resp))
}

func TestHandler_Transfer(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	body := `{"from":"` + alice.Hex() + `","to":"` + bob.Hex() + `","tokenId":"3","safe":true,"data":"0xbeef"}`
	rec, _ := do(t, router, "POST", "/artifacts/transfers", admin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, svc.lastSafe)
	assert.Equal(t, uint64(3), svc.lastTransfer.TokenID)
	assert.Equal(t, []byte{0xbe, 0xef}, []byte(svc.lastTransfer.Data))

	body = `{"from":"` + alice.Hex() + `","to":"` + bob.Hex() + `","tokenId":"3","data":"0xbeef"}`
	rec, _ = do(t, router, "POST", "/artifacts/transfers", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = `{"from":"` + alice.Hex() + `","to":"` + bob.Hex() + `","tokenId":"x"}`
	rec, _ = do(t, router, "POST", "/artifacts/transfers", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Roles(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)

	rec, _ := do(t, router, "POST", "/artifacts/roles/grant", admin, `{"role":"MINTER_ROLE","account":"`+bob.Hex()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.minters[bob])

	rec, _ = do(t, router, "POST", "/artifacts/roles/renounce", bob, `{"role":"`+domain.MinterRole.Hex()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.minters[bob])

	rec, _ = do(t, router, "POST", "/artifacts/roles/revoke", admin, `{"role":"ROOT","account":"`+bob.Hex()+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SupportsInterface(t *testing.T) {
	router := setupRouter(newMockService())

	rec, resp := do(t, router, "GET", "/artifacts/interfaces/0x80ac58cd", common.Address{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["supported"])

	rec, _ = do(t, router, "GET", "/artifacts/interfaces/0x80ac", common.Address{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("minter_role")
	require.NoError(t, err)
	assert.Equal(t, domain.MinterRole, role)

	role, err = ParseRole(domain.MarketplaceRole.Hex())
	require.NoError(t, err)
	assert.Equal(t, "MARKETPLACE_ROLE", RoleName(role))

	role, err = ParseRole("DEFAULT_ADMIN_ROLE")
	require.NoError(t, err)
	assert.Equal(t, access.DefaultAdminRole, role)

	_, err = ParseRole("0x1234")
	assert.Error(t, err)
}
