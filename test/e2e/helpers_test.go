//go:build e2e

package e2e

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/zoppel/internal/config"
	"github.com/pendergraft/zoppel/internal/server"
	"github.com/pendergraft/zoppel/internal/storage"
	"github.com/pendergraft/zoppel/pkg/client"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// devKey is the private key of config.DevDeployer.
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	TestServer        *httptest.Server
	Store             storage.Store
}

// setupPostgresE starts a Postgres container and returns the connection string
func setupPostgresE(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("zoppel"),
		postgres.WithUsername("zoppel"),
		postgres.WithPassword("zoppel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return postgresContainer, connString, nil
}

func testConfig(connString string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: config.StorageConfig{
			Type:     "postgres",
			Postgres: config.PostgresConfig{URL: connString},
		},
		Auth:     config.AuthConfig{Type: "api-key"},
		Chain:    config.ChainConfig{ID: config.DefaultChainID},
		Security: config.SecurityConfig{FilterEnabled: true, MaxBodySizeMB: 1},
	}
}

// newServerE builds a server on a fresh connection to the database and
// replays or bootstraps the chain.
func newServerE(ctx context.Context, connString string) (*server.Server, storage.Store, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewPostgresStore(connString, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	cfg := testConfig(connString)
	srv := server.New(cfg, config.DevGenesis(cfg.Chain.ID), store, logger)
	if err := srv.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting chain: %w", err)
	}
	return srv, store, nil
}

// startServerE starts the zoppel server in-process
func startServerE(ctx context.Context, connString string) (*httptest.Server, storage.Store, error) {
	srv, store, err := newServerE(ctx, connString)
	if err != nil {
		return nil, nil, err
	}
	return httptest.NewServer(srv.Handler()), store, nil
}

// newClient creates a client for the test server
func newClient(ts *httptest.Server, apiKey string) *client.Client {
	return client.New(ts.URL, apiKey)
}

// createTestAPIKey creates an API key bound to address
func createTestAPIKey(t *testing.T, store storage.Store, name, address string) string {
	t.Helper()
	key, err := store.CreateAPIKey(context.Background(), name, address)
	require.NoError(t, err, "Failed to create API key")
	return key
}

// newAccount returns a fresh key and an authenticated client for its address
func newAccount(t *testing.T, name string) (*ecdsa.PrivateKey, string, *client.Client) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	return key, addr, newClient(testCtx.TestServer, createTestAPIKey(t, testCtx.Store, name, addr))
}

// deployerClient is an authenticated client for the genesis deployer
func deployerClient(t *testing.T, name string) *client.Client {
	t.Helper()
	return newClient(testCtx.TestServer, createTestAPIKey(t, testCtx.Store, name, config.DevDeployer))
}

// assertHTTPError asserts that an error is an APIError with the expected code
func assertHTTPError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	require.Error(t, err, "Expected an error")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "Error should be an APIError")
	require.Equal(t, expectedCode, apiErr.Code, "Error code mismatch")
}
