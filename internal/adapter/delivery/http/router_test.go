package http

import (
	"context"
	"encoding/json"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap/zaptest"

	handler "educhain-wallet/internal/adapter/handler/http"
	"educhain-wallet/internal/adapter/provider/providertest"
	"educhain-wallet/internal/adapter/storage/memory"
	"educhain-wallet/internal/application"
	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/domain/entity"
)

const testAddress = "0x1111111111111111111111111111111111111111"

type okChecker struct{}

func (okChecker) CheckRPC(context.Context, entity.RPCURL) (bool, time.Duration, string, error) {
	return true, 10 * time.Millisecond, "0xa0a4c", nil
}

type testServer struct {
	provider *providertest.Provider
	store    *application.WalletStore
	client   *fasthttp.Client
}

func newTestServer(t *testing.T, p *providertest.Provider) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	registry, err := application.NewNetworkRegistry(logger)
	require.NoError(t, err)
	expected := registry.DescribeNetwork(true)

	store := application.NewWalletStore(p, expected, logger)
	workflow := application.NewConnectionWorkflow(p, store, expected, logger)
	diagnostics := application.NewDiagnostics(p, expected, logger)
	cache := memory.NewCacheRepository(config.CacheConfig{DefaultExpiration: time.Minute}, logger)
	health := application.NewNetworkHealthService(cache, okChecker{}, config.CheckerConfig{CheckTimeout: time.Second}, logger)

	h := handler.NewWalletHandler(store, workflow, diagnostics, registry, health, true, logger)
	r := router.New()
	RegisterRoutes(r, h, logger)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: LoggingMiddleware(logger, r.Handler)}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &testServer{
		provider: p,
		store:    store,
		client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://wallet.test" + path)
	req.Header.SetMethod(method)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	require.NoError(t, s.client.DoTimeout(req, resp, 5*time.Second))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t, providertest.New())
	status, body := s.do(t, fasthttp.MethodGet, "/health", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "OK", string(body))
}

func TestRoutes_WalletLifecycle(t *testing.T) {
	p := providertest.New().
		SetRequestedAccounts(testAddress).
		SetChainID("0x1").
		SetBalance(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	s := newTestServer(t, p)

	status, body := s.do(t, fasthttp.MethodGet, "/wallet", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"isConnected":false,"address":null,"balance":null,"chainId":null,"isCorrectNetwork":false}`, string(body))

	status, body = s.do(t, fasthttp.MethodPost, "/wallet/connect", "")
	require.Equal(t, fasthttp.StatusOK, status, string(body))
	connected := decode[entity.WalletSnapshot](t, body)
	assert.True(t, connected.Connected)
	assert.False(t, connected.OnExpectedNetwork)
	assert.Equal(t, "1.0000", connected.BalanceOrEmpty())

	status, body = s.do(t, fasthttp.MethodPost, "/wallet/network", "")
	require.Equal(t, fasthttp.StatusOK, status, string(body))
	switched := decode[entity.WalletSnapshot](t, body)
	assert.True(t, switched.OnExpectedNetwork)

	p.SetAccounts()
	status, body = s.do(t, fasthttp.MethodPost, "/wallet/refresh", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.False(t, decode[entity.WalletSnapshot](t, body).Connected)
}

func TestRoutes_Errors(t *testing.T) {
	t.Run("user rejected connect", func(t *testing.T) {
		s := newTestServer(t, providertest.New().SetRequestError(domain.ErrUserRejected))
		status, body := s.do(t, fasthttp.MethodPost, "/wallet/connect", "")
		assert.Equal(t, fasthttp.StatusForbidden, status)

		errBody := decode[handler.ErrorResponse](t, body)
		assert.Equal(t, "UserRejected", errBody.Kind)
		assert.Equal(t, domain.Help(domain.ErrUserRejected), errBody.Help)
		assert.True(t, s.store.CurrentSnapshot().IsDisconnected())
	})

	t.Run("absent provider", func(t *testing.T) {
		s := newTestServer(t, providertest.New().SetAbsent(true))
		status, body := s.do(t, fasthttp.MethodPost, "/wallet/connect", "")
		assert.Equal(t, fasthttp.StatusServiceUnavailable, status)
		assert.Equal(t, "ProviderAbsent", decode[handler.ErrorResponse](t, body).Kind)
	})

	t.Run("refresh failure", func(t *testing.T) {
		s := newTestServer(t, providertest.New().SetAccountsError(context.DeadlineExceeded))
		status, body := s.do(t, fasthttp.MethodPost, "/wallet/refresh", "")
		assert.Equal(t, fasthttp.StatusBadGateway, status)
		assert.Equal(t, "Unknown", decode[handler.ErrorResponse](t, body).Kind)
	})

	t.Run("unregistered network", func(t *testing.T) {
		s := newTestServer(t, providertest.New())
		status, _ := s.do(t, fasthttp.MethodPost, "/wallet/network", `{"chainId":"0x1"}`)
		assert.Equal(t, fasthttp.StatusNotFound, status)
		assert.Zero(t, s.provider.Calls("SwitchNetwork"))
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, providertest.New())
		status, _ := s.do(t, fasthttp.MethodPost, "/wallet/network", `{`)
		assert.Equal(t, fasthttp.StatusBadRequest, status)
	})

	t.Run("switch rejected", func(t *testing.T) {
		s := newTestServer(t, providertest.New().SetSwitchError(domain.ErrUserRejected))
		status, _ := s.do(t, fasthttp.MethodPost, "/wallet/network", `{"chainId":"656476"}`)
		assert.Equal(t, fasthttp.StatusForbidden, status)
	})
}

func TestRoutes_Network(t *testing.T) {
	s := newTestServer(t, providertest.New().SetChainID("0x1"))

	status, body := s.do(t, fasthttp.MethodGet, "/network", "")
	require.Equal(t, fasthttp.StatusOK, status)
	info := decode[entity.NetworkInfo](t, body)
	assert.Equal(t, "0xA0A4C", info.ChainID)
	assert.Equal(t, uint64(656476), info.ChainIDDecimal)

	status, body = s.do(t, fasthttp.MethodGet, "/network/faucet", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"url":"https://drpc.org/faucet/open-campus-codex"}`, string(body))

	status, body = s.do(t, fasthttp.MethodGet, "/network/rpcs", "")
	require.Equal(t, fasthttp.StatusOK, status)
	rpcs := decode[[]entity.RPCDetail](t, body)
	require.Len(t, rpcs, 1)
	require.NotNil(t, rpcs[0].IsWorking)
	assert.True(t, *rpcs[0].IsWorking)

	status, body = s.do(t, fasthttp.MethodGet, "/wallet/diagnostics", "")
	require.Equal(t, fasthttp.StatusOK, status)
	diag := decode[port.Diagnosis](t, body)
	assert.False(t, diag.Valid)
	assert.Len(t, diag.Issues, 2)
}
