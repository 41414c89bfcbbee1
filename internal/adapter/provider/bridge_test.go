package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/domain/entity"
	"educhain-wallet/internal/pkg/apperrors"
)

const testAddress = "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaa1"

type rpcReply struct {
	result interface{}
	err    *JSONRPCError
	status int
}

// fakeWallet is a JSON-RPC endpoint that answers per method and records what it saw.
type fakeWallet struct {
	mu      sync.Mutex
	replies map[string][]rpcReply
	calls   map[string]int
	params  map[string][]json.RawMessage
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		replies: map[string][]rpcReply{},
		calls:   map[string]int{},
		params:  map[string][]json.RawMessage{},
	}
}

// reply queues answers for method; the last one repeats.
func (f *fakeWallet) reply(method string, replies ...rpcReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method] = replies
}

func (f *fakeWallet) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeWallet) lastParams(method string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.params[method]
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func (f *fakeWallet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string          `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	n := f.calls[req.Method]
	f.calls[req.Method] = n + 1
	f.params[req.Method] = append(f.params[req.Method], req.Params)
	replies := f.replies[req.Method]
	f.mu.Unlock()

	if len(replies) == 0 {
		http.Error(w, "unexpected method "+req.Method, http.StatusInternalServerError)
		return
	}
	rep := replies[len(replies)-1]
	if n < len(replies) {
		rep = replies[n]
	}
	if rep.status != 0 {
		w.WriteHeader(rep.status)
		return
	}

	body := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rep.err != nil {
		body["error"] = rep.err
	} else {
		body["result"] = rep.result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestBridge(t *testing.T, wallet http.Handler) *Bridge {
	t.Helper()
	srv := httptest.NewServer(wallet)
	t.Cleanup(srv.Close)
	return NewBridge(config.ProviderConfig{
		URL:            srv.URL,
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     time.Millisecond,
		ReconnectDelay: 10 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestBridge_IsProviderPresent(t *testing.T) {
	absent := NewBridge(config.ProviderConfig{}, zaptest.NewLogger(t))
	assert.False(t, absent.IsProviderPresent(context.Background()))

	present := newTestBridge(t, newFakeWallet())
	assert.True(t, present.IsProviderPresent(context.Background()))
}

func TestBridge_PassiveReads(t *testing.T) {
	wallet := newFakeWallet()
	wallet.reply(methodAccounts, rpcReply{result: []string{testAddress, "not-an-address"}})
	wallet.reply(methodChainID, rpcReply{result: "0xA0A4C"})
	wallet.reply(methodGetBalance, rpcReply{result: "0xde0b6b3a7640000"})
	b := newTestBridge(t, wallet)
	ctx := context.Background()

	accounts, err := b.ReadAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testAddress}, accounts)

	chainID, err := b.ReadChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xA0A4C", chainID)

	balance, err := b.ReadNativeBalance(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Cmp(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
	assert.JSONEq(t, `["`+testAddress+`","latest"]`, string(wallet.lastParams(methodGetBalance)))

	assert.Zero(t, wallet.count(methodRequestAccounts), "passive reads must never prompt")
}

func TestBridge_PassiveReadRetriesTransportFailures(t *testing.T) {
	wallet := newFakeWallet()
	wallet.reply(methodChainID,
		rpcReply{status: http.StatusBadGateway},
		rpcReply{result: "0x1"},
	)
	b := newTestBridge(t, wallet)

	chainID, err := b.ReadChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1", chainID)
	assert.Equal(t, 2, wallet.count(methodChainID))
}

func TestBridge_PassiveReadDoesNotRetryProviderErrors(t *testing.T) {
	wallet := newFakeWallet()
	wallet.reply(methodAccounts, rpcReply{err: &JSONRPCError{Code: -32603, Message: "internal"}})
	b := newTestBridge(t, wallet)

	_, err := b.ReadAccounts(context.Background())
	require.Error(t, err)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, -32603, pe.Code)
	assert.Equal(t, 1, wallet.count(methodAccounts))
}

func TestBridge_ReadNativeBalanceRejectsBadAddress(t *testing.T) {
	b := newTestBridge(t, newFakeWallet())
	_, err := b.ReadNativeBalance(context.Background(), "0x123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBridge_RequestAccountsErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "user rejected", code: 4001, want: domain.ErrUserRejected},
		{name: "already pending", code: -32002, want: domain.ErrRequestAlreadyPending},
		{name: "other", code: -32603, want: domain.ErrConnectFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := newFakeWallet()
			wallet.reply(methodRequestAccounts, rpcReply{err: &JSONRPCError{Code: tt.code, Message: "nope"}})
			b := newTestBridge(t, wallet)

			_, err := b.RequestAccounts(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, wallet.count(methodRequestAccounts), "prompts are never retried")
		})
	}
}

func TestBridge_SwitchNetwork(t *testing.T) {
	network := testNetwork()

	t.Run("success sends normalized chain id", func(t *testing.T) {
		wallet := newFakeWallet()
		wallet.reply(methodSwitchChain, rpcReply{result: nil})
		b := newTestBridge(t, wallet)

		require.NoError(t, b.SwitchNetwork(context.Background(), network))
		assert.JSONEq(t, `[{"chainId":"0xa0a4c"}]`, string(wallet.lastParams(methodSwitchChain)))
	})

	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "unknown chain", code: 4902, want: domain.ErrUnknownNetwork},
		{name: "user rejected", code: 4001, want: domain.ErrUserRejected},
		{name: "internal", code: -32603, want: domain.ErrSwitchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := newFakeWallet()
			wallet.reply(methodSwitchChain, rpcReply{err: &JSONRPCError{Code: tt.code, Message: "nope"}})
			b := newTestBridge(t, wallet)

			err := b.SwitchNetwork(context.Background(), network)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope", "provider message is preserved")
		})
	}

	t.Run("transport failure is a switch failure", func(t *testing.T) {
		wallet := newFakeWallet()
		wallet.reply(methodSwitchChain, rpcReply{status: http.StatusServiceUnavailable})
		b := newTestBridge(t, wallet)

		err := b.SwitchNetwork(context.Background(), network)
		assert.ErrorIs(t, err, domain.ErrSwitchFailed)
		assert.ErrorIs(t, err, apperrors.ErrExternalServiceFailure)
	})
}

func TestBridge_AddNetwork(t *testing.T) {
	t.Run("sends the descriptor", func(t *testing.T) {
		wallet := newFakeWallet()
		wallet.reply(methodAddChain, rpcReply{result: nil})
		b := newTestBridge(t, wallet)

		require.NoError(t, b.AddNetwork(context.Background(), testNetwork()))

		var params []addChainParams
		require.NoError(t, json.Unmarshal(wallet.lastParams(methodAddChain), &params))
		require.Len(t, params, 1)
		assert.Equal(t, "0xa0a4c", params[0].ChainID)
		assert.Equal(t, "EDU Chain Testnet", params[0].ChainName)
		assert.Equal(t, []string{"https://rpc.open-campus-codex.gelato.digital"}, params[0].RPCURLs)
		assert.Equal(t, 18, params[0].NativeCurrency.Decimals)
	})

	t.Run("malformed descriptor never reaches the wallet", func(t *testing.T) {
		wallet := newFakeWallet()
		b := newTestBridge(t, wallet)

		bad := testNetwork()
		bad.RPCEndpoints = nil
		assert.ErrorIs(t, b.AddNetwork(context.Background(), bad), domain.ErrInvalidNetworkConfig)
		assert.Zero(t, wallet.count(methodAddChain))
	})

	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "invalid params", code: -32602, want: domain.ErrInvalidNetworkConfig},
		{name: "user rejected", code: 4001, want: domain.ErrUserRejected},
		{name: "internal", code: -32603, want: domain.ErrAddFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := newFakeWallet()
			wallet.reply(methodAddChain, rpcReply{err: &JSONRPCError{Code: tt.code, Message: "nope"}})
			b := newTestBridge(t, wallet)

			assert.ErrorIs(t, b.AddNetwork(context.Background(), testNetwork()), tt.want)
		})
	}
}

func TestBridge_PromptHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	b := NewBridge(config.ProviderConfig{URL: srv.URL, PromptTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t))

	start := time.Now()
	_, err := b.RequestAccounts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectFailed)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBridge_Events(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := []string{
		`{"event":"accountsChanged","data":["` + testAddress + `"]}`,
		`{"event":"somethingElse","data":1}`,
		`not json`,
		`{"event":"chainChanged","data":"0x1"}`,
		`{"event":"accountsChanged","data":[]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)

	b := NewBridge(config.ProviderConfig{
		URL:            srv.URL,
		EventsURL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectDelay: 10 * time.Millisecond,
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Events(ctx)
	require.NoError(t, err)

	var got []entity.ProviderEvent
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for events, got %d", len(got))
		}
	}

	assert.Equal(t, entity.EventAccountsChanged, got[0].Type)
	assert.Equal(t, []string{testAddress}, got[0].Accounts)
	assert.Equal(t, entity.ProviderEvent{Type: entity.EventChainChanged, ChainID: "0x1"}, got[1])
	assert.Equal(t, entity.EventAccountsChanged, got[2].Type)
	assert.Empty(t, got[2].Accounts)

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event channel was not closed after cancel")
	}
}

func TestBridge_EventsRequiresURL(t *testing.T) {
	b := NewBridge(config.ProviderConfig{URL: "http://127.0.0.1:1"}, zaptest.NewLogger(t))
	_, err := b.Events(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func testNetwork() entity.NetworkDescriptor {
	return entity.NetworkDescriptor{
		ChainID:           "0xA0A4C",
		Name:              "EDU Chain Testnet",
		Testnet:           true,
		Currency:          entity.Currency{Name: "EDU Token", Symbol: "EDU", Decimals: 18},
		RPCEndpoints:      []entity.RPCURL{"https://rpc.open-campus-codex.gelato.digital"},
		ExplorerEndpoints: []string{"https://edu-chain-testnet.blockscout.com"},
	}
}
