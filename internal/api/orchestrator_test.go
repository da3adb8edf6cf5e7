package bridgeapi

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/lighter-sign/bridge/internal/app/clientreg"
	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// fakeBackend 记录调用序列，并允许按操作注入 backend 错误。
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	createClientErr error
	switchErr       error
	signErr         error
	signPayload     *string

	lastCreate    CreateClientRequest
	lastSwitchKey int
	lastOrder     SignCreateOrderRequest
	lastCancel    SignCancelOrderRequest
	lastCancelAll SignCancelAllRequest
	lastDeadline  int64
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) CreateClient(_ context.Context, req CreateClientRequest) error {
	f.record("create_client")
	f.lastCreate = req
	return f.createClientErr
}

func (f *fakeBackend) SwitchAPIKey(_ context.Context, apiKeyIndex int) error {
	f.record("switch_api_key")
	f.lastSwitchKey = apiKeyIndex
	return f.switchErr
}

func (f *fakeBackend) SignCreateOrder(_ context.Context, req SignCreateOrderRequest) (*string, error) {
	f.record("sign_create_order")
	f.lastOrder = req
	return f.signPayload, f.signErr
}

func (f *fakeBackend) SignCancelOrder(_ context.Context, req SignCancelOrderRequest) (*string, error) {
	f.record("sign_cancel_order")
	f.lastCancel = req
	return f.signPayload, f.signErr
}

func (f *fakeBackend) SignCancelAllOrders(_ context.Context, req SignCancelAllRequest) (*string, error) {
	f.record("sign_cancel_all_orders")
	f.lastCancelAll = req
	return f.signPayload, f.signErr
}

func (f *fakeBackend) CreateAuthToken(_ context.Context, deadlineMs int64) (*string, error) {
	f.record("create_auth_token")
	f.lastDeadline = deadlineMs
	return f.signPayload, f.signErr
}

func newTestOrchestrator(t *testing.T, backend Backend) (*Orchestrator, *clientreg.Registry) {
	t.Helper()
	registry := clientreg.NewRegistry()
	orch, err := NewOrchestrator(OrchestratorConfig{
		Registry: registry,
		Backend:  backend,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return orch, registry
}

func configParams(apiKeyIndex int) Params {
	return Params{
		"apiKeyIndex":  json.Number(strconv.Itoa(apiKeyIndex)),
		"baseUrl":      "https://x",
		"privateKey":   "0xabc",
		"chainId":      json.Number("1"),
		"accountIndex": json.Number("5"),
	}
}

func TestCreateClientRegistersOnce(t *testing.T) {
	backend := &fakeBackend{}
	orch, registry := newTestOrchestrator(t, backend)

	result, err := orch.CreateClient(context.Background(), configParams(0))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, "ok", *result)
	require.Equal(t, []string{"create_client"}, backend.Calls())
	require.True(t, registry.IsInitialized(0))
	require.Equal(t, "https://x", backend.lastCreate.BaseURL)
	require.Equal(t, int64(5), backend.lastCreate.AccountIndex)

	// 重复注册同一个 index 不再触发 backend 调用。
	result, err = orch.CreateClient(context.Background(), configParams(0))
	require.NoError(t, err)
	require.Equal(t, "ok", *result)
	require.Equal(t, []string{"create_client"}, backend.Calls())
}

func TestCreateClientBackendErrorAllowsRetry(t *testing.T) {
	backend := &fakeBackend{createClientErr: rpcerrors.NewPassthrough("bad private key")}
	orch, registry := newTestOrchestrator(t, backend)

	_, err := orch.CreateClient(context.Background(), configParams(0))
	require.EqualError(t, err, "bad private key")
	require.False(t, registry.IsInitialized(0))

	// 错误没有标记注册状态，下一次调用重试注册并成功。
	backend.createClientErr = nil
	result, err := orch.CreateClient(context.Background(), configParams(0))
	require.NoError(t, err)
	require.Equal(t, "ok", *result)
	require.Equal(t, []string{"create_client", "create_client"}, backend.Calls())
	require.True(t, registry.IsInitialized(0))
}

func TestSigningWithoutConfigFails(t *testing.T) {
	backend := &fakeBackend{}
	orch, _ := newTestOrchestrator(t, backend)

	_, err := orch.SignCancelOrder(context.Background(), Params{
		"apiKeyIndex": json.Number("9"),
		"marketIndex": json.Number("1"),
		"orderIndex":  json.Number("7"),
		"nonce":       json.Number("42"),
	})
	bridgeErr, ok := rpcerrors.FromError(err)
	require.True(t, ok)
	require.Equal(t, rpcerrors.KindClientNotInitialized, bridgeErr.Kind)
	require.Empty(t, backend.Calls())
}

func TestSwitchBeforeSignOrdering(t *testing.T) {
	payload := `{"sig":"0xfeed"}`
	backend := &fakeBackend{signPayload: &payload}
	orch, _ := newTestOrchestrator(t, backend)

	params := configParams(0)
	params["marketIndex"] = json.Number("1")
	params["clientOrderIndex"] = json.Number("11")
	params["baseAmount"] = json.Number("100000")
	params["price"] = json.Number("250000")
	params["isAsk"] = json.Number("1")
	params["orderType"] = json.Number("0")
	params["timeInForce"] = json.Number("1")
	params["reduceOnly"] = json.Number("0")
	params["triggerPrice"] = json.Number("0")
	params["orderExpiry"] = json.Number("1700000000000")
	params["nonce"] = json.Number("42")

	result, err := orch.SignCreateOrder(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, payload, *result)
	require.Equal(t, []string{"create_client", "switch_api_key", "sign_create_order"}, backend.Calls())
	require.Equal(t, 0, backend.lastSwitchKey)
	require.Equal(t, int64(1700000000000), backend.lastOrder.OrderExpiry)
	require.Equal(t, 1, backend.lastOrder.IsAsk)

	// 已注册后再次签名：只剩 switch + sign，且 switch 永远在前。
	result, err = orch.SignCreateOrder(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, payload, *result)
	require.Equal(t, []string{
		"create_client", "switch_api_key", "sign_create_order",
		"switch_api_key", "sign_create_order",
	}, backend.Calls())
}

func TestSwitchErrorStopsSigning(t *testing.T) {
	backend := &fakeBackend{switchErr: rpcerrors.NewPassthrough("api key not found")}
	orch, registry := newTestOrchestrator(t, backend)
	registry.Upsert(4, clientreg.Config{BaseURL: "https://x", PrivateKey: "0xabc"})

	_, err := orch.CreateAuthToken(context.Background(), Params{
		"apiKeyIndex": json.Number("4"),
		"deadlineMs":  json.Number("1700000001000"),
	})
	require.EqualError(t, err, "api key not found")
	require.Equal(t, []string{"create_client", "switch_api_key"}, backend.Calls())
}

func TestInlineConfigOverwriteKeepsShortCircuit(t *testing.T) {
	backend := &fakeBackend{}
	orch, registry := newTestOrchestrator(t, backend)

	_, err := orch.CreateClient(context.Background(), configParams(0))
	require.NoError(t, err)
	require.Equal(t, []string{"create_client"}, backend.Calls())

	// 覆盖配置后 index 仍处于已注册状态：不重新注册，新配置只落在
	// registry 里，等待将来的重注册路径使用。
	params := configParams(0)
	params["privateKey"] = "0xnew"
	_, err = orch.CreateClient(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, []string{"create_client"}, backend.Calls())

	cfg, ok := registry.Lookup(0)
	require.True(t, ok)
	require.Equal(t, "0xnew", cfg.PrivateKey)
}

func TestSeededConfigRegistersLazily(t *testing.T) {
	backend := &fakeBackend{}
	orch, registry := newTestOrchestrator(t, backend)
	registry.Seed([]clientreg.SeedEntry{{
		APIKeyIndex: 2,
		Config:      clientreg.Config{BaseURL: "https://x", PrivateKey: "0xabc", ChainID: 1, AccountIndex: 5},
	}})

	_, err := orch.SignCancelAll(context.Background(), Params{
		"apiKeyIndex":   json.Number("2"),
		"timeInForce":   json.Number("0"),
		"scheduledTime": json.Number("0"),
		"nonce":         json.Number("7"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"create_client", "switch_api_key", "sign_cancel_all_orders"}, backend.Calls())
	require.Equal(t, 2, backend.lastCreate.APIKeyIndex)
}

func TestMissingOperationParam(t *testing.T) {
	backend := &fakeBackend{}
	orch, registry := newTestOrchestrator(t, backend)
	registry.Upsert(0, clientreg.Config{BaseURL: "https://x", PrivateKey: "0xabc"})
	registry.MarkInitialized(0)

	_, err := orch.SignCancelOrder(context.Background(), Params{
		"apiKeyIndex": json.Number("0"),
		"marketIndex": json.Number("1"),
		// orderIndex 缺失
		"nonce": json.Number("42"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "orderIndex")
	// ensure 与 switch 已执行：操作参数在切换之后才被取用。
	require.Equal(t, []string{"switch_api_key"}, backend.Calls())
}

func TestNullPayloadIsSuccess(t *testing.T) {
	backend := &fakeBackend{signPayload: nil}
	orch, registry := newTestOrchestrator(t, backend)
	registry.Upsert(0, clientreg.Config{BaseURL: "https://x", PrivateKey: "0xabc"})
	registry.MarkInitialized(0)

	result, err := orch.CreateAuthToken(context.Background(), Params{
		"apiKeyIndex": json.Number("0"),
		"deadlineMs":  json.Number("1700000001000"),
	})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, int64(1700000001000), backend.lastDeadline)
}
