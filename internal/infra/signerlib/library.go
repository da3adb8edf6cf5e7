//go:build (linux || darwin) && (amd64 || arm64)

package signerlib

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	bridgeapi "github.com/lighter-sign/bridge/internal/api"
	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// strOrErr 对应动态库返回的 {str, err} 结构：恰好一个指针非空，
// 或两者都为空表示成功且无负载。
type strOrErr struct {
	Str *byte
	Err *byte
}

// Library 通过 purego 绑定 signer 动态库的导出符号，实现
// bridgeapi.Backend。库内部持有全局 active-key 上下文，调用方必须
// 串行访问。
type Library struct {
	path string

	createClient    func(baseURL, privateKey string, chainID, apiKeyIndex int32, accountIndex int64) *byte
	switchAPIKey    func(apiKeyIndex int32) *byte
	signCreateOrder func(marketIndex int32, clientOrderIndex, baseAmount int64, price, isAsk, orderType, timeInForce, reduceOnly, triggerPrice int32, orderExpiry, nonce int64) strOrErr
	signCancelOrder func(marketIndex int32, orderIndex, nonce int64) strOrErr
	signCancelAll   func(timeInForce int32, scheduledTime, nonce int64) strOrErr
	createAuthToken func(deadlineMs int64) strOrErr
}

// Open 加载动态库并绑定全部符号。任何失败（dlopen、符号缺失）都
// 以 error 返回，由调用方决定是否致命。
func Open(path string) (lib *Library, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lib, err = nil, fmt.Errorf("bind signer symbols: %v", rec)
		}
	}()
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	lib = &Library{path: path}
	purego.RegisterLibFunc(&lib.createClient, handle, "CreateClient")
	purego.RegisterLibFunc(&lib.switchAPIKey, handle, "SwitchAPIKey")
	purego.RegisterLibFunc(&lib.signCreateOrder, handle, "SignCreateOrder")
	purego.RegisterLibFunc(&lib.signCancelOrder, handle, "SignCancelOrder")
	purego.RegisterLibFunc(&lib.signCancelAll, handle, "SignCancelAllOrders")
	purego.RegisterLibFunc(&lib.createAuthToken, handle, "CreateAuthToken")
	return lib, nil
}

// Path 返回已加载库的路径。
func (l *Library) Path() string { return l.path }

// CreateClient 注册一个 API key 的客户端。
func (l *Library) CreateClient(_ context.Context, req bridgeapi.CreateClientRequest) error {
	ptr := l.createClient(req.BaseURL, req.PrivateKey, int32(req.ChainID), int32(req.APIKeyIndex), req.AccountIndex)
	return maybeError(ptr)
}

// SwitchAPIKey 切换库内的全局 active key。
func (l *Library) SwitchAPIKey(_ context.Context, apiKeyIndex int) error {
	return maybeError(l.switchAPIKey(int32(apiKeyIndex)))
}

// SignCreateOrder 对下单交易签名。
func (l *Library) SignCreateOrder(_ context.Context, req bridgeapi.SignCreateOrderRequest) (*string, error) {
	res := l.signCreateOrder(
		int32(req.MarketIndex),
		req.ClientOrderIndex,
		req.BaseAmount,
		int32(req.Price),
		int32(req.IsAsk),
		int32(req.OrderType),
		int32(req.TimeInForce),
		int32(req.ReduceOnly),
		int32(req.TriggerPrice),
		req.OrderExpiry,
		req.Nonce,
	)
	return unwrap(res)
}

// SignCancelOrder 对撤单交易签名。
func (l *Library) SignCancelOrder(_ context.Context, req bridgeapi.SignCancelOrderRequest) (*string, error) {
	return unwrap(l.signCancelOrder(int32(req.MarketIndex), req.OrderIndex, req.Nonce))
}

// SignCancelAllOrders 对全量撤单交易签名。
func (l *Library) SignCancelAllOrders(_ context.Context, req bridgeapi.SignCancelAllRequest) (*string, error) {
	return unwrap(l.signCancelAll(int32(req.TimeInForce), req.ScheduledTime, req.Nonce))
}

// CreateAuthToken 生成鉴权 token。
func (l *Library) CreateAuthToken(_ context.Context, deadlineMs int64) (*string, error) {
	return unwrap(l.createAuthToken(deadlineMs))
}

func maybeError(ptr *byte) error {
	if msg := goString(ptr); msg != "" {
		return rpcerrors.NewPassthrough(msg)
	}
	return nil
}

func unwrap(res strOrErr) (*string, error) {
	if msg := goString(res.Err); msg != "" {
		return nil, rpcerrors.NewPassthrough(msg)
	}
	if res.Str == nil {
		return nil, nil
	}
	payload := goString(res.Str)
	return &payload, nil
}

// goString 复制以 NUL 结尾的 C 字符串。动态库返回的指针归库所有，
// 这里不做释放。
func goString(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var out []byte
	for p := unsafe.Pointer(ptr); *(*byte)(p) != 0; p = unsafe.Add(p, 1) {
		out = append(out, *(*byte)(p))
	}
	return string(out)
}
