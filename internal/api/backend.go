package bridgeapi

import "context"

// CreateClientRequest 携带 backend 注册一个 API key 所需的全部配置。
type CreateClientRequest struct {
	BaseURL      string
	PrivateKey   string
	ChainID      int
	APIKeyIndex  int
	AccountIndex int64
}

// SignCreateOrderRequest 对应 backend SignCreateOrder 的参数表。
type SignCreateOrderRequest struct {
	MarketIndex      int
	ClientOrderIndex int64
	BaseAmount       int64
	Price            int
	IsAsk            int
	OrderType        int
	TimeInForce      int
	ReduceOnly       int
	TriggerPrice     int
	OrderExpiry      int64
	Nonce            int64
}

// SignCancelOrderRequest 对应 backend SignCancelOrder 的参数表。
type SignCancelOrderRequest struct {
	MarketIndex int
	OrderIndex  int64
	Nonce       int64
}

// SignCancelAllRequest 对应 backend SignCancelAllOrders 的参数表。
type SignCancelAllRequest struct {
	TimeInForce   int
	ScheduledTime int64
	Nonce         int64
}

// Backend 定义外部 signer 的同步操作集合。backend 持有唯一的全局
// active-key 上下文，签名类调用必须紧跟同一 key 的 SwitchAPIKey。
// backend 自身报告的错误应以 *rpcerrors.Passthrough 返回，桥接层
// 会将其原样写回客户端。
type Backend interface {
	CreateClient(ctx context.Context, req CreateClientRequest) error
	SwitchAPIKey(ctx context.Context, apiKeyIndex int) error
	SignCreateOrder(ctx context.Context, req SignCreateOrderRequest) (*string, error)
	SignCancelOrder(ctx context.Context, req SignCancelOrderRequest) (*string, error)
	SignCancelAllOrders(ctx context.Context, req SignCancelAllRequest) (*string, error)
	CreateAuthToken(ctx context.Context, deadlineMs int64) (*string, error)
}
