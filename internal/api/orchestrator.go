package bridgeapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lighter-sign/bridge/internal/app/clientreg"
	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// OrchestratorConfig 注入编排器依赖。
type OrchestratorConfig struct {
	Registry *clientreg.Registry
	Backend  Backend
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Orchestrator 按 ensure → switch → sign 的固定顺序驱动 backend。
// backend 只有一个全局 active-key 上下文，顺序被打乱时签名会落在
// 错误的 key 上，因此所有请求必须经由单一队列串行进入这里。
type Orchestrator struct {
	registry *clientreg.Registry
	backend  Backend
	metrics  *Metrics
	logger   *slog.Logger
}

// NewOrchestrator 构造 Orchestrator。
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		registry: cfg.Registry,
		backend:  cfg.Backend,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}, nil
}

// CreateClient 处理 create_client：登记配置并确保 backend 完成注册。
func (o *Orchestrator) CreateClient(ctx context.Context, params Params) (*string, error) {
	if err := o.ensureClient(ctx, params); err != nil {
		return nil, err
	}
	ok := "ok"
	return &ok, nil
}

// SignCreateOrder 处理 sign_create_order。
func (o *Orchestrator) SignCreateOrder(ctx context.Context, params Params) (*string, error) {
	if err := o.prepare(ctx, params); err != nil {
		return nil, err
	}
	req := SignCreateOrderRequest{}
	var err error
	if req.MarketIndex, err = params.Int("marketIndex"); err != nil {
		return nil, err
	}
	if req.ClientOrderIndex, err = params.Int64("clientOrderIndex"); err != nil {
		return nil, err
	}
	if req.BaseAmount, err = params.Int64("baseAmount"); err != nil {
		return nil, err
	}
	if req.Price, err = params.Int("price"); err != nil {
		return nil, err
	}
	if req.IsAsk, err = params.Int("isAsk"); err != nil {
		return nil, err
	}
	if req.OrderType, err = params.Int("orderType"); err != nil {
		return nil, err
	}
	if req.TimeInForce, err = params.Int("timeInForce"); err != nil {
		return nil, err
	}
	if req.ReduceOnly, err = params.Int("reduceOnly"); err != nil {
		return nil, err
	}
	if req.TriggerPrice, err = params.Int("triggerPrice"); err != nil {
		return nil, err
	}
	if req.OrderExpiry, err = params.Int64("orderExpiry"); err != nil {
		return nil, err
	}
	if req.Nonce, err = params.Int64("nonce"); err != nil {
		return nil, err
	}
	payload, err := o.backend.SignCreateOrder(ctx, req)
	o.observeBackend("sign_create_order", err)
	return payload, err
}

// SignCancelOrder 处理 sign_cancel_order。
func (o *Orchestrator) SignCancelOrder(ctx context.Context, params Params) (*string, error) {
	if err := o.prepare(ctx, params); err != nil {
		return nil, err
	}
	req := SignCancelOrderRequest{}
	var err error
	if req.MarketIndex, err = params.Int("marketIndex"); err != nil {
		return nil, err
	}
	if req.OrderIndex, err = params.Int64("orderIndex"); err != nil {
		return nil, err
	}
	if req.Nonce, err = params.Int64("nonce"); err != nil {
		return nil, err
	}
	payload, err := o.backend.SignCancelOrder(ctx, req)
	o.observeBackend("sign_cancel_order", err)
	return payload, err
}

// SignCancelAll 处理 sign_cancel_all。
func (o *Orchestrator) SignCancelAll(ctx context.Context, params Params) (*string, error) {
	if err := o.prepare(ctx, params); err != nil {
		return nil, err
	}
	req := SignCancelAllRequest{}
	var err error
	if req.TimeInForce, err = params.Int("timeInForce"); err != nil {
		return nil, err
	}
	if req.ScheduledTime, err = params.Int64("scheduledTime"); err != nil {
		return nil, err
	}
	if req.Nonce, err = params.Int64("nonce"); err != nil {
		return nil, err
	}
	payload, err := o.backend.SignCancelAllOrders(ctx, req)
	o.observeBackend("sign_cancel_all_orders", err)
	return payload, err
}

// CreateAuthToken 处理 create_auth_token。
func (o *Orchestrator) CreateAuthToken(ctx context.Context, params Params) (*string, error) {
	if err := o.prepare(ctx, params); err != nil {
		return nil, err
	}
	deadlineMs, err := params.Int64("deadlineMs")
	if err != nil {
		return nil, err
	}
	payload, err := o.backend.CreateAuthToken(ctx, deadlineMs)
	o.observeBackend("create_auth_token", err)
	return payload, err
}

// prepare 执行签名类请求共同的前置序列：确认注册，再切换 active key。
func (o *Orchestrator) prepare(ctx context.Context, params Params) error {
	if err := o.ensureClient(ctx, params); err != nil {
		return err
	}
	apiKeyIndex, err := params.Int("apiKeyIndex")
	if err != nil {
		return err
	}
	switchErr := o.backend.SwitchAPIKey(ctx, apiKeyIndex)
	o.observeBackend("switch_api_key", switchErr)
	return switchErr
}

// ensureClient 保证该 apiKeyIndex 的 backend 客户端已注册。
// 行内配置（baseUrl+privateKey 同时出现）无条件覆盖已存配置；
// 已注册的 index 直接短路返回，即使配置刚被覆盖也不重新注册。
func (o *Orchestrator) ensureClient(ctx context.Context, params Params) error {
	apiKeyIndex, err := params.Int("apiKeyIndex")
	if err != nil {
		return err
	}

	if params.Has("baseUrl") && params.Has("privateKey") {
		cfg := clientreg.Config{}
		if cfg.BaseURL, err = params.String("baseUrl"); err != nil {
			return err
		}
		if cfg.PrivateKey, err = params.String("privateKey"); err != nil {
			return err
		}
		if cfg.ChainID, err = params.Int("chainId"); err != nil {
			return err
		}
		if cfg.AccountIndex, err = params.Int64("accountIndex"); err != nil {
			return err
		}
		o.registry.Upsert(apiKeyIndex, cfg)
	}

	cfg, ok := o.registry.Lookup(apiKeyIndex)
	if !ok {
		return rpcerrors.New(rpcerrors.KindClientNotInitialized, "")
	}

	if o.registry.IsInitialized(apiKeyIndex) {
		return nil
	}

	start := time.Now()
	createErr := o.backend.CreateClient(ctx, CreateClientRequest{
		BaseURL:      cfg.BaseURL,
		PrivateKey:   cfg.PrivateKey,
		ChainID:      cfg.ChainID,
		APIKeyIndex:  apiKeyIndex,
		AccountIndex: cfg.AccountIndex,
	})
	o.observeBackend("create_client", createErr)
	if createErr != nil {
		// 不标记注册状态，后续请求可重试注册。
		return createErr
	}
	o.registry.MarkInitialized(apiKeyIndex)
	o.logger.Info("signer client registered",
		slog.Int("api_key_index", apiKeyIndex),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (o *Orchestrator) observeBackend(op string, err error) {
	o.metrics.incBackendCall(op, err == nil)
}
