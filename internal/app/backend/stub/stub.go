package stub

import (
	"context"

	bridgeapi "github.com/lighter-sign/bridge/internal/api"
	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// Backend 是一个占位实现，提示使用者需要接入真实的 signer 动态库。
// 所有操作都返回 backend 风格的透传错误，便于在没有动态库的环境里
// 联调 transport 与编排层。
type Backend struct{}

// New 返回一个占位 backend，实现了 bridgeapi.Backend 接口。
func New() *Backend { return &Backend{} }

// CreateClient 当前仅返回占位错误。
func (Backend) CreateClient(context.Context, bridgeapi.CreateClientRequest) error {
	return rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}

// SwitchAPIKey 当前仅返回占位错误。
func (Backend) SwitchAPIKey(context.Context, int) error {
	return rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}

// SignCreateOrder 当前仅返回占位错误。
func (Backend) SignCreateOrder(context.Context, bridgeapi.SignCreateOrderRequest) (*string, error) {
	return nil, rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}

// SignCancelOrder 当前仅返回占位错误。
func (Backend) SignCancelOrder(context.Context, bridgeapi.SignCancelOrderRequest) (*string, error) {
	return nil, rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}

// SignCancelAllOrders 当前仅返回占位错误。
func (Backend) SignCancelAllOrders(context.Context, bridgeapi.SignCancelAllRequest) (*string, error) {
	return nil, rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}

// CreateAuthToken 当前仅返回占位错误。
func (Backend) CreateAuthToken(context.Context, int64) (*string, error) {
	return nil, rpcerrors.NewPassthrough("stub backend: signer library not loaded")
}
