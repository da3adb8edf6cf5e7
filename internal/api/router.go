package bridgeapi

import (
	"context"

	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// 协议支持的方法名集合，封闭不可扩展。
const (
	MethodCreateClient    = "create_client"
	MethodSignCreateOrder = "sign_create_order"
	MethodSignCancelOrder = "sign_cancel_order"
	MethodSignCancelAll   = "sign_cancel_all"
	MethodCreateAuthToken = "create_auth_token"
)

// Router 把方法名映射到 Orchestrator 的处理函数。未知方法在进入
// 任何处理逻辑之前被拒绝，registry 状态不受影响。
type Router struct {
	orchestrator *Orchestrator
}

// NewRouter 构造 Router。
func NewRouter(orchestrator *Orchestrator) *Router {
	if orchestrator == nil {
		panic("orchestrator is required")
	}
	return &Router{orchestrator: orchestrator}
}

// Dispatch 执行一个已解析的请求。
func (r *Router) Dispatch(ctx context.Context, method string, params Params) (*string, error) {
	switch method {
	case MethodCreateClient:
		return r.orchestrator.CreateClient(ctx, params)
	case MethodSignCreateOrder:
		return r.orchestrator.SignCreateOrder(ctx, params)
	case MethodSignCancelOrder:
		return r.orchestrator.SignCancelOrder(ctx, params)
	case MethodSignCancelAll:
		return r.orchestrator.SignCancelAll(ctx, params)
	case MethodCreateAuthToken:
		return r.orchestrator.CreateAuthToken(ctx, params)
	default:
		return nil, rpcerrors.New(rpcerrors.KindUnknownMethod, method)
	}
}

// KnownMethod 判断方法名是否在封闭集合内，用于指标 label 收敛。
func KnownMethod(method string) bool {
	switch method {
	case MethodCreateClient, MethodSignCreateOrder, MethodSignCancelOrder, MethodSignCancelAll, MethodCreateAuthToken:
		return true
	default:
		return false
	}
}
