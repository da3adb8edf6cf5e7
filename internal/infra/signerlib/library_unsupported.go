//go:build !((linux || darwin) && (amd64 || arm64))

package signerlib

import (
	"context"
	"fmt"
	"runtime"

	bridgeapi "github.com/lighter-sign/bridge/internal/api"
)

// Library 在不支持动态链接的平台上只是一个不可构造的占位。
type Library struct{}

// Open 在不支持的平台上始终失败。
func Open(path string) (*Library, error) {
	return nil, fmt.Errorf("signer library loading unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
}

// Path 返回空路径。
func (l *Library) Path() string { return "" }

func (l *Library) CreateClient(context.Context, bridgeapi.CreateClientRequest) error {
	return errUnsupported()
}

func (l *Library) SwitchAPIKey(context.Context, int) error {
	return errUnsupported()
}

func (l *Library) SignCreateOrder(context.Context, bridgeapi.SignCreateOrderRequest) (*string, error) {
	return nil, errUnsupported()
}

func (l *Library) SignCancelOrder(context.Context, bridgeapi.SignCancelOrderRequest) (*string, error) {
	return nil, errUnsupported()
}

func (l *Library) SignCancelAllOrders(context.Context, bridgeapi.SignCancelAllRequest) (*string, error) {
	return nil, errUnsupported()
}

func (l *Library) CreateAuthToken(context.Context, int64) (*string, error) {
	return nil, errUnsupported()
}

func errUnsupported() error {
	return fmt.Errorf("signer library unsupported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
