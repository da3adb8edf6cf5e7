package rpcerrors

import (
	"errors"
	"fmt"
)

// Kind 表示统一的桥接层错误类别，对应 wire 上的前缀。
type Kind string

const (
	KindInvalidJSON          Kind = "invalid_json"
	KindUnknownMethod        Kind = "unknown_method"
	KindClientNotInitialized Kind = "client_not_initialized"
	KindException            Kind = "exception"
	KindSignerLoadFailed     Kind = "failed_to_load_signer"
)

// Error 表示带类别的桥接层错误。Detail 为空时 wire 形式只有类别本身。
type Error struct {
	Kind   Kind
	Detail string
}

// New 创建一个新的桥接层错误。
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf 按格式创建 Detail。
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Error 实现 error 接口，返回 wire 形式。
func (e *Error) Error() string {
	return e.Wire()
}

// Wire 返回写回客户端的错误文本：`kind:detail` 或仅 `kind`。
func (e *Error) Wire() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ":" + e.Detail
}

// FromError 尝试从通用 error 中解析桥接层错误。
func FromError(err error) (*Error, bool) {
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr, true
	}
	return nil, false
}

// Passthrough 表示 backend 原样透传的错误文本，不加任何前缀。
type Passthrough struct {
	Message string
}

// NewPassthrough 包装一条 backend 返回的错误字符串。
func NewPassthrough(message string) *Passthrough {
	return &Passthrough{Message: message}
}

// Error 实现 error 接口。
func (p *Passthrough) Error() string {
	if p == nil {
		return ""
	}
	return p.Message
}

// WireMessage 把任意 error 转成响应里的错误文本：桥接层错误用
// `kind:detail`，backend 透传错误原样返回，其余兜底为 exception。
func WireMessage(err error) string {
	if err == nil {
		return ""
	}
	if bridgeErr, ok := FromError(err); ok {
		return bridgeErr.Wire()
	}
	var passthrough *Passthrough
	if errors.As(err, &passthrough) {
		return passthrough.Message
	}
	return New(KindException, err.Error()).Wire()
}
