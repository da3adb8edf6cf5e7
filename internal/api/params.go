package bridgeapi

import (
	"fmt"

	"github.com/lighter-sign/bridge/pkg/coerce"
)

// Params 是单个请求携带的命名参数集合。数值以 json.Number 形式
// 保存（解码端启用 UseNumber），按需转换为整型。
type Params map[string]any

// Has 判断参数是否存在。
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Int 读取并转换一个必填整型参数。
func (p Params) Int(key string) (int, error) {
	value, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing required param %q", key)
	}
	n, err := coerce.Int(value)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return n, nil
}

// Int64 读取并转换一个必填 int64 参数。
func (p Params) Int64(key string) (int64, error) {
	value, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing required param %q", key)
	}
	n, err := coerce.Int64(value)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return n, nil
}

// String 读取一个必填字符串参数。
func (p Params) String(key string) (string, error) {
	value, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing required param %q", key)
	}
	s, err := coerce.String(value)
	if err != nil {
		return "", fmt.Errorf("param %q: %w", key, err)
	}
	return s, nil
}
