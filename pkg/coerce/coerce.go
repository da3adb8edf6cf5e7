package coerce

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Int64 将 NDJSON 参数值转换为 int64。接受 JSON 数字（含小数截断）、
// 数字字符串与布尔值，与原调用方松散的整型用法保持兼容。
func Int64(value any) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v.String())
		}
		return int64(f), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v)
		}
		return n, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		// 来自未启用 UseNumber 的解码路径。
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("value %v is not an integer", value)
	}
}

// Int 同 Int64，但检查 int 取值范围。
func Int(value any) (int, error) {
	n, err := Int64(value)
	if err != nil {
		return 0, err
	}
	if int64(int(n)) != n {
		return 0, fmt.Errorf("integer %d overflows int", n)
	}
	return int(n), nil
}

// String 要求值为字符串。
func String(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value %v is not a string", value)
	}
	return s, nil
}
