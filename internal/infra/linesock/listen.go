package linesock

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/mdlayher/vsock"
)

// Listen 按 endpoint scheme 打开 NDJSON 协议监听端口。支持
// `tcp://host:port`、`unix:///path/sock`、`vsock://<port>`，无 scheme
// 时按 tcp 地址处理。
func Listen(endpoint string) (net.Listener, error) {
	switch {
	case strings.HasPrefix(endpoint, "unix://"):
		return net.Listen("unix", strings.TrimPrefix(endpoint, "unix://"))
	case strings.HasPrefix(endpoint, "unix:"):
		return net.Listen("unix", strings.TrimPrefix(endpoint, "unix:"))
	case strings.HasPrefix(endpoint, "vsock://"):
		return listenVsock(strings.TrimPrefix(endpoint, "vsock://"))
	case strings.HasPrefix(endpoint, "vsock:"):
		return listenVsock(strings.TrimPrefix(endpoint, "vsock:"))
	case strings.HasPrefix(endpoint, "tcp://"):
		return net.Listen("tcp", strings.TrimPrefix(endpoint, "tcp://"))
	default:
		return net.Listen("tcp", endpoint)
	}
}

func listenVsock(target string) (net.Listener, error) {
	if strings.Contains(target, ":") {
		return nil, fmt.Errorf("invalid vsock endpoint %q: expected a bare port", target)
	}
	port, err := strconv.ParseUint(target, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid vsock port: %w", err)
	}
	return vsock.Listen(uint32(port), nil)
}
