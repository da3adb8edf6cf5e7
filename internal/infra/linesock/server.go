package linesock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
)

// LineHandler 在单个连接的读写流上运行 NDJSON 协议循环。
type LineHandler interface {
	Serve(ctx context.Context, r io.Reader, w io.Writer) error
}

// Server 接受连接并为每个连接运行 handler。协议本身的串行保证由
// handler 背后的 dispatch 队列提供，这里只负责连接生命周期。
type Server struct {
	listener net.Listener
	handler  LineHandler
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewServer 构造 Server。
func NewServer(listener net.Listener, handler LineHandler, logger *slog.Logger) (*Server, error) {
	if listener == nil {
		return nil, errors.New("listener is required")
	}
	if handler == nil {
		return nil, errors.New("line handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{listener: listener, handler: handler, logger: logger}, nil
}

// Addr 返回监听地址。
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve 循环接受连接直到 ctx 取消或监听端口关闭，返回前等待所有
// 连接处理协程退出。
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()
	defer s.wg.Wait()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	s.logger.Debug("connection accepted", slog.String("remote", conn.RemoteAddr().String()))
	if err := s.handler.Serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
		s.logger.Warn("connection closed with error",
			slog.String("remote", conn.RemoteAddr().String()),
			slog.Any("error", err))
	}
}
