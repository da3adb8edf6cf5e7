package bridgeapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

const defaultMaxLineBytes = 1 << 20

// LineServerConfig 控制 NDJSON 处理循环。
type LineServerConfig struct {
	Queue        *Queue
	Logger       *slog.Logger
	MaxLineBytes int
}

func (c *LineServerConfig) normalize() LineServerConfig {
	cfg := *c
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = defaultMaxLineBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// LineServer 在一对输入/输出流上运行 NDJSON 协议：每行一个请求
// 对象，每个请求恰好产生一行响应并立即 flush。空行跳过；坏行产生
// id 为 null 的 invalid_json 响应，循环继续。
type LineServer struct {
	queue   *Queue
	logger  *slog.Logger
	maxLine int
}

// request 是 wire 上的请求对象。id 保持原样回显，数值经 UseNumber
// 解码以避免精度或格式变化。params 延迟解析：外层不是 JSON 对象时
// 整行按 invalid_json 处理，params 形状不对时 id 仍可回显。
type request struct {
	ID     any             `json:"id"`
	Method any             `json:"method"`
	Params json.RawMessage `json:"params"`
}

type successResponse struct {
	ID     any     `json:"id"`
	Result *string `json:"result"`
}

type errorResponse struct {
	ID    any    `json:"id"`
	Error string `json:"error"`
}

// NewLineServer 构造 LineServer。
func NewLineServer(cfg LineServerConfig) (*LineServer, error) {
	if cfg.Queue == nil {
		return nil, errors.New("dispatch queue is required")
	}
	normalized := cfg.normalize()
	return &LineServer{
		queue:   normalized.Queue,
		logger:  normalized.Logger,
		maxLine: normalized.MaxLineBytes,
	}, nil
}

// Serve 逐行处理 r 上的请求并把响应写到 w，直到 EOF 或读取失败。
func (s *LineServer) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), s.maxLine)
	writer := bufio.NewWriter(w)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := s.writeFlush(writer, s.handleLine(ctx, line)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *LineServer) handleLine(ctx context.Context, line []byte) any {
	req, err := decodeRequest(line)
	if err != nil {
		return errorResponse{ID: nil, Error: rpcerrors.New(rpcerrors.KindInvalidJSON, err.Error()).Wire()}
	}
	params, err := decodeParams(req.Params)
	if err != nil {
		return errorResponse{ID: req.ID, Error: rpcerrors.Newf(rpcerrors.KindException, "invalid params: %v", err).Wire()}
	}
	method, ok := req.Method.(string)
	if !ok {
		method = fmt.Sprint(req.Method)
	}
	result, err := s.queue.Do(ctx, method, params)
	if err != nil {
		return errorResponse{ID: req.ID, Error: rpcerrors.WireMessage(err)}
	}
	return successResponse{ID: req.ID, Result: result}
}

func decodeRequest(line []byte) (request, error) {
	var req request
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		return request{}, err
	}
	// 一行必须恰好是一个 JSON 值，对象之后的任何残余都按坏行处理。
	if _, err := decoder.Token(); err != io.EOF {
		return request{}, errors.New("trailing data after request object")
	}
	return req, nil
}

func decodeParams(raw json.RawMessage) (Params, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Params{}, nil
	}
	var params Params
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *LineServer) writeFlush(w *bufio.Writer, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		// 响应结构固定，理论上不可达；保底仍然写一行错误。
		s.logger.Error("marshal response failed", slog.Any("error", err))
		encoded = []byte(`{"id":null,"error":"exception:marshal response failed"}`)
	}
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

// WriteFatal 在进程接受任何请求之前向输出流写入一条致命诊断响应。
// 仅用于 backend 加载失败的场景。
func WriteFatal(w io.Writer, err error) {
	resp := errorResponse{ID: nil, Error: rpcerrors.New(rpcerrors.KindSignerLoadFailed, err.Error()).Wire()}
	encoded, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return
	}
	_, _ = w.Write(append(encoded, '\n'))
}
