package bridgeapi

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lighter-sign/bridge/pkg/rpcerrors"
)

// ErrQueueClosed 表示队列已停止，不再接受请求。
var ErrQueueClosed = errors.New("dispatch queue closed")

// QueueConfig 控制串行队列行为。
type QueueConfig struct {
	Router     *Router
	MaxPending int
	Metrics    *Metrics
	Logger     *slog.Logger
}

func (c *QueueConfig) normalize() QueueConfig {
	cfg := *c
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 256
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Queue 把所有 transport 的请求汇聚到单个 worker 顺序执行。
// backend 的 switch-then-sign 序列不允许与其它请求交错，串行队列
// 是多 transport 并存时维持该不变量的唯一通道。
type Queue struct {
	cfg     QueueConfig
	router  *Router
	jobs    chan *queueJob
	stopCh  chan struct{}
	metrics *Metrics
	logger  *slog.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type queueJob struct {
	ctx    context.Context
	method string
	params Params
	done   chan jobResult
}

type jobResult struct {
	result *string
	err    error
}

// NewQueue 创建队列并启动唯一的 worker。
func NewQueue(cfg QueueConfig) (*Queue, error) {
	if cfg.Router == nil {
		return nil, errors.New("router is required")
	}
	normalized := cfg.normalize()
	q := &Queue{
		cfg:     normalized,
		router:  normalized.Router,
		jobs:    make(chan *queueJob, normalized.MaxPending),
		stopCh:  make(chan struct{}),
		metrics: normalized.Metrics,
		logger:  normalized.Logger,
	}
	q.wg.Add(1)
	go q.worker()
	return q, nil
}

// Do 提交一个请求并阻塞等待结果。提交顺序即执行顺序。
func (q *Queue) Do(ctx context.Context, method string, params Params) (*string, error) {
	job := &queueJob{
		ctx:    ctx,
		method: method,
		params: params,
		done:   make(chan jobResult, 1),
	}
	// 读锁下入队：Close 持写锁翻转 closed，因此 stopCh 必然在本次
	// 入队完成之后才关闭，job 要么被 worker 执行，要么被排空回填。
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	q.jobs <- job
	q.metrics.incQueueDepth()
	q.mu.RUnlock()
	res := <-job.done
	return res.result, res.err
}

// Close 停止 worker。已入队未执行的请求以 ErrQueueClosed 结束，
// 此后的 Do 直接拒绝。
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.closeOnce.Do(func() {
		close(q.stopCh)
	})
	q.wg.Wait()
	q.drain()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopCh:
			q.drain()
			return
		case job := <-q.jobs:
			q.metrics.decQueueDepth()
			job.done <- q.run(job)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobs:
			q.metrics.decQueueDepth()
			job.done <- jobResult{err: ErrQueueClosed}
		default:
			return
		}
	}
}

// run 执行单个请求。handler 内任何 panic 都被折算成 exception
// 错误返回，进程继续处理后续请求。
func (q *Queue) run(job *queueJob) (res jobResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			q.logger.Warn("handler panic recovered",
				slog.String("method", job.method),
				slog.Any("panic", rec))
			res = jobResult{err: rpcerrors.Newf(rpcerrors.KindException, "%v", rec)}
		}
		q.metrics.observeRequest(job.method, res.err == nil, float64(time.Since(start).Milliseconds()))
	}()
	result, err := q.router.Dispatch(job.ctx, job.method, job.params)
	return jobResult{result: result, err: err}
}
