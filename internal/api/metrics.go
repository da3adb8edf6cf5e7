package bridgeapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics 记录桥接层请求与 backend 调用的关键指标。
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	backendCalls   *prometheus.CounterVec
	queueDepth     prometheus.Gauge
}

// NewMetrics 构造 Metrics，reg 为空则注册到默认注册器。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Requests processed, by method and outcome",
		}, []string{"method", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_request_latency_ms",
			Help:    "End to end request latency in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_backend_calls_total",
			Help: "Signer backend invocations, by operation and outcome",
		}, []string{"op", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_queue_depth",
			Help: "Requests waiting in the serial dispatch queue",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.backendCalls, m.queueDepth)
	return m
}

func (m *Metrics) observeRequest(method string, ok bool, durMs float64) {
	if m == nil {
		return
	}
	if !KnownMethod(method) {
		method = "unknown"
	}
	m.requestsTotal.WithLabelValues(method, outcomeLabel(ok)).Inc()
	m.requestLatency.WithLabelValues(method).Observe(durMs)
}

func (m *Metrics) incBackendCall(op string, ok bool) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(op, outcomeLabel(ok)).Inc()
}

func (m *Metrics) incQueueDepth() {
	if m == nil {
		return
	}
	m.queueDepth.Inc()
}

func (m *Metrics) decQueueDepth() {
	if m == nil {
		return
	}
	m.queueDepth.Dec()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
