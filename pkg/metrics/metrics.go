// Package metrics 提供基于Prometheus的指标收集
//
// 指标分三类:
//   - Counter: 只增不减的累计值,以_total结尾(结算次数、发布消息数)
//   - Gauge: 可增可减的瞬时值(处理中的请求数、熔断器状态)
//   - Histogram: 观测值的分布,以单位结尾(结算耗时_seconds)
//
// 标签只使用有限取值的维度(status、strategy、result),不要用user_id、book_id作为标签。
//
// 使用示例:
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	metrics.RecordCheckout("ok", 3, time.Since(start))
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签:method、path(路由模板,如/api/v1/books/:id)、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 结算指标

	// CheckoutsTotal 结算总数
	// 标签:status(ok/empty/insufficient_stock/error)
	CheckoutsTotal *prometheus.CounterVec

	// CheckoutDuration 结算耗时(含等待锁)
	CheckoutDuration prometheus.Histogram

	// CheckoutItemsMovedTotal 结算成功移入购买记录的图书本数
	CheckoutItemsMovedTotal prometheus.Counter

	// 推荐指标

	// RecommendationsTotal 推荐请求数
	// 标签:strategy(cold_start/genre/empty)
	RecommendationsTotal *prometheus.CounterVec

	// RecommendCacheTotal 推荐缓存访问
	// 标签:result(hit/miss/error)
	RecommendCacheTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态(0=CLOSED, 1=HALF_OPEN, 2=OPEN)
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签:name、result(success/failure/rejected)
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数
	// 标签:name、result(success/failure)
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaExecutionDuration Saga执行耗时
	SagaExecutionDuration prometheus.Histogram

	// SagaCompensationsTotal Saga补偿执行总数
	SagaCompensationsTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签:exchange、routing_key、result(success/failure)
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标并注册到默认Registry
// 可重复调用,只有第一次生效
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP请求耗时(秒)",
			// 桶设置:1ms、10ms、100ms、500ms、1s、5s、10s
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "结算总数",
		},
		[]string{"status"},
	)

	CheckoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "checkout_duration_seconds",
			Help: "结算耗时(秒)",
			// 结算包含等待用户锁和图书锁,桶上限放宽到5秒
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CheckoutItemsMovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_items_moved_total",
			Help: "结算移入购买记录的图书本数",
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "推荐请求数",
		},
		[]string{"strategy"},
	)

	RecommendCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cache_total",
			Help: "推荐缓存访问次数",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态(0=CLOSED, 1=HALF_OPEN, 2=OPEN)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_execution_duration_seconds",
			Help:    "Saga执行耗时(秒)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	SagaCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

// =========================================
// 业务记录函数
// =========================================

// RecordCheckout 记录一次结算
func RecordCheckout(status string, moved int, elapsed time.Duration) {
	InitMetrics()
	CheckoutsTotal.WithLabelValues(status).Inc()
	CheckoutDuration.Observe(elapsed.Seconds())
	if moved > 0 {
		CheckoutItemsMovedTotal.Add(float64(moved))
	}
}

// RecordRecommendation 记录一次推荐
func RecordRecommendation(strategy string) {
	InitMetrics()
	RecommendationsTotal.WithLabelValues(strategy).Inc()
}

// RecordRecommendCache 记录一次推荐缓存访问
func RecordRecommendCache(result string) {
	InitMetrics()
	RecommendCacheTotal.WithLabelValues(result).Inc()
}

// RecordPublish 记录一次消息发布
func RecordPublish(exchange, routingKey string, err error) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, result).Inc()
}

// RecordSaga 记录一次Saga执行
func RecordSaga(name string, err error, elapsed time.Duration) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	SagaExecutionsTotal.WithLabelValues(name, result).Inc()
	SagaExecutionDuration.Observe(elapsed.Seconds())
}

// =========================================
// 通用便捷函数
// =========================================

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增CounterVec(带标签)
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值(带标签)
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值(带标签)
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
