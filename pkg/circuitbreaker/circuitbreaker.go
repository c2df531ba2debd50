// Package circuitbreaker 基于sony/gobreaker/v2的熔断器
//
// 用于保护外部依赖(RabbitMQ等):下游故障时快速失败,不拖慢主流程。
// 状态:
//   - CLOSED: 正常放行,统计失败率
//   - OPEN: 直接拒绝,Timeout后进入HALF_OPEN
//   - HALF_OPEN: 放行MaxRequests个探测请求,成功则CLOSED,失败则回到OPEN
//
// 状态变化写日志并同步到circuit_breaker_state指标。
package circuitbreaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// Config 熔断器配置
type Config struct {
	MaxRequests  uint32        // 半开状态允许的探测请求数
	Interval     time.Duration // 关闭状态下统计清零周期,0表示不清零
	Timeout      time.Duration // 打开状态持续时间
	FailureRatio float64       // 失败率达到该值时熔断
	MinRequests  uint32        // 统计窗口内请求数不少于该值才计算失败率
}

// 拒绝请求时返回的错误
var (
	ErrOpenState       = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// New 创建熔断器
func New[T any](name string, cfg Config) *gobreaker.CircuitBreaker[T] {
	metrics.InitMetrics()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return ShouldTrip(counts, cfg)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

// ShouldTrip 请求数达到MinRequests且失败率>=FailureRatio时熔断
func ShouldTrip(counts gobreaker.Counts, cfg Config) bool {
	if counts.Requests == 0 || counts.Requests < cfg.MinRequests {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return ratio >= cfg.FailureRatio
}

// Do 通过熔断器执行fn并记录请求结果指标
func Do(cb *gobreaker.CircuitBreaker[struct{}], fn func() error) error {
	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})

	result := "success"
	switch {
	case IsRejected(err):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), result).Inc()
	return err
}

// IsRejected 请求是否被熔断器直接拒绝(未调用下游)
func IsRejected(err error) bool {
	return errors.Is(err, ErrOpenState) || errors.Is(err, ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
