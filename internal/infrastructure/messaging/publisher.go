// Package messaging 事件发布适配器:RabbitMQ + 熔断
package messaging

import (
	"context"
	"fmt"
	"sync"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// Sender 底层消息发送,*mq.Publisher实现了该接口
type Sender interface {
	Exchange() string
	Publish(ctx context.Context, routingKey string, message any) error
	Close() error
}

// AMQPPublisher 经过熔断器发布事件
// RabbitMQ故障时熔断器打开,后续发布立即失败,结算等主流程不会被拖慢
type AMQPPublisher struct {
	mu      sync.Mutex // amqp.Channel不支持并发发布
	sender  Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewAMQPPublisher 连接RabbitMQ并创建发布者
func NewAMQPPublisher(cfg config.MQConfig) (*AMQPPublisher, error) {
	p, err := mq.NewPublisher(cfg.URL, cfg.Exchange, cfg.ExchangeType)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithSender(p, cfg.Breaker), nil
}

// NewPublisherWithSender 使用指定Sender创建发布者
func NewPublisherWithSender(sender Sender, cfg config.BreakerConfig) *AMQPPublisher {
	return &AMQPPublisher{
		sender: sender,
		breaker: circuitbreaker.New[struct{}]("mq-publisher", circuitbreaker.Config{
			MaxRequests:  cfg.MaxRequests,
			Interval:     cfg.Interval,
			Timeout:      cfg.Timeout,
			FailureRatio: cfg.FailureRatio,
			MinRequests:  cfg.MinRequests,
		}),
	}
}

// Publish 发布事件
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	err := circuitbreaker.Do(p.breaker, func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.sender.Publish(ctx, routingKey, event)
	})
	metrics.RecordPublish(p.sender.Exchange(), routingKey, err)
	if err != nil {
		return fmt.Errorf("发布事件%s失败: %w", routingKey, err)
	}
	return nil
}

// Close 关闭底层连接
func (p *AMQPPublisher) Close() error {
	return p.sender.Close()
}

// NoopPublisher 未启用消息队列时使用,只记录调试日志
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	logger.Ctx(ctx).Debug().Str("routing_key", routingKey).Msg("消息队列未启用,事件已丢弃")
	return nil
}
