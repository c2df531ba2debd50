// Package mq RabbitMQ消息发布
//
// 结算完成、账号注销等事件通过Topic Exchange发布,
// 下游服务(通知、数据统计)按Routing Key订阅,核心流程不依赖消费方。
//
// Routing Key约定: <聚合>.<动作>,例如 checkout.completed、user.deleted
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xiebiao/bookshelf/pkg/logger"
)

// Publisher 消息发布者
// amqp.Channel不是并发安全的,调用方需保证串行发布(infrastructure/messaging中加锁)
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher 连接RabbitMQ并声明持久化Exchange
func NewPublisher(url, exchange, exchangeType string) (*Publisher, error) {
	// 1. 连接RabbitMQ
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	// 2. 创建Channel
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	// 3. 声明Exchange(持久化,不自动删除)
	err = channel.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Str("type", exchangeType).
		Msg("消息发布者已创建")

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Exchange 返回Exchange名称
func (p *Publisher) Exchange() string {
	return p.exchange
}

// Publish 序列化为JSON并发布,MessageId用于下游幂等去重
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Str("routing_key", routingKey).
		Int("bytes", len(body)).
		Msg("消息已发布")
	return nil
}

// IsClosed 连接是否已断开
func (p *Publisher) IsClosed() bool {
	return p.conn == nil || p.conn.IsClosed()
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
