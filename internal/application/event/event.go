// Package event 定义应用层对外发布的领域事件
//
// 事件在事务提交之后发布,发布失败只记录日志,不影响已经完成的业务操作。
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing Key
const (
	RoutingCheckoutCompleted = "checkout.completed"
	RoutingUserDeleted       = "user.deleted"
)

// Publisher 事件发布端口,由infrastructure/messaging实现
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Meta 事件公共字段
type Meta struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMeta 生成事件ID和发生时间
func NewMeta() Meta {
	return Meta{EventID: uuid.NewString(), OccurredAt: time.Now().UTC()}
}

// ItemQuantity 单本图书及其数量
type ItemQuantity struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// CheckoutCompleted 结算成功
type CheckoutCompleted struct {
	Meta
	CheckoutID string         `json:"checkout_id"`
	UserID     uint           `json:"user_id"`
	Items      []ItemQuantity `json:"items"`
	MovedCount int            `json:"moved_count"`
}

// UserDeleted 账号已注销
type UserDeleted struct {
	Meta
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}
