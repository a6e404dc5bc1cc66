package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventPublisher 领域事件发布端口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// CartLineAddedEvent 购物车添加商品事件
type CartLineAddedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// CartLineRemovedEvent 购物车移除商品事件
type CartLineRemovedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ProductID uint      `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent 结算完成事件
type OrderPlacedEvent struct {
	OrderNo   string          `json:"order_no"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
	Timestamp time.Time       `json:"timestamp"`
}
