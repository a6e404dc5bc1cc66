// Package domain 包含订单的领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

// Order 订单实体
// 结算时一次性创建，之后不可变更
type Order struct {
	gorm.Model
	// 订单号
	OrderNo string `gorm:"column:order_no;type:varchar(42);uniqueIndex;not null" json:"order_no"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 收货地址快照
	City   string `gorm:"column:city;type:varchar(100);not null" json:"city"`
	Street string `gorm:"column:street;type:varchar(255);not null" json:"street"`
	House  string `gorm:"column:house;type:varchar(50);not null" json:"house"`
	// 订单总额，创建时计算一次并落库
	Total decimal.Decimal `gorm:"column:total;type:decimal(20,2);not null" json:"total"`
	// 下单时间（UTC）
	PlacedAt time.Time `gorm:"column:placed_at;not null" json:"placed_at"`
	// 订单明细
	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"lines"`
}

func (Order) TableName() string { return "orders" }

// OrderLine 订单明细，商品名称与单价为下单时刻的快照
type OrderLine struct {
	gorm.Model
	// 所属订单
	OrderID uint `gorm:"column:order_id;index;not null" json:"order_id"`
	// 商品 ID
	ProductID uint `gorm:"column:product_id;not null" json:"product_id"`
	// 商品名称快照
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 单价快照
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(20,2);not null" json:"unit_price"`
	// 数量
	Quantity int `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderLine) TableName() string { return "order_lines" }

// Subtotal 明细小计
func (l *OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewOrder 创建订单，总额由明细快照计算一次
func NewOrder(orderNo, userID, city, street, house string, lines []OrderLine) *Order {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Subtotal())
	}
	return &Order{
		OrderNo:  orderNo,
		UserID:   userID,
		City:     city,
		Street:   street,
		House:    house,
		Total:    total,
		PlacedAt: time.Now().UTC(),
		Lines:    lines,
	}
}
