package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/onlineordering/internal/order/domain"
)

// CartItemView 购物车条目视图，商品名称与单价展开自菜单
type CartItemView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Count     int             `json:"count"`
}

// CartView 购物车视图
type CartView struct {
	CartID uint           `json:"cart_id"`
	Items  []CartItemView `json:"items"`
}

// AddressView 收货地址视图
type AddressView struct {
	City   string `json:"city"`
	Street string `json:"street"`
	House  string `json:"house"`
}

// OrderItemView 订单明细视图，价格为下单时刻的快照
type OrderItemView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Count     int             `json:"count"`
}

// OrderView 订单视图
type OrderView struct {
	OrderNo   string          `json:"order_no"`
	CreatedAt time.Time       `json:"created_at"`
	Address   AddressView     `json:"address"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItemView `json:"items"`
}

func toOrderView(o *domain.Order) *OrderView {
	items := make([]OrderItemView, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, OrderItemView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Count:     l.Quantity,
		})
	}
	return &OrderView{
		OrderNo:   o.OrderNo,
		CreatedAt: o.PlacedAt,
		Address: AddressView{
			City:   o.City,
			Street: o.Street,
			House:  o.House,
		},
		Total: o.Total,
		Items: items,
	}
}
