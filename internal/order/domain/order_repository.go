package domain

import "context"

// OrderRepository 订单仓储接口
// 只追加：订单一经创建不支持更新或删除
type OrderRepository interface {
	// Insert 写入新订单及其明细；在事务上下文中调用时加入同一事务
	Insert(ctx context.Context, order *Order) error
	// GetByOrderNo 根据订单号获取指定用户的订单
	GetByOrderNo(ctx context.Context, userID, orderNo string) (*Order, error)
	// ListByUser 分页获取用户订单列表
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*Order, int64, error)
}
