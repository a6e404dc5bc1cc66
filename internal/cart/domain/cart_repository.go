package domain

import "context"

// CartRepository 购物车仓储接口
// 所有写操作在 Transaction 内调用，读取-修改-写入序列由行锁串行化
type CartRepository interface {
	// Transaction 在单个存储事务中执行回调，事务句柄经 context 传递；
	// 回调返回错误或 context 取消时整体回滚，不留部分状态
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	// GetByUserID 取用户购物车并预加载条目，不存在时返回 ErrCartNotFound
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// GetByUserIDForUpdate 同上，但对购物车行加排他锁（SELECT ... FOR UPDATE）
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Cart, error)
	// Create 创建用户的购物车（随用户注册调用一次）
	Create(ctx context.Context, cart *Cart) error
	// SaveLine 插入或更新单个条目
	SaveLine(ctx context.Context, line *CartLine) error
	// DeleteLine 删除单个条目
	DeleteLine(ctx context.Context, cartID, productID uint) error
	// DeleteLines 批量删除指定商品的条目
	DeleteLines(ctx context.Context, cartID uint, productIDs []uint) error
	// ClearLines 删除购物车全部条目
	ClearLines(ctx context.Context, cartID uint) error
}
