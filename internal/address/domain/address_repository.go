package domain

import "context"

// AddressRepository 地址仓储接口
type AddressRepository interface {
	Save(ctx context.Context, address *Address) error
	// GetByIDAndUser 获取指定用户可见的地址，他人地址视为不存在
	GetByIDAndUser(ctx context.Context, id uint, userID string) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]*Address, error)
	Delete(ctx context.Context, id uint, userID string) error
}
