package application

import (
	"context"

	"github.com/wyfcoding/onlineordering/internal/address/domain"
	"github.com/wyfcoding/onlineordering/pkg/logger"
)

// AddAddressCommand 新增地址命令
type AddAddressCommand struct {
	UserID string
	City   string
	Street string
	House  string
}

// AddressService 地址应用服务
type AddressService struct {
	repo domain.AddressRepository
}

// NewAddressService 创建地址应用服务实例
func NewAddressService(repo domain.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// AddAddress 为用户新增收货地址
func (s *AddressService) AddAddress(ctx context.Context, cmd AddAddressCommand) (*domain.Address, error) {
	a := &domain.Address{
		UserID: cmd.UserID,
		City:   cmd.City,
		Street: cmd.Street,
		House:  cmd.House,
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Address added", "user_id", cmd.UserID, "address_id", a.ID)
	return a, nil
}

// ListAddresses 列出用户的全部收货地址
func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ResolveAddress 解析用户可见的地址，他人地址返回 ErrAddressNotFound
func (s *AddressService) ResolveAddress(ctx context.Context, userID string, id uint) (*domain.Address, error) {
	return s.repo.GetByIDAndUser(ctx, id, userID)
}

// RemoveAddress 删除用户的收货地址
func (s *AddressService) RemoveAddress(ctx context.Context, userID string, id uint) error {
	return s.repo.Delete(ctx, id, userID)
}
