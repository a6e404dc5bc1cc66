// Package application 订单查询用例
package application

import (
	"context"

	"github.com/wyfcoding/onlineordering/internal/order/domain"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务实例
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 获取指定用户的订单详情
func (s *OrderQueryService) GetOrder(ctx context.Context, userID, orderNo string) (*domain.Order, error) {
	return s.repo.GetByOrderNo(ctx, userID, orderNo)
}

// ListOrders 分页获取用户历史订单
func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, page, size int) ([]*domain.Order, int64, error) {
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, offset, size)
}
