package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/onlineordering/internal/catalog/domain"
	"github.com/wyfcoding/onlineordering/pkg/cache"
	"github.com/wyfcoding/onlineordering/pkg/logger"
)

const productCacheTTL = 5 * time.Minute

// CatalogQueryService 菜单查询服务
type CatalogQueryService struct {
	repo  domain.ProductRepository
	cache *cache.RedisCache
}

// NewCatalogQueryService 创建菜单查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository, cache *cache.RedisCache) *CatalogQueryService {
	return &CatalogQueryService{
		repo:  repo,
		cache: cache,
	}
}

// GetProduct 根据ID获取菜品信息，优先走缓存
func (s *CatalogQueryService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	key := productCacheKey(id)
	if s.cache != nil {
		var p domain.Product
		hit, err := s.cache.GetJSON(ctx, key, &p)
		if err != nil {
			logger.Warn(ctx, "Product cache read failed", "product_id", id, "error", err)
		} else if hit {
			return &p, nil
		}
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, p, productCacheTTL); err != nil {
			logger.Warn(ctx, "Product cache write failed", "product_id", id, "error", err)
		}
	}
	return p, nil
}

// ListProducts 按分类分页列出菜品
func (s *CatalogQueryService) ListProducts(ctx context.Context, category string, page, size int) ([]*domain.Product, int, error) {
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, category, offset, size)
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
