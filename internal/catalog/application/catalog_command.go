package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/onlineordering/internal/catalog/domain"
	"github.com/wyfcoding/onlineordering/pkg/cache"
	"github.com/wyfcoding/onlineordering/pkg/logger"
)

// CreateProductCommand 创建菜品命令
type CreateProductCommand struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Weight      float64
	Category    string
}

// UpdateProductCommand 更新菜品命令
type UpdateProductCommand struct {
	ProductID   uint
	Name        string
	Description string
	Price       decimal.Decimal
	Weight      float64
	Category    string
}

// CatalogCommandService 菜单命令服务
type CatalogCommandService struct {
	repo  domain.ProductRepository
	cache *cache.RedisCache
}

// NewCatalogCommandService 创建菜单命令服务实例
func NewCatalogCommandService(repo domain.ProductRepository, cache *cache.RedisCache) *CatalogCommandService {
	return &CatalogCommandService{
		repo:  repo,
		cache: cache,
	}
}

// CreateProduct 创建菜品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	p := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Weight:      cmd.Weight,
		Category:    cmd.Category,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProduct 更新菜品并失效缓存
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	p.Name = cmd.Name
	p.Description = cmd.Description
	p.Price = cmd.Price
	p.Weight = cmd.Weight
	p.Category = cmd.Category
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

// DeleteProduct 删除菜品并失效缓存
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.Info(ctx, "Product deleted", "product_id", id)
	return nil
}

func (s *CatalogCommandService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productCacheKey(id)); err != nil {
		logger.Warn(ctx, "Product cache invalidation failed", "product_id", id, "error", err)
	}
}
