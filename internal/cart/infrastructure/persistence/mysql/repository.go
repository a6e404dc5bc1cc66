package mysql

import (
	"context"
	"errors"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	"github.com/wyfcoding/onlineordering/pkg/contextx"
	"github.com/wyfcoding/onlineordering/pkg/db"
)

type cartRepository struct{ db *db.DB }

func NewCartRepository(database *db.DB) domain.CartRepository {
	return &cartRepository{db: database}
}

func (r *cartRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
	return translateConflict(err)
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.getDB(ctx).WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("cart_lines.id") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	// 先锁购物车行，再读条目，保证读-改-写序列在并发下串行化
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, translateConflict(err)
	}
	err = r.getDB(ctx).WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("id").
		Find(&cart.Lines).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	err := r.getDB(ctx).WithContext(ctx).Create(cart).Error
	if isDuplicate(err) {
		// 并发的首次开通撞上 user_id 唯一索引，调用方改走查询路径
		return domain.ErrCartAlreadyExists
	}
	return err
}

func (r *cartRepository) SaveLine(ctx context.Context, line *domain.CartLine) error {
	return r.getDB(ctx).WithContext(ctx).Save(line).Error
}

// 条目物理删除：软删行会继续占用 (cart_id, product_id) 唯一索引，
// 导致同一商品移除后无法再次加购；历史留痕由订单快照承担
func (r *cartRepository) DeleteLine(ctx context.Context, cartID, productID uint) error {
	return r.getDB(ctx).WithContext(ctx).Unscoped().
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) DeleteLines(ctx context.Context, cartID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.getDB(ctx).WithContext(ctx).Unscoped().
		Where("cart_id = ? AND product_id IN ?", cartID, productIDs).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uint) error {
	return r.getDB(ctx).WithContext(ctx).Unscoped().
		Where("cart_id = ?", cartID).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.DB
}

// isDuplicate 识别唯一索引冲突，兼容 gorm 错误翻译开启与否两种形态
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *driver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// translateConflict 将 MySQL 死锁与锁等待超时映射为领域层冲突错误，调用方可整体重试
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213: // lock wait timeout, deadlock
			return domain.ErrConcurrencyConflict
		}
	}
	return err
}
