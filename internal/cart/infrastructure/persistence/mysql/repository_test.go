package mysql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	pkgdb "github.com/wyfcoding/onlineordering/pkg/db"
)

func newTestRepo(t *testing.T) domain.CartRepository {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cart.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&domain.Cart{}, &domain.CartLine{}))
	return NewCartRepository(&pkgdb.DB{DB: gormDB})
}

func seedTestCart(t *testing.T, repo domain.CartRepository, userID string) *domain.Cart {
	t.Helper()
	ctx := context.Background()
	cart := &domain.Cart{UserID: userID}
	require.NoError(t, repo.Create(ctx, cart))
	return cart
}

func TestCartRepositoryReAddAfterRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("after DeleteLine", func(t *testing.T) {
		repo := newTestRepo(t)
		cart := seedTestCart(t, repo, "u1")

		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 2}))
		require.NoError(t, repo.DeleteLine(ctx, cart.ID, 10))

		// 同一商品再次加购不得撞 (cart_id, product_id) 唯一索引
		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 1}))

		got, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		require.Equal(t, 1, got.Lines[0].Quantity)
	})

	t.Run("after ClearLines", func(t *testing.T) {
		repo := newTestRepo(t)
		cart := seedTestCart(t, repo, "u1")

		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 2}))
		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 20, Quantity: 1}))
		require.NoError(t, repo.ClearLines(ctx, cart.ID))

		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 3}))

		got, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		require.Equal(t, 3, got.Lines[0].Quantity)
	})

	t.Run("after DeleteLines", func(t *testing.T) {
		repo := newTestRepo(t)
		cart := seedTestCart(t, repo, "u1")

		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 2}))
		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 20, Quantity: 1}))
		require.NoError(t, repo.DeleteLines(ctx, cart.ID, []uint{10}))

		require.NoError(t, repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 5}))

		got, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got.Lines, 2)
	})
}

func TestCartRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedTestCart(t, repo, "u1")

	err := repo.Create(ctx, &domain.Cart{UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrCartAlreadyExists)
}

func TestCartRepositoryTransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	cart := seedTestCart(t, repo, "u1")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(ctx context.Context) error {
		if err := repo.SaveLine(ctx, &domain.CartLine{CartID: cart.ID, ProductID: 10, Quantity: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, got.Lines)
}
