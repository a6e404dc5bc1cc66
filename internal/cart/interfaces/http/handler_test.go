package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/onlineordering/internal/cart/application"
	"github.com/wyfcoding/onlineordering/internal/cart/domain"
)

// cartStoreStub 单购物车内存桩，只为走通 HTTP 层
type cartStoreStub struct {
	cart  *domain.Cart
	saved []domain.CartLine
}

func (s *cartStoreStub) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *cartStoreStub) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return nil, domain.ErrCartNotFound
	}
	cp := *s.cart
	cp.Lines = append([]domain.CartLine(nil), s.cart.Lines...)
	return &cp, nil
}

func (s *cartStoreStub) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.GetByUserID(ctx, userID)
}

func (s *cartStoreStub) Create(ctx context.Context, cart *domain.Cart) error { return nil }

func (s *cartStoreStub) SaveLine(ctx context.Context, line *domain.CartLine) error {
	s.saved = append(s.saved, *line)
	return nil
}

func (s *cartStoreStub) DeleteLine(ctx context.Context, cartID, productID uint) error { return nil }

func (s *cartStoreStub) DeleteLines(ctx context.Context, cartID uint, productIDs []uint) error {
	return nil
}

func (s *cartStoreStub) ClearLines(ctx context.Context, cartID uint) error { return nil }

func newTestRouter(store *cartStoreStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewCartService(store, nil, nil, nil, nil)
	router := gin.New()
	NewCartHandler(svc, nil).RegisterRoutes(&router.RouterGroup)
	return router
}

func patchDelta(router *gin.Engine, productID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/lines/"+productID, strings.NewReader(body))
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateLineQuantityZeroDelta(t *testing.T) {
	t.Run("existing line keeps its quantity", func(t *testing.T) {
		store := &cartStoreStub{cart: &domain.Cart{
			UserID: "u1",
			Lines:  []domain.CartLine{{CartID: 1, ProductID: 10, Quantity: 5}},
		}}
		store.cart.ID = 1
		router := newTestRouter(store)

		rec := patchDelta(router, "10", `{"delta": 0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, store.saved, 1)
		require.Equal(t, 5, store.saved[0].Quantity)
	})

	t.Run("absent line is a no-op", func(t *testing.T) {
		store := &cartStoreStub{cart: &domain.Cart{UserID: "u1"}}
		store.cart.ID = 1
		router := newTestRouter(store)

		rec := patchDelta(router, "10", `{"delta": 0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, store.saved)
	})

	t.Run("negative delta still accepted", func(t *testing.T) {
		store := &cartStoreStub{cart: &domain.Cart{
			UserID: "u1",
			Lines:  []domain.CartLine{{CartID: 1, ProductID: 10, Quantity: 5}},
		}}
		store.cart.ID = 1
		router := newTestRouter(store)

		rec := patchDelta(router, "10", `{"delta": -2}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, store.saved, 1)
		require.Equal(t, 3, store.saved[0].Quantity)
	})
}
