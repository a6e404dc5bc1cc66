package application

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	addressdomain "github.com/wyfcoding/onlineordering/internal/address/domain"
	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlineordering/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/onlineordering/internal/order/domain"
)

// memStore 内存版购物车与订单仓储
// Transaction 用互斥锁串行化回调并在出错时恢复快照，模拟行锁与回滚语义
type memStore struct {
	mu         sync.Mutex
	carts      map[string]*domain.Cart
	orders     []*orderdomain.Order
	nextCartID uint
}

func newMemStore() *memStore {
	return &memStore{carts: make(map[string]*domain.Cart), nextCartID: 1}
}

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Lines = make([]domain.CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	return &cp
}

func (s *memStore) snapshot() map[string]*domain.Cart {
	snap := make(map[string]*domain.Cart, len(s.carts))
	for k, v := range s.carts {
		snap[k] = cloneCart(v)
	}
	return snap
}

func (s *memStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cartSnap := s.snapshot()
	orderSnap := len(s.orders)
	if err := fn(ctx); err != nil {
		s.carts = cartSnap
		s.orders = s.orders[:orderSnap]
		return err
	}
	return nil
}

func (s *memStore) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (s *memStore) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.GetByUserID(ctx, userID)
}

func (s *memStore) Create(ctx context.Context, cart *domain.Cart) error {
	if _, ok := s.carts[cart.UserID]; ok {
		return domain.ErrCartAlreadyExists
	}
	cart.ID = s.nextCartID
	s.nextCartID++
	s.carts[cart.UserID] = cloneCart(cart)
	return nil
}

func (s *memStore) SaveLine(ctx context.Context, line *domain.CartLine) error {
	for _, cart := range s.carts {
		if cart.ID != line.CartID {
			continue
		}
		if existing := cart.Line(line.ProductID); existing != nil {
			existing.Quantity = line.Quantity
		} else {
			cart.Lines = append(cart.Lines, *line)
		}
		return nil
	}
	return domain.ErrCartNotFound
}

func (s *memStore) DeleteLine(ctx context.Context, cartID, productID uint) error {
	return s.DeleteLines(ctx, cartID, []uint{productID})
}

func (s *memStore) DeleteLines(ctx context.Context, cartID uint, productIDs []uint) error {
	doomed := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		doomed[id] = true
	}
	for _, cart := range s.carts {
		if cart.ID != cartID {
			continue
		}
		kept := cart.Lines[:0]
		for _, line := range cart.Lines {
			if !doomed[line.ProductID] {
				kept = append(kept, line)
			}
		}
		cart.Lines = kept
		return nil
	}
	return domain.ErrCartNotFound
}

func (s *memStore) ClearLines(ctx context.Context, cartID uint) error {
	for _, cart := range s.carts {
		if cart.ID == cartID {
			cart.Lines = nil
			return nil
		}
	}
	return domain.ErrCartNotFound
}

func (s *memStore) Insert(ctx context.Context, order *orderdomain.Order) error {
	order.ID = uint(len(s.orders) + 1)
	s.orders = append(s.orders, order)
	return nil
}

func (s *memStore) GetByOrderNo(ctx context.Context, userID, orderNo string) (*orderdomain.Order, error) {
	for _, o := range s.orders {
		if o.UserID == userID && o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, orderdomain.ErrOrderNotFound
}

func (s *memStore) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*orderdomain.Order, int64, error) {
	var out []*orderdomain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) lineQuantity(userID string, productID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return 0
	}
	if line := cart.Line(productID); line != nil {
		return line.Quantity
	}
	return 0
}

func (s *memStore) lineCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return 0
	}
	return len(cart.Lines)
}

type stubProducts struct {
	byID map[uint]*catalogdomain.Product
}

func (p *stubProducts) GetProduct(ctx context.Context, id uint) (*catalogdomain.Product, error) {
	product, ok := p.byID[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return product, nil
}

type stubAddresses struct {
	byID map[uint]*addressdomain.Address
}

func (a *stubAddresses) ResolveAddress(ctx context.Context, userID string, id uint) (*addressdomain.Address, error) {
	address, ok := a.byID[id]
	if !ok || address.UserID != userID {
		return nil, addressdomain.ErrAddressNotFound
	}
	return address, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) published(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	store     *memStore
	publisher *recordingPublisher
	svc       *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	products := &stubProducts{byID: map[uint]*catalogdomain.Product{
		10: {Name: "Margherita", Price: decimal.NewFromInt(100)},
		20: {Name: "Pepperoni", Price: decimal.NewFromInt(50)},
		30: {Name: "Tiramisu", Price: decimal.NewFromInt(30)},
	}}
	for id, p := range products.byID {
		p.ID = id
	}
	addresses := &stubAddresses{byID: map[uint]*addressdomain.Address{
		7: {UserID: "u1", City: "Moscow", Street: "Tverskaya", House: "12"},
	}}
	addresses.byID[7].ID = 7
	publisher := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: publisher,
		svc:       NewCartService(store, store, products, addresses, publisher),
	}
}

func (f *fixture) seedCart(t *testing.T, userID string, quantities map[uint]int) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.CreateCart(ctx, userID); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for productID, qty := range quantities {
		if err := f.svc.AddLine(ctx, userID, productID, qty); err != nil {
			t.Fatalf("seed line %d: %v", productID, err)
		}
	}
}

func TestCreateCart(t *testing.T) {
	ctx := context.Background()

	t.Run("creates empty cart", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.svc.CreateCart(ctx, "u1")
		require.NoError(t, err)
		require.NotZero(t, view.CartID)
		require.Empty(t, view.Items)
	})

	t.Run("idempotent for existing cart", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.svc.CreateCart(ctx, "u1")
		require.NoError(t, err)
		second, err := f.svc.CreateCart(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, first.CartID, second.CartID)
	})

	t.Run("concurrent first request losing the insert race gets the winner's cart", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.svc.CreateCart(ctx, "u1")
		require.NoError(t, err)

		// 存在性检查读到过期的未命中，随后的插入撞唯一索引
		racing := &staleReadStore{memStore: f.store, misses: 1}
		svc := NewCartService(racing, f.store, nil, nil, nil)

		second, err := svc.CreateCart(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, first.CartID, second.CartID)
	})
}

// staleReadStore 让最初几次存在性检查返回未命中，复现并发首次开通的竞态
type staleReadStore struct {
	*memStore
	misses int
}

func (s *staleReadStore) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	if s.misses > 0 {
		s.misses--
		return nil, domain.ErrCartNotFound
	}
	return s.memStore.GetByUserID(ctx, userID)
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetCart(ctx, "ghost")
		require.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("expands lines with catalog data", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		view, err := f.svc.GetCart(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		require.Equal(t, "Margherita", view.Items[0].Name)
		require.True(t, view.Items[0].Price.Equal(decimal.NewFromInt(100)))
		require.Equal(t, 2, view.Items[0].Count)
	})
}

func TestAddLine(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive count", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", nil)
		require.ErrorIs(t, f.svc.AddLine(ctx, "u1", 10, 0), domain.ErrInvalidQuantity)
		require.ErrorIs(t, f.svc.AddLine(ctx, "u1", 10, -3), domain.ErrInvalidQuantity)
	})

	t.Run("unknown product leaves cart untouched", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 1})

		err := f.svc.AddLine(ctx, "u1", 999, 2)
		require.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
		require.Equal(t, 1, f.store.lineCount("u1"))
	})

	t.Run("merges quantity into existing line", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		require.NoError(t, f.svc.AddLine(ctx, "u1", 10, 3))
		require.Equal(t, 5, f.store.lineQuantity("u1", 10))
		require.Equal(t, 1, f.store.lineCount("u1"))
	})

	t.Run("publishes line added event", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", nil)

		require.NoError(t, f.svc.AddLine(ctx, "u1", 10, 1))
		require.Equal(t, 1, f.publisher.published(topicCartLineAdded))
	})
}

func TestUpdateLineQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("positive delta increments", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 5})

		require.NoError(t, f.svc.UpdateLineQuantity(ctx, "u1", 10, 2))
		require.Equal(t, 7, f.store.lineQuantity("u1", 10))
	})

	t.Run("delta reaching zero removes the line", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		require.NoError(t, f.svc.UpdateLineQuantity(ctx, "u1", 10, -2))
		require.Equal(t, 0, f.store.lineCount("u1"))
		require.Equal(t, 1, f.publisher.published(topicCartLineRemoved))
	})

	t.Run("delta overshooting below zero removes the line", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		require.NoError(t, f.svc.UpdateLineQuantity(ctx, "u1", 10, -9))
		require.Equal(t, 0, f.store.lineCount("u1"))
	})

	t.Run("absent line with positive delta creates it", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", nil)

		require.NoError(t, f.svc.UpdateLineQuantity(ctx, "u1", 20, 4))
		require.Equal(t, 4, f.store.lineQuantity("u1", 20))
	})

	t.Run("absent line with non-positive delta is a no-op", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", nil)

		require.NoError(t, f.svc.UpdateLineQuantity(ctx, "u1", 20, -1))
		require.Equal(t, 0, f.store.lineCount("u1"))
		require.Empty(t, f.publisher.topics)
	})

	t.Run("no lost update under concurrent increments", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 5})

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- f.svc.UpdateLineQuantity(ctx, "u1", 10, 1)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		require.Equal(t, 7, f.store.lineQuantity("u1", 10))
	})
}

func TestRemoveLine(t *testing.T) {
	ctx := context.Background()

	t.Run("removes existing line", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2, 20: 1})

		require.NoError(t, f.svc.RemoveLine(ctx, "u1", 10))
		require.Equal(t, 0, f.store.lineQuantity("u1", 10))
		require.Equal(t, 1, f.store.lineQuantity("u1", 20))
	})

	t.Run("absent line is a no-op, not an error", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})
		f.publisher.topics = nil

		require.NoError(t, f.svc.RemoveLine(ctx, "u1", 999))
		require.Equal(t, 1, f.store.lineCount("u1"))
		require.Empty(t, f.publisher.topics)
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedCart(t, "u1", map[uint]int{10: 2, 20: 1})

	require.NoError(t, f.svc.ClearCart(ctx, "u1"))
	require.Equal(t, 0, f.store.lineCount("u1"))
	require.Equal(t, 1, f.publisher.published(topicCartCleared))
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", nil)

		_, err := f.svc.Checkout(ctx, "u1", 7)
		require.ErrorIs(t, err, domain.ErrEmptyCart)
		require.Empty(t, f.store.orders)
	})

	t.Run("snapshots lines into an order and clears the cart", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2, 20: 1})

		view, err := f.svc.Checkout(ctx, "u1", 7)
		require.NoError(t, err)

		// 2×100 + 1×50
		require.True(t, view.Total.Equal(decimal.NewFromInt(250)))
		require.Len(t, view.Items, 2)
		require.Equal(t, "Moscow", view.Address.City)
		require.NotEmpty(t, view.OrderNo)

		require.Equal(t, 0, f.store.lineCount("u1"))
		require.Len(t, f.store.orders, 1)
		require.Equal(t, 1, f.publisher.published(topicOrderPlaced))
	})

	t.Run("unit prices are snapshots, not references", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 1})

		view, err := f.svc.Checkout(ctx, "u1", 7)
		require.NoError(t, err)

		stored, err := f.store.GetByOrderNo(ctx, "u1", view.OrderNo)
		require.NoError(t, err)
		require.True(t, stored.Lines[0].UnitPrice.Equal(decimal.NewFromInt(100)))
		require.Equal(t, "Margherita", stored.Lines[0].Name)
	})

	t.Run("unknown address rolls everything back", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		_, err := f.svc.Checkout(ctx, "u1", 999)
		require.ErrorIs(t, err, addressdomain.ErrAddressNotFound)
		require.Equal(t, 2, f.store.lineQuantity("u1", 10))
		require.Empty(t, f.store.orders)
	})
}

func TestCheckoutSelected(t *testing.T) {
	ctx := context.Background()

	t.Run("empty selection leaves cart untouched", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2})

		_, err := f.svc.CheckoutSelected(ctx, "u1", nil, 7)
		require.ErrorIs(t, err, domain.ErrEmptySelection)

		_, err = f.svc.CheckoutSelected(ctx, "u1", []uint{999}, 7)
		require.ErrorIs(t, err, domain.ErrEmptySelection)

		require.Equal(t, 2, f.store.lineQuantity("u1", 10))
		require.Empty(t, f.store.orders)
	})

	t.Run("orders selected lines and keeps the rest", func(t *testing.T) {
		f := newFixture(t)
		f.seedCart(t, "u1", map[uint]int{10: 2, 20: 1, 30: 3})

		view, err := f.svc.CheckoutSelected(ctx, "u1", []uint{10, 20}, 7)
		require.NoError(t, err)

		// 2×100 + 1×50
		require.True(t, view.Total.Equal(decimal.NewFromInt(250)))
		require.Len(t, view.Items, 2)

		require.Equal(t, 1, f.store.lineCount("u1"))
		require.Equal(t, 3, f.store.lineQuantity("u1", 30))
		require.Len(t, f.store.orders, 1)
	})
}
