// Package application 购物车到订单的用例逻辑
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	addressdomain "github.com/wyfcoding/onlineordering/internal/address/domain"
	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlineordering/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/onlineordering/internal/order/domain"
	"github.com/wyfcoding/onlineordering/pkg/logger"
)

const (
	topicCartLineAdded   = "cart.line.added"
	topicCartLineRemoved = "cart.line.removed"
	topicCartCleared     = "cart.cleared"
	topicOrderPlaced     = "order.placed"
)

// ProductResolver 菜单查询端口（目录服务协作方）
type ProductResolver interface {
	GetProduct(ctx context.Context, id uint) (*catalogdomain.Product, error)
}

// AddressResolver 地址查询端口（地址服务协作方）
type AddressResolver interface {
	ResolveAddress(ctx context.Context, userID string, id uint) (*addressdomain.Address, error)
}

// CartService 购物车应用服务
// 所有写操作在单个存储事务内执行，先对购物车行加锁再修改，
// 结算时订单写入与购物车清理共用同一事务
type CartService struct {
	carts     domain.CartRepository
	orders    orderdomain.OrderRepository
	products  ProductResolver
	addresses AddressResolver
	publisher domain.EventPublisher
}

// NewCartService 创建购物车应用服务
func NewCartService(
	carts domain.CartRepository,
	orders orderdomain.OrderRepository,
	products ProductResolver,
	addresses AddressResolver,
	publisher domain.EventPublisher,
) *CartService {
	return &CartService{
		carts:     carts,
		orders:    orders,
		products:  products,
		addresses: addresses,
		publisher: publisher,
	}
}

// CreateCart 为用户创建购物车（随账号开通调用一次），已存在时直接返回现有购物车
func (s *CartService) CreateCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return s.GetCart(ctx, userID)
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	cart = &domain.Cart{UserID: userID}
	if err := s.carts.Create(ctx, cart); err != nil {
		// 并发的首次请求可能抢先建好购物车，此时退回查询即可保持幂等
		if errors.Is(err, domain.ErrCartAlreadyExists) {
			return s.GetCart(ctx, userID)
		}
		return nil, err
	}
	logger.Info(ctx, "Cart created", "user_id", userID, "cart_id", cart.ID)
	return &CartView{CartID: cart.ID, Items: []CartItemView{}}, nil
}

// GetCart 获取用户购物车，条目展开为商品名称/单价/数量
func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cart.ID, Items: make([]CartItemView, 0, len(cart.Lines))}
	for _, line := range cart.Lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %d: %w", line.ProductID, err)
		}
		view.Items = append(view.Items, CartItemView{
			ProductID: line.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Count:     line.Quantity,
		})
	}
	return view, nil
}

// AddLine 向购物车添加商品，已有条目时数量合并
func (s *CartService) AddLine(ctx context.Context, userID string, productID uint, count int) error {
	if count < 1 {
		return domain.ErrInvalidQuantity
	}

	var event *domain.CartLineAddedEvent
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := s.products.GetProduct(ctx, productID); err != nil {
			return err
		}

		change := cart.ApplyDelta(productID, count)
		if err := s.carts.SaveLine(ctx, change.Line); err != nil {
			return err
		}

		event = &domain.CartLineAddedEvent{
			CartID:    cart.ID,
			UserID:    userID,
			ProductID: productID,
			Quantity:  change.Line.Quantity,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		s.publish(ctx, topicCartLineAdded, userID, event)
	}
	logger.Info(ctx, "Cart line added", "user_id", userID, "product_id", productID, "count", count)
	return nil
}

// UpdateLineQuantity 对条目数量施加增量，结果 ≤ 0 时整条删除；
// 条目不存在且增量为正时新建，增量非正时无操作
func (s *CartService) UpdateLineQuantity(ctx context.Context, userID string, productID uint, delta int) error {
	var (
		addedEvent   *domain.CartLineAddedEvent
		removedEvent *domain.CartLineRemovedEvent
	)
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if cart.Line(productID) == nil && delta > 0 {
			// 隐式新建条目前确认商品仍在菜单上
			if _, err := s.products.GetProduct(ctx, productID); err != nil {
				return err
			}
		}

		change := cart.ApplyDelta(productID, delta)
		switch change.Kind {
		case domain.LineCreated, domain.LineUpdated:
			if err := s.carts.SaveLine(ctx, change.Line); err != nil {
				return err
			}
			addedEvent = &domain.CartLineAddedEvent{
				CartID:    cart.ID,
				UserID:    userID,
				ProductID: productID,
				Quantity:  change.Line.Quantity,
				Timestamp: time.Now().UTC(),
			}
		case domain.LineRemoved:
			if err := s.carts.DeleteLine(ctx, cart.ID, productID); err != nil {
				return err
			}
			removedEvent = &domain.CartLineRemovedEvent{
				CartID:    cart.ID,
				UserID:    userID,
				ProductID: productID,
				Timestamp: time.Now().UTC(),
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if addedEvent != nil {
		s.publish(ctx, topicCartLineAdded, userID, addedEvent)
	}
	if removedEvent != nil {
		s.publish(ctx, topicCartLineRemoved, userID, removedEvent)
	}
	return nil
}

// RemoveLine 删除条目，条目不存在时无操作而非报错
func (s *CartService) RemoveLine(ctx context.Context, userID string, productID uint) error {
	var event *domain.CartLineRemovedEvent
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		change := cart.RemoveLine(productID)
		if change.Kind == domain.LineUnchanged {
			return nil
		}
		if err := s.carts.DeleteLine(ctx, cart.ID, productID); err != nil {
			return err
		}
		event = &domain.CartLineRemovedEvent{
			CartID:    cart.ID,
			UserID:    userID,
			ProductID: productID,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		s.publish(ctx, topicCartLineRemoved, userID, event)
	}
	return nil
}

// ClearCart 清空购物车
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	var event *domain.CartClearedEvent
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.carts.ClearLines(ctx, cart.ID); err != nil {
			return err
		}
		event = &domain.CartClearedEvent{
			CartID:    cart.ID,
			UserID:    userID,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		s.publish(ctx, topicCartCleared, userID, event)
	}
	logger.Info(ctx, "Cart cleared", "user_id", userID)
	return nil
}

// Checkout 结算整个购物车：快照全部条目生成订单并清空购物车，二者共用一个事务
func (s *CartService) Checkout(ctx context.Context, userID string, addressID uint) (*OrderView, error) {
	defer logger.LogDuration(ctx, "Checkout completed", "user_id", userID)()

	var view *OrderView
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		order, err := s.placeOrder(ctx, userID, addressID, cart.Lines)
		if err != nil {
			return err
		}
		if err := s.carts.ClearLines(ctx, cart.ID); err != nil {
			return err
		}

		view = toOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderPlaced(ctx, userID, view)
	return view, nil
}

// CheckoutSelected 只结算指定商品的条目，未选中的条目原样保留
func (s *CartService) CheckoutSelected(ctx context.Context, userID string, productIDs []uint, addressID uint) (*OrderView, error) {
	defer logger.LogDuration(ctx, "Selective checkout completed", "user_id", userID)()

	var view *OrderView
	err := s.carts.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		selected := cart.SelectLines(productIDs)
		if len(selected) == 0 {
			return domain.ErrEmptySelection
		}

		order, err := s.placeOrder(ctx, userID, addressID, selected)
		if err != nil {
			return err
		}
		removed := make([]uint, 0, len(selected))
		for _, line := range selected {
			removed = append(removed, line.ProductID)
		}
		if err := s.carts.DeleteLines(ctx, cart.ID, removed); err != nil {
			return err
		}

		view = toOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderPlaced(ctx, userID, view)
	return view, nil
}

// placeOrder 在当前事务内将条目快照为订单：名称与单价取此刻菜单值，总额计算一次落库
func (s *CartService) placeOrder(ctx context.Context, userID string, addressID uint, lines []domain.CartLine) (*orderdomain.Order, error) {
	address, err := s.addresses.ResolveAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	orderLines := make([]orderdomain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %d: %w", line.ProductID, err)
		}
		orderLines = append(orderLines, orderdomain.OrderLine{
			ProductID: line.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}

	order := orderdomain.NewOrder(
		fmt.Sprintf("ORD-%s", uuid.New().String()),
		userID,
		address.City,
		address.Street,
		address.House,
		orderLines,
	)
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	logger.Info(ctx, "Order placed",
		"order_no", order.OrderNo,
		"user_id", userID,
		"total", order.Total,
		"lines", len(order.Lines),
	)
	return order, nil
}

func (s *CartService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "Event publish failed", "topic", topic, "error", err)
	}
}

func (s *CartService) publishOrderPlaced(ctx context.Context, userID string, view *OrderView) {
	if s.publisher == nil || view == nil {
		return
	}
	event := domain.OrderPlacedEvent{
		OrderNo:   view.OrderNo,
		UserID:    userID,
		Total:     view.Total,
		LineCount: len(view.Items),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, topicOrderPlaced, userID, event); err != nil {
		logger.Warn(ctx, "Event publish failed", "topic", topicOrderPlaced, "error", err)
	}
}
