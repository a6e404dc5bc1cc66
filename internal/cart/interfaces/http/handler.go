package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	addressdomain "github.com/wyfcoding/onlineordering/internal/address/domain"
	"github.com/wyfcoding/onlineordering/internal/cart/application"
	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlineordering/internal/catalog/domain"
	"github.com/wyfcoding/onlineordering/pkg/metrics"
)

// CartHandler 购物车 HTTP 处理器
// 身份解析属于外部协作方，用户 ID 从 X-User-ID 头读取
type CartHandler struct {
	svc *application.CartService
	m   *metrics.Metrics
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(svc *application.CartService, m *metrics.Metrics) *CartHandler {
	return &CartHandler{svc: svc, m: m}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/cart")
	{
		api.POST("", h.CreateCart)
		api.GET("", h.GetCart)
		api.POST("/lines", h.AddLine)
		api.PATCH("/lines/:product_id", h.UpdateLineQuantity)
		api.DELETE("/lines/:product_id", h.RemoveLine)
		api.DELETE("", h.ClearCart)
		api.POST("/checkout", h.Checkout)
		api.POST("/checkout/selected", h.CheckoutSelected)
	}
}

// AddLineRequest 添加条目请求
type AddLineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Count     int  `json:"count" binding:"required"`
}

// UpdateLineRequest 数量增量请求
// delta 不做 required 校验：零值增量是合法输入，由应用层按无操作处理
type UpdateLineRequest struct {
	Delta int `json:"delta"`
}

// CheckoutRequest 全量结算请求
type CheckoutRequest struct {
	AddressID uint `json:"address_id" binding:"required"`
}

// CheckoutSelectedRequest 选择性结算请求
type CheckoutSelectedRequest struct {
	ProductIDs []uint `json:"product_ids"`
	AddressID  uint   `json:"address_id" binding:"required"`
}

// CreateCart 为用户开通购物车，幂等
func (h *CartHandler) CreateCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	view, err := h.svc.CreateCart(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetCart 获取购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	view, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddLine 添加商品
func (h *CartHandler) AddLine(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.AddLine(c.Request.Context(), userID, req.ProductID, req.Count); err != nil {
		h.fail(c, "add", err)
		return
	}
	h.count("add", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateLineQuantity 调整条目数量
func (h *CartHandler) UpdateLineQuantity(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateLineQuantity(c.Request.Context(), userID, uint(productID), req.Delta); err != nil {
		h.fail(c, "update", err)
		return
	}
	h.count("update", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveLine 删除条目
func (h *CartHandler) RemoveLine(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if err := h.svc.RemoveLine(c.Request.Context(), userID, uint(productID)); err != nil {
		h.fail(c, "remove", err)
		return
	}
	h.count("remove", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.svc.ClearCart(c.Request.Context(), userID); err != nil {
		h.fail(c, "clear", err)
		return
	}
	h.count("clear", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Checkout 结算整个购物车
func (h *CartHandler) Checkout(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.Checkout(c.Request.Context(), userID, req.AddressID)
	if err != nil {
		h.failCheckout(c, err)
		return
	}
	h.observeOrder(view)
	c.JSON(http.StatusOK, view)
}

// CheckoutSelected 结算选中的条目
func (h *CartHandler) CheckoutSelected(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CheckoutSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.CheckoutSelected(c.Request.Context(), userID, req.ProductIDs, req.AddressID)
	if err != nil {
		h.failCheckout(c, err)
		return
	}
	h.observeOrder(view)
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) userID(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return "", false
	}
	return userID, true
}

func (h *CartHandler) fail(c *gin.Context, operation string, err error) {
	h.count(operation, "error")
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *CartHandler) failCheckout(c *gin.Context, err error) {
	if h.m != nil {
		h.m.CheckoutsTotal.WithLabelValues("error").Inc()
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *CartHandler) count(operation, result string) {
	if h.m != nil {
		h.m.CartOperationsTotal.WithLabelValues(operation, result).Inc()
	}
}

func (h *CartHandler) observeOrder(view *application.OrderView) {
	if h.m == nil {
		return
	}
	h.m.CheckoutsTotal.WithLabelValues("ok").Inc()
	h.m.OrdersTotal.Inc()
	total, _ := view.Total.Float64()
	h.m.OrderAmount.Observe(total)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, addressdomain.ErrAddressNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
