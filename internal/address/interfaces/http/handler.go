package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/onlineordering/internal/address/application"
	"github.com/wyfcoding/onlineordering/internal/address/domain"
)

// AddressHandler 收货地址 HTTP 处理器
type AddressHandler struct {
	svc *application.AddressService
}

// NewAddressHandler 创建 HTTP 处理器实例
func NewAddressHandler(svc *application.AddressService) *AddressHandler {
	return &AddressHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *AddressHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/addresses")
	{
		api.GET("", h.ListAddresses)
		api.POST("", h.AddAddress)
		api.DELETE("/:id", h.RemoveAddress)
	}
}

// AddAddressRequest 新增地址请求
type AddAddressRequest struct {
	City   string `json:"city" binding:"required"`
	Street string `json:"street" binding:"required"`
	House  string `json:"house" binding:"required"`
}

// ListAddresses 列出用户地址
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}
	addresses, err := h.svc.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// AddAddress 新增地址
func (h *AddressHandler) AddAddress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}
	var req AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.svc.AddAddress(c.Request.Context(), application.AddAddressCommand{
		UserID: userID,
		City:   req.City,
		Street: req.Street,
		House:  req.House,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, a)
}

// RemoveAddress 删除地址
func (h *AddressHandler) RemoveAddress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}
	if err := h.svc.RemoveAddress(c.Request.Context(), userID, uint(id)); err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
