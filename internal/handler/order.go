package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
	"github.com/GoParadex/paragate/internal/service"
)

type OrderHandler struct {
	svc *service.Gateway
}

func NewOrderHandler(svc *service.Gateway) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var det service.OrderDetails
	if err := c.ShouldBindJSON(&det); err != nil {
		abortWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	order, err := h.svc.PlaceOrder(c.Request.Context(), det)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) PlaceBatch(c *gin.Context) {
	var req struct {
		Orders []service.OrderDetails `json:"orders" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	results := h.svc.PlaceBatch(c.Request.Context(), req.Orders)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		abortWithError(c, apperrors.NewValidation("order id is required"))
		return
	}
	if err := h.svc.CancelOrder(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "id": id})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.svc.OpenOrders(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": orders})
}

func (h *OrderHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.svc.History()})
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
