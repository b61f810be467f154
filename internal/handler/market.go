package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
	"github.com/GoParadex/paragate/internal/service"
)

type MarketHandler struct {
	svc *service.Gateway
}

func NewMarketHandler(svc *service.Gateway) *MarketHandler {
	return &MarketHandler{svc: svc}
}

func (h *MarketHandler) ListMarkets(c *gin.Context) {
	markets, err := h.svc.Markets(c.Request.Context(), c.Query("market"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": markets})
}

func (h *MarketHandler) Analyze(c *gin.Context) {
	symbol := c.Param("market")
	if symbol == "" {
		abortWithError(c, apperrors.NewValidation("market symbol is required"))
		return
	}
	analysis, err := h.svc.Analyze(c.Request.Context(), symbol)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
