package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoParadex/paragate/internal/service"
)

type AccountHandler struct {
	svc *service.Gateway
	// Ethereum address sent during onboarding; empty when the stark key
	// was configured directly.
	ethereumAddress string
}

func NewAccountHandler(svc *service.Gateway, ethereumAddress string) *AccountHandler {
	return &AccountHandler{svc: svc, ethereumAddress: ethereumAddress}
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	info, err := h.svc.Account(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *AccountHandler) GetPositions(c *gin.Context) {
	positions, err := h.svc.Positions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": positions})
}

func (h *AccountHandler) Onboard(c *gin.Context) {
	if err := h.svc.Onboard(c.Request.Context(), h.ethereumAddress); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "onboarded"})
}

func (h *AccountHandler) RefreshAuth(c *gin.Context) {
	h.svc.RequestAuthRefresh()
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh requested"})
}
