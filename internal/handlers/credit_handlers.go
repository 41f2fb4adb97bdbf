package handlers

import (
	"net/http"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/middleware"
	"github.com/90n9/talepick/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreditHandler serves balance and ledger endpoints
type CreditHandler struct {
	credits *services.CreditService
}

// NewCreditHandler creates a CreditHandler
func NewCreditHandler(credits *services.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

// BalanceResponse reports the current credit balance
type BalanceResponse struct {
	Credits    int `json:"credits"`
	MaxCredits int `json:"max_credits"`
}

// Balance godoc
// @Summary Get credit balance
// @Description Returns the balance after folding in any accrued refill
// @Tags credits
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} BalanceResponse
// @Router /credits [get]
func (h *CreditHandler) Balance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	refreshed, err := h.credits.Balance(c.Request.Context(), user.ID)
	if err != nil {
		logging.Logger.Error("failed to load balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Credits:    refreshed.Credits,
		MaxCredits: refreshed.MaxCredits,
	})
}

// Ledger godoc
// @Summary List credit ledger entries
// @Tags credits
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Max results"
// @Success 200 {array} models.CreditLedgerEntry
// @Router /credits/ledger [get]
func (h *CreditHandler) Ledger(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	entries, err := h.credits.Ledger(c.Request.Context(), user.ID, parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list ledger"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
