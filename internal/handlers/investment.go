package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/auth"
	"investment-platform/internal/services"
)

type InvestmentHandler struct {
	investmentService *services.InvestmentService
}

func NewInvestmentHandler(investmentService *services.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// CreateInvestment records a new principal deposit.
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}

	investment, err := h.investmentService.CreateInvestment(c.Request.Context(), userID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    investment,
	})
}

// ListInvestments returns the user's investments.
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	investments, err := h.investmentService.ListInvestments(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get investments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    investments,
		"count":   len(investments),
	})
}
