package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"investment-platform/internal/services"
)

type AdminHandler struct {
	settlementService *services.SettlementService
	accrualService    *services.AccrualService
}

func NewAdminHandler(settlementService *services.SettlementService, accrualService *services.AccrualService) *AdminHandler {
	return &AdminHandler{
		settlementService: settlementService,
		accrualService:    accrualService,
	}
}

// ListWithdrawals returns withdrawals, optionally filtered by ?status=.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.settlementService.ListWithdrawals(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
		"count":   len(withdrawals),
	})
}

// ApproveWithdrawal executes the payout for a processing withdrawal.
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal id"})
		return
	}

	withdrawal, err := h.settlementService.ApproveWithdrawal(c.Request.Context(), uint(id))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawal,
	})
}

// RunAccrual triggers one accrual cycle outside the schedule.
func (h *AdminHandler) RunAccrual(c *gin.Context) {
	report, err := h.accrualService.RunCycle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}
