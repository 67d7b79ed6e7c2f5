package handler

import (
	"strconv"

	payrollapp "github.com/gestor/backend/internal/application/payroll"
	"github.com/gestor/backend/internal/interfaces/http/dto"
	"github.com/gestor/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ClosingHandler handles monthly closing API endpoints
type ClosingHandler struct {
	BaseHandler
	closingService *payrollapp.ClosingService
}

// NewClosingHandler creates a new ClosingHandler
func NewClosingHandler(closingService *payrollapp.ClosingService) *ClosingHandler {
	return &ClosingHandler{
		closingService: closingService,
	}
}

// CloseMonth finalizes a payroll month for every active employee. Months
// must be closed in calendar order; the close is all-or-nothing.
func (h *ClosingHandler) CloseMonth(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payrollapp.CloseMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Closing user is required")
		return
	}
	req.UserID = userID
	req.UserName = middleware.GetJWTUsername(c)

	result, err := h.closingService.CloseMonth(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ReopenMonth reverses a monthly close and deletes the pristine auto-opened
// placeholders of the following month
func (h *ClosingHandler) ReopenMonth(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payrollapp.ReopenMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Reopening user is required")
		return
	}
	req.UserID = userID
	req.UserName = middleware.GetJWTUsername(c)

	result, err := h.closingService.ReopenMonth(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MonthlyReport returns the per-employee payroll report of a month. Closed
// months are served from stored rows, open months are computed on the fly.
func (h *ClosingHandler) MonthlyReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var period dto.PeriodRequest
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rows, err := h.closingService.GenerateMonthlyReport(c.Request.Context(), tenantID, period.Month, period.Year)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rows)
}

// AuditHistory lists the most recent close/reopen audit entries
func (h *ClosingHandler) AuditHistory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.closingService.AuditHistory(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}
