package handler

import (
	payrollapp "github.com/gestor/backend/internal/application/payroll"
	"github.com/gestor/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PayrollHandler handles payslip and salary API endpoints
type PayrollHandler struct {
	BaseHandler
	payrollService *payrollapp.PayrollService
}

// NewPayrollHandler creates a new PayrollHandler
func NewPayrollHandler(payrollService *payrollapp.PayrollService) *PayrollHandler {
	return &PayrollHandler{
		payrollService: payrollService,
	}
}

// AddAdvance registers a salary advance on the employee's open payslip
func (h *PayrollHandler) AddAdvance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payrollapp.AddAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payslip, err := h.payrollService.AddAdvance(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payslip)
}

// AddAbsence registers an absence on the employee's open payslip
func (h *PayrollHandler) AddAbsence(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payrollapp.AddAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payslip, err := h.payrollService.AddAbsence(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payslip)
}

// ChangeSalary updates an employee's salary and appends to salary history
func (h *PayrollHandler) ChangeSalary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payrollapp.ChangeSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if userID, err := getUserID(c); err == nil {
		req.RecordedBy = &userID
	}

	change, err := h.payrollService.ChangeSalary(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, change)
}

// SalaryHistory lists an employee's salary changes, most recent first
func (h *PayrollHandler) SalaryHistory(c *gin.Context) {
	tenantID, employeeID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	history, err := h.payrollService.SalaryHistory(c.Request.Context(), tenantID, employeeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// GetPayslip retrieves a payslip by ID
func (h *PayrollHandler) GetPayslip(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	payslip, err := h.payrollService.GetPayslip(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payslip)
}

// GetEmployeePayslip retrieves an employee's payslip for a given month/year
func (h *PayrollHandler) GetEmployeePayslip(c *gin.Context) {
	tenantID, employeeID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var period dto.PeriodRequest
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payslip, err := h.payrollService.GetEmployeePayslip(c.Request.Context(), tenantID, employeeID, period.Month, period.Year)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payslip)
}

// ListPayslips lists all payslips of a month/year
func (h *PayrollHandler) ListPayslips(c *gin.Context) {
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

	payslips, err := h.payrollService.ListPayslipsForPeriod(c.Request.Context(), tenantID, period.Month, period.Year)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payslips)
}

// ListEmployeePayslips lists every payslip of an employee
func (h *PayrollHandler) ListEmployeePayslips(c *gin.Context) {
	tenantID, employeeID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	payslips, err := h.payrollService.ListEmployeePayslips(c.Request.Context(), tenantID, employeeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payslips)
}
