package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clubportal/internal/errors"
	"clubportal/internal/service"
)

const defaultAuditLimit = 100

// AuditHandler serves the audit trail.
type AuditHandler struct {
	svc service.AuditService
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// PurgeLogsRequest selects logs to delete by age.
type PurgeLogsRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// ListLogs godoc
// @Summary List audit logs
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 100)"
// @Success 200 {array} model.AuditLog
// @Router /audit-logs [get]
func (h *AuditHandler) ListLogs(c echo.Context) error {
	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "limit must be a positive integer",
				Code:  "INVALID_QUERY",
			})
		}
		limit = n
	}
	logs, err := h.svc.List(c.Request().Context(), limit)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, logs)
}

// ExportLogs godoc
// @Summary Export audit logs as CSV
// @Tags audit
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV file"
// @Router /audit-logs/export [get]
func (h *AuditHandler) ExportLogs(c echo.Context) error {
	rows, err := h.svc.ExportCSV(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return writeCSV(c, "audit_logs.csv", rows)
}

// PurgeLogs godoc
// @Summary Delete audit logs older than N days
// @Tags audit
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PurgeLogsRequest true "Age threshold"
// @Success 200 {object} CountResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /audit-logs/purge [post]
func (h *AuditHandler) PurgeLogs(c echo.Context) error {
	var req PurgeLogsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.svc.PurgeOlderThanDays(c.Request().Context(), PrincipalFrom(c), req.Days, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, CountResponse{
		Message: "Deleted " + strconv.FormatInt(n, 10) + " logs older than " + strconv.Itoa(req.Days) + " days",
		Count:   n,
	})
}
