package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/errors"
	"clubportal/internal/repository"
)

// Context keys shared with the router middleware.
const (
	ClaimsContextKey    = "claims"
	PrincipalContextKey = "principal"
)

// PrincipalFrom returns the caller's principal, or nil for anonymous requests.
func PrincipalFrom(c echo.Context) *access.Principal {
	p, _ := c.Get(PrincipalContextKey).(*access.Principal)
	return p
}

// ClaimsFrom returns the verified access-token claims, if any.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ReorderRequest carries a batch of order updates applied atomically.
type ReorderRequest struct {
	Items []repository.OrderUpdate `json:"items" validate:"required,dive"`
}

// errorResponse converts a domain error into an echo HTTP error.
func errorResponse(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

// optionalUintQuery parses an optional numeric query parameter.
func optionalUintQuery(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_QUERY",
		})
	}
	id := uint(v)
	return &id, nil
}

// writeCSV streams rows as an attachment.
func writeCSV(c echo.Context, filename string, rows [][]string) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
