package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubportal/internal/service"
)

// RoleHandler serves roles and team positions.
type RoleHandler struct {
	svc service.RoleService
}

// NewRoleHandler creates a role handler.
func NewRoleHandler(svc service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// ListRoles godoc
// @Summary List roles
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Role
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c echo.Context) error {
	roles, err := h.svc.ListRoles(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, roles)
}

// CreateRole godoc
// @Summary Create role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role body service.RoleInput true "Role"
// @Success 201 {object} model.Role
// @Failure 409 {object} errors.ErrorResponse
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c echo.Context) error {
	var req service.RoleInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.svc.CreateRole(c.Request().Context(), PrincipalFrom(c), req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, role)
}

// UpdateRole godoc
// @Summary Replace role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param role body service.RoleInput true "Role"
// @Success 200 {object} model.Role
// @Failure 404 {object} errors.ErrorResponse
// @Router /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.RoleInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.svc.UpdateRole(c.Request().Context(), PrincipalFrom(c), id, req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, role)
}

// DeleteRole godoc
// @Summary Delete role
// @Tags roles
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 204
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRole(c.Request().Context(), PrincipalFrom(c), id, c.RealIP()); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPositions godoc
// @Summary List team positions
// @Tags positions
// @Produce json
// @Success 200 {array} model.TeamPosition
// @Router /positions [get]
func (h *RoleHandler) ListPositions(c echo.Context) error {
	positions, err := h.svc.ListPositions(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, positions)
}

// CreatePosition godoc
// @Summary Create team position
// @Tags positions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param position body service.PositionInput true "Position"
// @Success 201 {object} model.TeamPosition
// @Router /positions [post]
func (h *RoleHandler) CreatePosition(c echo.Context) error {
	var req service.PositionInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	pos, err := h.svc.CreatePosition(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, pos)
}

// UpdatePosition godoc
// @Summary Replace team position
// @Tags positions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Position ID"
// @Param position body service.PositionInput true "Position"
// @Success 200 {object} model.TeamPosition
// @Router /positions/{id} [put]
func (h *RoleHandler) UpdatePosition(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.PositionInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	pos, err := h.svc.UpdatePosition(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, pos)
}

// DeletePosition godoc
// @Summary Delete team position
// @Tags positions
// @Security BearerAuth
// @Param id path int true "Position ID"
// @Success 204
// @Router /positions/{id} [delete]
func (h *RoleHandler) DeletePosition(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePosition(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}
