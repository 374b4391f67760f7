package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubportal/internal/service"
)

// SigHandler serves SIGs and profile field definitions.
type SigHandler struct {
	svc service.SigService
}

// NewSigHandler creates a SIG handler.
func NewSigHandler(svc service.SigService) *SigHandler {
	return &SigHandler{svc: svc}
}

// ListSigs godoc
// @Summary List SIGs
// @Tags sigs
// @Produce json
// @Success 200 {array} model.Sig
// @Router /sigs [get]
func (h *SigHandler) ListSigs(c echo.Context) error {
	sigs, err := h.svc.ListSigs(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, sigs)
}

// CreateSig godoc
// @Summary Create SIG
// @Tags sigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sig body service.SigInput true "SIG"
// @Success 201 {object} model.Sig
// @Failure 409 {object} errors.ErrorResponse
// @Router /sigs [post]
func (h *SigHandler) CreateSig(c echo.Context) error {
	var req service.SigInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := h.svc.CreateSig(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, sig)
}

// UpdateSig godoc
// @Summary Update SIG
// @Description Renaming also rewrites the sig name on every member profile that carried the old one.
// @Tags sigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "SIG ID"
// @Param sig body service.SigInput true "SIG"
// @Success 200 {object} model.Sig
// @Router /sigs/{id} [put]
func (h *SigHandler) UpdateSig(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.SigInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := h.svc.UpdateSig(c.Request().Context(), PrincipalFrom(c), id, req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, sig)
}

// DeleteSig godoc
// @Summary Delete SIG
// @Tags sigs
// @Security BearerAuth
// @Param id path int true "SIG ID"
// @Success 204
// @Router /sigs/{id} [delete]
func (h *SigHandler) DeleteSig(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSig(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReorderSigs godoc
// @Summary Reorder SIGs
// @Tags sigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReorderRequest true "New order"
// @Success 200 {object} MessageResponse
// @Router /sigs/reorder [post]
func (h *SigHandler) ReorderSigs(c echo.Context) error {
	var req ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ReorderSigs(c.Request().Context(), req.Items); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "sig order updated"})
}

// ListProfileFields godoc
// @Summary List profile field definitions
// @Tags profile-fields
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ProfileFieldDefinition
// @Router /profile-fields [get]
func (h *SigHandler) ListProfileFields(c echo.Context) error {
	fields, err := h.svc.ListProfileFields(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, fields)
}

// CreateProfileField godoc
// @Summary Define a custom profile field
// @Tags profile-fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param field body service.ProfileFieldInput true "Field definition"
// @Success 201 {object} model.ProfileFieldDefinition
// @Router /profile-fields [post]
func (h *SigHandler) CreateProfileField(c echo.Context) error {
	var req service.ProfileFieldInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	field, err := h.svc.CreateProfileField(c.Request().Context(), PrincipalFrom(c), req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, field)
}

// ReorderProfileFields godoc
// @Summary Reorder profile field definitions
// @Tags profile-fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReorderRequest true "New order"
// @Success 200 {object} MessageResponse
// @Router /profile-fields/reorder [post]
func (h *SigHandler) ReorderProfileFields(c echo.Context) error {
	var req ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ReorderProfileFields(c.Request().Context(), req.Items); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "field order updated"})
}
