package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"clubportal/internal/errors"
	"clubportal/internal/service"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FormHandler serves form schemas, submissions and response exports.
type FormHandler struct {
	svc service.FormService
}

// NewFormHandler creates a form handler.
func NewFormHandler(svc service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

// ListForms godoc
// @Summary List forms
// @Tags forms
// @Produce json
// @Success 200 {array} model.Form
// @Router /forms [get]
func (h *FormHandler) ListForms(c echo.Context) error {
	forms, err := h.svc.ListForms(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, forms)
}

// GetForm godoc
// @Summary Get form with sections and fields
// @Tags forms
// @Produce json
// @Param id path int true "Form ID"
// @Success 200 {object} model.Form
// @Failure 404 {object} errors.ErrorResponse
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, err := h.svc.GetForm(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, form)
}

// CreateForm godoc
// @Summary Create form
// @Description Sections and fields may be nested in one request.
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param form body service.FormInput true "Form"
// @Success 201 {object} model.Form
// @Failure 400 {object} errors.ErrorResponse
// @Router /forms [post]
func (h *FormHandler) CreateForm(c echo.Context) error {
	var req service.FormInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	form, err := h.svc.CreateForm(c.Request().Context(), PrincipalFrom(c), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, form)
}

// UpdateForm godoc
// @Summary Update form settings
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param form body service.FormUpdateInput true "Settings"
// @Success 200 {object} model.Form
// @Router /forms/{id} [patch]
func (h *FormHandler) UpdateForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.FormUpdateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	form, err := h.svc.UpdateForm(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, form)
}

// DeleteForm godoc
// @Summary Delete form
// @Tags forms
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 204
// @Router /forms/{id} [delete]
func (h *FormHandler) DeleteForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteForm(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddSection godoc
// @Summary Add a section to a form
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param section body service.SectionInput true "Section"
// @Success 201 {object} model.FormSection
// @Router /forms/{id}/sections [post]
func (h *FormHandler) AddSection(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.SectionInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	section, err := h.svc.AddSection(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, section)
}

// AddField godoc
// @Summary Add a field to a form
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param field body service.FieldInput true "Field"
// @Success 201 {object} model.FormField
// @Router /forms/{id}/fields [post]
func (h *FormHandler) AddField(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.FieldInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	field, err := h.svc.AddField(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, field)
}

// ReorderFields godoc
// @Summary Reorder form fields
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param request body ReorderRequest true "New order"
// @Success 200 {object} MessageResponse
// @Router /forms/{id}/fields/reorder [post]
func (h *FormHandler) ReorderFields(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ReorderFields(c.Request().Context(), id, req.Items); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "field order updated"})
}

// Submit godoc
// @Summary Submit a response
// @Description Answers are keyed by field label. Unknown labels are dropped.
// @Tags forms
// @Accept json
// @Produce json
// @Param id path int true "Form ID"
// @Param answers body map[string]interface{} true "Answers keyed by field label"
// @Success 201 {object} model.FormResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /forms/{id}/responses [post]
func (h *FormHandler) Submit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	// Decoded directly: echo's binder would merge the :id path param into a map.
	raw := map[string]interface{}{}
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	resp, err := h.svc.Submit(c.Request().Context(), id, PrincipalFrom(c), raw)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListResponses godoc
// @Summary List responses
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 200 {array} model.FormResponse
// @Router /forms/{id}/responses [get]
func (h *FormHandler) ListResponses(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	responses, err := h.svc.ListResponses(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, responses)
}

// ExportResponses godoc
// @Summary Export responses as CSV
// @Tags forms
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 200 {string} string "CSV file"
// @Router /forms/{id}/responses/export [get]
func (h *FormHandler) ExportResponses(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, rows, err := h.svc.ExportResponsesCSV(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return writeCSV(c, fmt.Sprintf("%s_responses.csv", unsafeFilename.ReplaceAllString(form.Title, "_")), rows)
}
