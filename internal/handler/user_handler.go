package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clubportal/internal/errors"
	"clubportal/internal/service"
)

// UserHandler serves account administration, the public team and self-service profiles.
type UserHandler struct {
	svc     service.UserService
	content service.ContentService
}

// NewUserHandler creates a user handler.
func NewUserHandler(svc service.UserService, content service.ContentService) *UserHandler {
	return &UserHandler{svc: svc, content: content}
}

// UpdateMyProfileRequest is the self-service profile payload.
type UpdateMyProfileRequest struct {
	Email   *string              `json:"email" validate:"omitempty,email"`
	Profile service.ProfileInput `json:"profile"`
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body service.CreateUserInput true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req service.CreateUserInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := h.svc.CreateUser(c.Request().Context(), PrincipalFrom(c), req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser godoc
// @Summary Update user
// @Description Partial update. Position and SIG changes need manage_security.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateUserInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), PrincipalFrom(c), id, req, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), PrincipalFrom(c), id, c.RealIP()); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportUsers godoc
// @Summary Export users as CSV
// @Tags users
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV file"
// @Router /users/export [get]
func (h *UserHandler) ExportUsers(c echo.Context) error {
	rows, err := h.svc.ExportUsersCSV(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return writeCSV(c, "club_members.csv", rows)
}

// PublicTeam godoc
// @Summary Public team listing
// @Tags team
// @Produce json
// @Param alumni query bool false "List alumni instead of current members"
// @Success 200 {array} model.User
// @Router /team [get]
func (h *UserHandler) PublicTeam(c echo.Context) error {
	alumni, _ := strconv.ParseBool(c.QueryParam("alumni"))
	users, err := h.svc.PublicTeam(c.Request().Context(), alumni)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, users)
}

// ReorderTeam godoc
// @Summary Reorder the team listing
// @Description Items carry user ids. Applied in one transaction.
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReorderRequest true "New order"
// @Success 200 {object} MessageResponse
// @Router /team/reorder [post]
func (h *UserHandler) ReorderTeam(c echo.Context) error {
	var req ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ReorderTeam(c.Request().Context(), req.Items); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "team order updated"})
}

// UpdateMyProfile godoc
// @Summary Update own profile
// @Description Position, team, alumni status and SIG membership are not self-editable.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateMyProfileRequest true "Profile fields"
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/profile [patch]
func (h *UserHandler) UpdateMyProfile(c echo.Context) error {
	var req UpdateMyProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateOwnProfile(c.Request().Context(), PrincipalFrom(c), req.Email, req.Profile, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UploadMyImage godoc
// @Summary Upload own profile image
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /me/profile/image [post]
func (h *UserHandler) UploadMyImage(c echo.Context) error {
	upload, closeFn, err := formUpload(c, "image")
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := c.Request().Context()
	actor := PrincipalFrom(c)
	url, err := h.content.UploadProfileImage(ctx, actor, upload)
	if err != nil {
		return errorResponse(err)
	}
	user, err := h.svc.UpdateOwnProfile(ctx, actor, nil, service.ProfileInput{ImageURL: &url}, c.RealIP())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, user)
}

// formUpload opens a multipart file field.
func formUpload(c echo.Context, field string) (service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}, nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "missing file field " + field,
			Code:  "MISSING_FILE",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unreadable upload",
			Code:  "INVALID_FILE",
		})
	}
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
