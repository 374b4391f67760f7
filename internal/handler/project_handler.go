package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubportal/internal/service"
)

// ProjectHandler serves projects and their collaboration state.
type ProjectHandler struct {
	svc      service.ProjectService
	presence service.PresenceService
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(svc service.ProjectService, presence service.PresenceService) *ProjectHandler {
	return &ProjectHandler{svc: svc, presence: presence}
}

// JoinRequest is the body of a join request.
type JoinRequest struct {
	Message string `json:"message"`
}

// StatusUpdateRequest carries a project status report.
type StatusUpdateRequest struct {
	UpdateText string `json:"update_text"`
}

// ThreadRequest creates a thread.
type ThreadRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	IsEphemeral bool   `json:"is_ephemeral"`
}

// MessageRequest posts a chat message.
type MessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// TypingResponse lists participants currently typing.
type TypingResponse struct {
	Typing []service.Typer `json:"typing"`
}

// ListProjects godoc
// @Summary List projects
// @Tags projects
// @Produce json
// @Description Members see the projects they lead or belong to; superusers and anonymous visitors see all.
// @Success 200 {array} model.Project
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.svc.ListProjects(c.Request().Context(), PrincipalFrom(c))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, projects)
}

// GetProject godoc
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} model.Project
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.svc.GetProject(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, project)
}

// CreateProject godoc
// @Summary Create project
// @Description The caller becomes lead unless lead_id is given, and always joins the members.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param project body service.ProjectInput true "Project"
// @Success 201 {object} model.Project
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req service.ProjectInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	project, err := h.svc.CreateProject(c.Request().Context(), PrincipalFrom(c), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, project)
}

// UpdateProject godoc
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param project body service.ProjectUpdateInput true "Fields to change"
// @Success 200 {object} model.Project
// @Router /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProjectUpdateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	project, err := h.svc.UpdateProject(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete project
// @Tags projects
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteProject(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestStatus godoc
// @Summary Ask the team for a status update
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects/{id}/request-status [post]
func (h *ProjectHandler) RequestStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RequestStatus(c.Request().Context(), PrincipalFrom(c), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "status update requested"})
}

// SubmitStatus godoc
// @Summary Submit a status update
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body StatusUpdateRequest true "Update"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /projects/{id}/submit-status [post]
func (h *ProjectHandler) SubmitStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req StatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.SubmitStatus(c.Request().Context(), PrincipalFrom(c), id, req.UpdateText); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "status updated"})
}

// RequestJoin godoc
// @Summary Request to join a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body JoinRequest false "Message to the lead"
// @Success 201 {object} model.ProjectRequest
// @Failure 409 {object} errors.ErrorResponse
// @Router /projects/{id}/join [post]
func (h *ProjectHandler) RequestJoin(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req JoinRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	jr, err := h.svc.RequestJoin(c.Request().Context(), PrincipalFrom(c), id, req.Message)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, jr)
}

// ListJoinRequests godoc
// @Summary List join requests
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {array} model.ProjectRequest
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects/{id}/requests [get]
func (h *ProjectHandler) ListJoinRequests(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	requests, err := h.svc.ListJoinRequests(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// ApproveRequest godoc
// @Summary Approve a join request
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Join request ID"
// @Success 200 {object} model.ProjectRequest
// @Failure 403 {object} errors.ErrorResponse
// @Router /project-requests/{id}/approve [post]
func (h *ProjectHandler) ApproveRequest(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.svc.ApproveRequest(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, req)
}

// RejectRequest godoc
// @Summary Reject a join request
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Join request ID"
// @Success 200 {object} model.ProjectRequest
// @Failure 403 {object} errors.ErrorResponse
// @Router /project-requests/{id}/reject [post]
func (h *ProjectHandler) RejectRequest(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.svc.RejectRequest(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, req)
}

// SyncState godoc
// @Summary Poll collaboration state
// @Description Last login per participant and newest message id per thread.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} service.SyncState
// @Router /projects/{id}/sync [get]
func (h *ProjectHandler) SyncState(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	state, err := h.svc.SyncState(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, state)
}

// ListThreads godoc
// @Summary List threads
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {array} model.ProjectThread
// @Router /projects/{id}/threads [get]
func (h *ProjectHandler) ListThreads(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	threads, err := h.svc.ListThreads(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, threads)
}

// CreateThread godoc
// @Summary Create thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body ThreadRequest true "Thread"
// @Success 201 {object} model.ProjectThread
// @Router /projects/{id}/threads [post]
func (h *ProjectHandler) CreateThread(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req ThreadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	thread, err := h.svc.CreateThread(c.Request().Context(), PrincipalFrom(c), id, req.Title, req.IsEphemeral)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, thread)
}

// ToggleEphemeral godoc
// @Summary Toggle ephemeral mode
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} model.ProjectThread
// @Router /threads/{id}/toggle-ephemeral [post]
func (h *ProjectHandler) ToggleEphemeral(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	thread, err := h.svc.ToggleEphemeral(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, thread)
}

// PurgeMessages godoc
// @Summary Wipe thread history
// @Description Project lead or superuser only.
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} CountResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /threads/{id}/purge [post]
func (h *ProjectHandler) PurgeMessages(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.PurgeMessages(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, CountResponse{Message: "history wiped", Count: n})
}

// ListMessages godoc
// @Summary List thread messages
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {array} model.ThreadMessage
// @Router /threads/{id}/messages [get]
func (h *ProjectHandler) ListMessages(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// PostMessage godoc
// @Summary Post a message
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Param request body MessageRequest true "Message"
// @Success 201 {object} model.ThreadMessage
// @Failure 403 {object} errors.ErrorResponse
// @Router /threads/{id}/messages [post]
func (h *ProjectHandler) PostMessage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req MessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.svc.PostMessage(c.Request().Context(), PrincipalFrom(c), id, req.Content)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// SignalTyping godoc
// @Summary Signal typing
// @Description Visible to other participants for four seconds.
// @Tags threads
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 204
// @Router /threads/{id}/typing [post]
func (h *ProjectHandler) SignalTyping(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.presence.Signal(c.Request().Context(), PrincipalFrom(c), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TypingStatus godoc
// @Summary Who is typing
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} TypingResponse
// @Router /threads/{id}/typing [get]
func (h *ProjectHandler) TypingStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	typers, err := h.presence.Status(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, TypingResponse{Typing: typers})
}
