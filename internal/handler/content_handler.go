package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/service"
)

// ContentHandler serves the public-facing club content.
type ContentHandler struct {
	svc  service.ContentService
	caps service.CapabilityChecker
}

// NewContentHandler creates a content handler.
func NewContentHandler(svc service.ContentService, caps service.CapabilityChecker) *ContentHandler {
	return &ContentHandler{svc: svc, caps: caps}
}

// ListAnnouncements godoc
// @Summary List announcements
// @Description Anonymous callers and members without announcement rights only see published posts.
// @Tags announcements
// @Produce json
// @Success 200 {array} model.Announcement
// @Router /announcements [get]
func (h *ContentHandler) ListAnnouncements(c echo.Context) error {
	ctx := c.Request().Context()
	p := PrincipalFrom(c)
	drafts := p.Superuser() ||
		h.caps.HasCapability(ctx, p, access.ManageAnnouncements) ||
		h.caps.HasCapability(ctx, p, access.ManageContent)
	items, err := h.svc.ListAnnouncements(ctx, !drafts)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateAnnouncement godoc
// @Summary Create announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param announcement body service.AnnouncementInput true "Announcement"
// @Success 201 {object} model.Announcement
// @Router /announcements [post]
func (h *ContentHandler) CreateAnnouncement(c echo.Context) error {
	var req service.AnnouncementInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	a, err := h.svc.CreateAnnouncement(c.Request().Context(), PrincipalFrom(c), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// PublishAnnouncement godoc
// @Summary Publish announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} MessageResponse
// @Router /announcements/{id}/publish [post]
func (h *ContentHandler) PublishAnnouncement(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.PublishAnnouncement(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "announcement published"})
}

// DeleteAnnouncement godoc
// @Summary Delete announcement
// @Tags announcements
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 204
// @Router /announcements/{id} [delete]
func (h *ContentHandler) DeleteAnnouncement(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAnnouncement(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Success 200 {array} model.Event
// @Router /events [get]
func (h *ContentHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body service.EventInput true "Event"
// @Success 201 {object} model.Event
// @Router /events [post]
func (h *ContentHandler) CreateEvent(c echo.Context) error {
	var req service.EventInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.svc.CreateEvent(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, e)
}

// DeleteEvent godoc
// @Summary Delete event
// @Tags events
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *ContentHandler) DeleteEvent(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SubmitContact godoc
// @Summary Send a contact message
// @Tags contact
// @Accept json
// @Produce json
// @Param message body service.ContactInput true "Message"
// @Success 201 {object} model.ContactMessage
// @Router /contact [post]
func (h *ContentHandler) SubmitContact(c echo.Context) error {
	var req service.ContactInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := h.svc.SubmitContact(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, m)
}

// ListContactMessages godoc
// @Summary List contact messages
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ContactMessage
// @Router /contact [get]
func (h *ContentHandler) ListContactMessages(c echo.Context) error {
	msgs, err := h.svc.ListContactMessages(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// SubmitSponsorship godoc
// @Summary Send a sponsorship inquiry
// @Tags sponsorships
// @Accept json
// @Produce json
// @Param inquiry body service.SponsorshipInput true "Inquiry"
// @Success 201 {object} model.Sponsorship
// @Router /sponsorships [post]
func (h *ContentHandler) SubmitSponsorship(c echo.Context) error {
	var req service.SponsorshipInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sp, err := h.svc.SubmitSponsorship(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, sp)
}

// ListSponsorships godoc
// @Summary List sponsorships
// @Tags sponsorships
// @Produce json
// @Success 200 {array} model.Sponsorship
// @Router /sponsorships [get]
func (h *ContentHandler) ListSponsorships(c echo.Context) error {
	items, err := h.svc.ListSponsorships(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListGallery godoc
// @Summary List gallery images
// @Tags gallery
// @Produce json
// @Param event_id query int false "Only images from this event"
// @Success 200 {array} model.GalleryImage
// @Router /gallery [get]
func (h *ContentHandler) ListGallery(c echo.Context) error {
	eventID, err := optionalUintQuery(c, "event_id")
	if err != nil {
		return err
	}
	images, err := h.svc.ListGallery(c.Request().Context(), eventID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, images)
}

// UploadGalleryImage godoc
// @Summary Upload gallery image
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Param title formData string false "Caption"
// @Param event_id formData int false "Event ID"
// @Success 201 {object} model.GalleryImage
// @Failure 503 {object} errors.ErrorResponse
// @Router /gallery [post]
func (h *ContentHandler) UploadGalleryImage(c echo.Context) error {
	var eventID *uint
	if raw := c.FormValue("event_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid event_id",
				Code:  "INVALID_ID",
			})
		}
		id := uint(v)
		eventID = &id
	}
	upload, closeFn, err := formUpload(c, "image")
	if err != nil {
		return err
	}
	defer closeFn()

	img, err := h.svc.UploadGalleryImage(c.Request().Context(), PrincipalFrom(c), c.FormValue("title"), eventID, upload)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, img)
}

// DeleteGalleryImage godoc
// @Summary Delete gallery image
// @Tags gallery
// @Security BearerAuth
// @Param id path int true "Image ID"
// @Success 204
// @Router /gallery/{id} [delete]
func (h *ContentHandler) DeleteGalleryImage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteGalleryImage(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRecruitment godoc
// @Summary List recruitment drives
// @Tags recruitment
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.RecruitmentDrive
// @Router /recruitment [get]
func (h *ContentHandler) ListRecruitment(c echo.Context) error {
	drives, err := h.svc.ListRecruitmentDrives(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, drives)
}

// CreateRecruitment godoc
// @Summary Create recruitment drive
// @Tags recruitment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param drive body service.RecruitmentInput true "Drive"
// @Success 201 {object} model.RecruitmentDrive
// @Router /recruitment [post]
func (h *ContentHandler) CreateRecruitment(c echo.Context) error {
	var req service.RecruitmentInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.svc.CreateRecruitmentDrive(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, d)
}

// ActiveRecruitment godoc
// @Summary Current public recruitment drive
// @Tags recruitment
// @Produce json
// @Success 200 {object} model.RecruitmentDrive
// @Success 204
// @Router /recruitment/active [get]
func (h *ContentHandler) ActiveRecruitment(c echo.Context) error {
	d, err := h.svc.ActivePublic(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	if d == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, d)
}
