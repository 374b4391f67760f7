package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/handler"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Roles    *handler.RoleHandler
	Sigs     *handler.SigHandler
	Audit    *handler.AuditHandler
	Forms    *handler.FormHandler
	Projects *handler.ProjectHandler
	Content  *handler.ContentHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	loader PrincipalLoader,
	authz Authorizer,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", optionalJWT(jwtService), loadPrincipal(loader))
	perm := func(r access.ResourceType) echo.MiddlewareFunc {
		return requirePermission(authz, r)
	}

	// Auth
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout, requireAuth)

	me := api.Group("/me", requireAuth)
	me.GET("", h.Auth.Me)
	me.PATCH("/profile", h.Users.UpdateMyProfile)
	me.POST("/profile/image", h.Users.UploadMyImage)

	// Members
	users := api.Group("/users", perm(access.ResourceUsers))
	users.GET("", h.Users.ListUsers)
	users.POST("", h.Users.CreateUser)
	users.GET("/export", h.Users.ExportUsers)
	users.GET("/:id", h.Users.GetUser)
	users.PATCH("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)

	api.GET("/team", h.Users.PublicTeam)
	api.POST("/team/reorder", h.Users.ReorderTeam, perm(access.ResourceUsers))

	// Roles and positions
	roles := api.Group("/roles", perm(access.ResourceRoles))
	roles.GET("", h.Roles.ListRoles)
	roles.POST("", h.Roles.CreateRole)
	roles.PUT("/:id", h.Roles.UpdateRole)
	roles.DELETE("/:id", h.Roles.DeleteRole)

	positions := api.Group("/positions", perm(access.ResourcePositions))
	positions.GET("", h.Roles.ListPositions)
	positions.POST("", h.Roles.CreatePosition)
	positions.PUT("/:id", h.Roles.UpdatePosition)
	positions.DELETE("/:id", h.Roles.DeletePosition)

	// SIGs and profile fields
	sigs := api.Group("/sigs", perm(access.ResourceSigs))
	sigs.GET("", h.Sigs.ListSigs)
	sigs.POST("", h.Sigs.CreateSig)
	sigs.POST("/reorder", h.Sigs.ReorderSigs)
	sigs.PUT("/:id", h.Sigs.UpdateSig)
	sigs.DELETE("/:id", h.Sigs.DeleteSig)

	fields := api.Group("/profile-fields", perm(access.ResourceProfileFields))
	fields.GET("", h.Sigs.ListProfileFields)
	fields.POST("", h.Sigs.CreateProfileField)
	fields.POST("/reorder", h.Sigs.ReorderProfileFields)

	// Audit trail
	audit := api.Group("/audit-logs", perm(access.ResourceAuditLogs))
	audit.GET("", h.Audit.ListLogs)
	audit.GET("/export", h.Audit.ExportLogs)
	audit.POST("/purge", h.Audit.PurgeLogs)

	// Forms
	forms := api.Group("/forms")
	forms.GET("", h.Forms.ListForms, perm(access.ResourceForms))
	forms.POST("", h.Forms.CreateForm, perm(access.ResourceForms))
	forms.GET("/:id", h.Forms.GetForm, perm(access.ResourceForms))
	forms.PATCH("/:id", h.Forms.UpdateForm, perm(access.ResourceForms))
	forms.DELETE("/:id", h.Forms.DeleteForm, perm(access.ResourceForms))
	forms.POST("/:id/sections", h.Forms.AddSection, perm(access.ResourceFormSections))
	forms.POST("/:id/fields", h.Forms.AddField, perm(access.ResourceFormFields))
	forms.POST("/:id/fields/reorder", h.Forms.ReorderFields, perm(access.ResourceFormFields))
	forms.POST("/:id/responses", h.Forms.Submit, perm(access.ResourceFormResponses))
	forms.GET("/:id/responses", h.Forms.ListResponses, perm(access.ResourceFormResponses))
	forms.GET("/:id/responses/export", h.Forms.ExportResponses, perm(access.ResourceFormResponses))

	// Projects. Collaboration routes only require a login; membership and
	// leadership are checked by the project service.
	projects := api.Group("/projects")
	projects.GET("", h.Projects.ListProjects, perm(access.ResourceProjects))
	projects.POST("", h.Projects.CreateProject, perm(access.ResourceProjects))
	projects.GET("/:id", h.Projects.GetProject, perm(access.ResourceProjects))
	projects.PATCH("/:id", h.Projects.UpdateProject, perm(access.ResourceProjects))
	projects.DELETE("/:id", h.Projects.DeleteProject, perm(access.ResourceProjects))
	projects.POST("/:id/request-status", h.Projects.RequestStatus, requireAuth)
	projects.POST("/:id/submit-status", h.Projects.SubmitStatus, requireAuth)
	projects.POST("/:id/join", h.Projects.RequestJoin, requireAuth)
	projects.GET("/:id/requests", h.Projects.ListJoinRequests, requireAuth)
	projects.GET("/:id/sync", h.Projects.SyncState, requireAuth)
	projects.GET("/:id/threads", h.Projects.ListThreads, requireAuth)
	projects.POST("/:id/threads", h.Projects.CreateThread, requireAuth)

	requests := api.Group("/project-requests", requireAuth)
	requests.POST("/:id/approve", h.Projects.ApproveRequest)
	requests.POST("/:id/reject", h.Projects.RejectRequest)

	threads := api.Group("/threads", requireAuth)
	threads.POST("/:id/toggle-ephemeral", h.Projects.ToggleEphemeral)
	threads.POST("/:id/purge", h.Projects.PurgeMessages)
	threads.GET("/:id/messages", h.Projects.ListMessages)
	threads.POST("/:id/messages", h.Projects.PostMessage)
	threads.POST("/:id/typing", h.Projects.SignalTyping)
	threads.GET("/:id/typing", h.Projects.TypingStatus)

	// Public site content
	announcements := api.Group("/announcements", perm(access.ResourceAnnouncements))
	announcements.GET("", h.Content.ListAnnouncements)
	announcements.POST("", h.Content.CreateAnnouncement)
	announcements.POST("/:id/publish", h.Content.PublishAnnouncement)
	announcements.DELETE("/:id", h.Content.DeleteAnnouncement)

	events := api.Group("/events", perm(access.ResourceEvents))
	events.GET("", h.Content.ListEvents)
	events.POST("", h.Content.CreateEvent)
	events.DELETE("/:id", h.Content.DeleteEvent)

	contact := api.Group("/contact", perm(access.ResourceContactMessages))
	contact.POST("", h.Content.SubmitContact)
	contact.GET("", h.Content.ListContactMessages)

	sponsorships := api.Group("/sponsorships", perm(access.ResourceSponsorships))
	sponsorships.POST("", h.Content.SubmitSponsorship)
	sponsorships.GET("", h.Content.ListSponsorships)

	gallery := api.Group("/gallery", perm(access.ResourceGallery))
	gallery.GET("", h.Content.ListGallery)
	gallery.POST("", h.Content.UploadGalleryImage)
	gallery.DELETE("/:id", h.Content.DeleteGalleryImage)

	api.GET("/recruitment/active", h.Content.ActiveRecruitment)
	recruitment := api.Group("/recruitment", perm(access.ResourceRecruitment))
	recruitment.GET("", h.Content.ListRecruitment)
	recruitment.POST("", h.Content.CreateRecruitment)
}
