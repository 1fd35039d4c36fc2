package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/access"
	"github.com/frahmantamala/correspondence-management/internal/audit"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/department"
	"github.com/frahmantamala/correspondence-management/internal/group"
	"github.com/frahmantamala/correspondence-management/internal/message"
	"github.com/frahmantamala/correspondence-management/internal/notification"
	"github.com/frahmantamala/correspondence-management/internal/personalmail"
	"github.com/frahmantamala/correspondence-management/internal/transport"
	"github.com/frahmantamala/correspondence-management/internal/transport/middleware"
	"github.com/frahmantamala/correspondence-management/internal/transport/swagger"
	"github.com/frahmantamala/correspondence-management/internal/user"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Department   *department.Handler
	Access       *access.Handler
	Audit        *audit.Handler
	Group        *group.Handler
	Message      *message.Handler
	Notification *notification.Handler
	PersonalMail *personalmail.Handler
}

type Options struct {
	DB             *gorm.DB
	SQLX           *sqlx.DB
	Authorizer     auth.PermissionAuthorizer
	AllowedOrigins string
	OpenAPIPath    string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	base := transport.NewBaseHandler(opts.Logger)
	healthHandler := NewHealthHandler(base, opts.SQLX)
	rbac := auth.NewRBACAuthorization(opts.Authorizer, base)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestMeta)
	router.Use(middleware.LoggingMiddleware(opts.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, opts.OpenAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		// login attempts are logged even when the response is 401, so auth
		// routes stay outside the request transaction
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
			ar.Post("/forgot-password", h.Auth.ForgotPassword)
			ar.Post("/reset-password", h.Auth.ResetPassword)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.Transaction(opts.DB, opts.Logger))

			registerUserRoutes(pr, h, rbac)
			registerAdminRoutes(pr, h, rbac)
			registerMessageRoutes(pr, h)
			registerPersonalMailRoutes(pr, h)
		})
	})
}

func registerUserRoutes(r chi.Router, h Handlers, rbac *auth.RBACAuthorization) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/me", h.User.GetCurrentUser)
		ur.Put("/me", h.User.UpdateProfile)
		ur.Put("/me/settings", h.User.UpdateSettings)
		ur.Post("/me/profile-image", h.User.UploadProfileImage)
		ur.Post("/me/signature-image", h.User.UploadSignatureImage)

		ur.Get("/directory", h.User.Directory)
		ur.Get("/favorites", h.User.Favorites)
		ur.Post("/favorites/{userID}", h.User.AddFavorite)
		ur.Delete("/favorites/{userID}", h.User.RemoveFavorite)

		ur.Get("/{id}/profile-image", h.User.ProfileImage)
		ur.Get("/{id}/signature-image", h.User.SignatureImage)

		ur.Group(func(mr chi.Router) {
			mr.Use(rbac.Middleware(auth.PermManageUsers))
			mr.Get("/", h.User.List)
			mr.Post("/", h.User.Create)
			mr.Get("/{id}", h.User.Get)
			mr.Put("/{id}", h.User.Update)
			mr.Patch("/{id}/toggle", h.User.ToggleActive)
			mr.Delete("/{id}", h.User.Delete)
		})

		ur.Group(func(pr chi.Router) {
			pr.Use(rbac.Middleware(auth.PermManagePermissions))
			pr.Get("/{id}/permissions", h.Access.UserPermissions)
			pr.Put("/{id}/permissions", h.Access.UpdateUserPermissions)
		})
	})
}

func registerAdminRoutes(r chi.Router, h Handlers, rbac *auth.RBACAuthorization) {
	r.Route("/departments", func(dr chi.Router) {
		dr.Use(rbac.Middleware(auth.PermManageDepartments))
		dr.Get("/", h.Department.List)
		dr.Post("/", h.Department.Create)
		dr.Get("/{id}", h.Department.Get)
		dr.Put("/{id}", h.Department.Update)
		dr.Patch("/{id}/toggle", h.Department.Toggle)
		dr.Delete("/{id}", h.Department.Delete)
	})

	r.With(rbac.Middleware(auth.PermViewPermissions)).Get("/permissions", h.Access.Permissions)

	r.Route("/roles", func(rr chi.Router) {
		rr.Use(rbac.Middleware(auth.PermManageRoles))
		rr.Get("/", h.Access.Roles)
		rr.Post("/", h.Access.CreateRole)
		rr.Get("/{id}", h.Access.Role)
		rr.Put("/{id}", h.Access.UpdateRole)
		rr.Delete("/{id}", h.Access.DeleteRole)
	})

	r.Route("/audit", func(ar chi.Router) {
		ar.Group(func(pr chi.Router) {
			pr.Use(rbac.RequireAny(auth.PermManagePermissions))
			pr.Get("/permission-changes", h.Audit.PermissionChanges)
			pr.Get("/permission-changes/users/{id}", h.Audit.UserPermissionChanges)
		})
		ar.With(rbac.RequireAdmin()).Get("/login-logs", h.Audit.LoginLogs)
		// self or admin, decided by the service
		ar.Get("/login-logs/users/{id}", h.Audit.UserLoginLogs)
	})
}

func registerMessageRoutes(r chi.Router, h Handlers) {
	r.Route("/messages", func(mr chi.Router) {
		mr.Get("/dashboard", h.Message.Dashboard)
		mr.Get("/inbox", h.Message.Inbox)
		mr.Get("/archive", h.Message.Archive)
		mr.Get("/outbox", h.Message.Outbox)
		mr.Post("/", h.Message.Send)
		mr.Post("/bulk-delete", h.Message.BulkDelete)

		mr.Get("/attachments/{id}/download", h.Message.DownloadAttachment)
		mr.Get("/attachments/{id}/view", h.Message.ViewAttachment)

		mr.Get("/{id}", h.Message.View)
		mr.Delete("/{id}", h.Message.Delete)
		mr.Post("/{id}/archive", h.Message.ArchiveMessage)
		mr.Post("/{id}/unarchive", h.Message.UnarchiveMessage)
		mr.Put("/{id}/status", h.Message.ChangeStatus)
		mr.Get("/{id}/history", h.Message.History)
		mr.Get("/{id}/recipients", h.Message.Recipients)
		mr.Post("/{id}/reply", h.Message.Reply)
	})

	r.Route("/groups", func(gr chi.Router) {
		gr.Get("/", h.Group.List)
		gr.Post("/", h.Group.Create)
		gr.Get("/{id}", h.Group.Get)
		gr.Put("/{id}", h.Group.Update)
		gr.Delete("/{id}", h.Group.Delete)
		gr.Get("/{id}/members", h.Group.Members)
		gr.Post("/{id}/members", h.Group.AddMember)
		gr.Delete("/{id}/members/{userID}", h.Group.RemoveMember)
	})

	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/", h.Notification.List)
		nr.Get("/recent", h.Notification.Recent)
		nr.Get("/unread-count", h.Notification.UnreadCount)
		nr.Post("/read-all", h.Notification.MarkAllRead)
		nr.Post("/{id}/read", h.Notification.MarkRead)
	})
}

func registerPersonalMailRoutes(r chi.Router, h Handlers) {
	r.Route("/personal-mail", func(pr chi.Router) {
		pr.Get("/", h.PersonalMail.List)
		pr.Post("/", h.PersonalMail.Create)

		pr.Get("/attachments/{id}/download", h.PersonalMail.DownloadAttachment)
		pr.Get("/attachments/{id}/view", h.PersonalMail.ViewAttachment)

		pr.Get("/{id}", h.PersonalMail.Get)
		pr.Put("/{id}", h.PersonalMail.Update)
		pr.Delete("/{id}", h.PersonalMail.Delete)
		pr.Post("/{id}/archive", h.PersonalMail.Archive)
		pr.Post("/{id}/unarchive", h.PersonalMail.Unarchive)
		pr.Put("/{id}/status", h.PersonalMail.ChangeStatus)
	})
}
