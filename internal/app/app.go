// Package app assembles the services, handlers and router from one explicit
// dependency struct.
package app

import (
	"log/slog"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/access"
	accessPostgres "github.com/frahmantamala/correspondence-management/internal/access/postgres"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/audit"
	auditPostgres "github.com/frahmantamala/correspondence-management/internal/audit/postgres"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	authPostgres "github.com/frahmantamala/correspondence-management/internal/auth/postgres"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
	"github.com/frahmantamala/correspondence-management/internal/department"
	departmentPostgres "github.com/frahmantamala/correspondence-management/internal/department/postgres"
	"github.com/frahmantamala/correspondence-management/internal/group"
	groupPostgres "github.com/frahmantamala/correspondence-management/internal/group/postgres"
	"github.com/frahmantamala/correspondence-management/internal/mailer"
	"github.com/frahmantamala/correspondence-management/internal/message"
	messagePostgres "github.com/frahmantamala/correspondence-management/internal/message/postgres"
	"github.com/frahmantamala/correspondence-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/correspondence-management/internal/notification/postgres"
	"github.com/frahmantamala/correspondence-management/internal/personalmail"
	personalmailPostgres "github.com/frahmantamala/correspondence-management/internal/personalmail/postgres"
	"github.com/frahmantamala/correspondence-management/internal/transport"
	"github.com/frahmantamala/correspondence-management/internal/transport/rest"
	"github.com/frahmantamala/correspondence-management/internal/user"
	userPostgres "github.com/frahmantamala/correspondence-management/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/microcosm-cc/bluemonday"
)

type Services struct {
	Auth         *auth.Service
	User         *user.Service
	Department   *department.Service
	Access       *access.Service
	Audit        *audit.Service
	Group        *group.Service
	Message      *message.Service
	Notification *notification.Service
	PersonalMail *personalmail.Service
}

type App struct {
	Config   *internal.Config
	DB       *database.Handles
	Logger   *slog.Logger
	Bus      *events.EventBus
	Mailer   *mailer.Client
	Resolver *auth.Resolver
	Tokens   *auth.JWTTokenGenerator
	Files    *attachment.Storage
	Tx       *database.Transactor

	Services Services
	Handlers rest.Handlers
}

type Option func(*App)

// WithMailer replaces the SMTP client built from the mail config.
func WithMailer(m *mailer.Client) Option {
	return func(a *App) { a.Mailer = m }
}

func New(cfg *internal.Config, db *database.Handles, logger *slog.Logger, opts ...Option) *App {
	a := &App{
		Config:   cfg,
		DB:       db,
		Logger:   logger,
		Bus:      events.NewEventBus(logger),
		Resolver: auth.NewResolver(),
		Files:    attachment.NewStorage(cfg.Upload),
		Tx:       database.NewTransactor(db.Gorm),
		Tokens: auth.NewJWTTokenGenerator(
			cfg.Security.AccessTokenSecret,
			cfg.Security.RefreshTokenSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Mailer == nil {
		a.Mailer = mailer.New(cfg.Mail, logger)
	}

	a.buildServices()
	a.buildHandlers()
	return a
}

func (a *App) buildServices() {
	gdb := a.DB.Gorm
	sanitizer := bluemonday.UGCPolicy()
	stats := messagePostgres.NewStatsRepository(a.DB.SQLX)

	s := &a.Services
	s.Notification = notification.NewService(notificationPostgres.NewNotificationRepository(gdb), a.Bus, a.Logger)
	s.Notification.RegisterEventHandlers(a.Bus)
	a.Mailer.RegisterEventHandlers(a.Bus)

	s.Auth = auth.NewService(authPostgres.NewRepository(gdb), a.Tokens, a.Mailer, a.Config.Security, a.Logger)
	s.User = user.NewService(userPostgres.NewUserRepository(gdb), stats, a.Files, a.Tx, a.Config.Security, a.Logger)
	s.Department = department.NewService(departmentPostgres.NewDepartmentRepository(gdb), a.Logger)
	s.Access = access.NewService(accessPostgres.NewAccessRepository(gdb), a.Resolver, a.Tx, a.Logger)
	s.Audit = audit.NewService(auditPostgres.NewAuditRepository(gdb), a.Resolver, a.Logger)
	s.Group = group.NewService(groupPostgres.NewGroupRepository(gdb), a.Resolver, a.Tx, a.Logger)
	s.Message = message.NewService(message.Deps{
		Repo:       messagePostgres.NewMessageRepository(gdb),
		Stats:      stats,
		Recipients: message.NewFanOut(userPostgres.NewUserRepository(gdb), s.Group),
		Authorizer: a.Resolver,
		Tx:         a.Tx,
		Publisher:  a.Bus,
		Files:      a.Files,
		Sanitizer:  sanitizer,
		Logger:     a.Logger,
	})
	s.PersonalMail = personalmail.NewService(personalmailPostgres.NewPersonalMailRepository(gdb), a.Tx, a.Files, sanitizer, a.Logger)
}

func (a *App) buildHandlers() {
	base := transport.NewBaseHandler(a.Logger)
	s := a.Services

	a.Handlers = rest.Handlers{
		Auth:         auth.NewHandler(base, s.Auth),
		User:         user.NewHandler(base, s.User, a.Files),
		Department:   department.NewHandler(base, s.Department),
		Access:       access.NewHandler(base, s.Access),
		Audit:        audit.NewHandler(base, s.Audit),
		Group:        group.NewHandler(base, s.Group),
		Message:      message.NewHandler(base, s.Message, a.Files),
		Notification: notification.NewHandler(base, s.Notification),
		PersonalMail: personalmail.NewHandler(base, s.PersonalMail, a.Files),
	}
}

// Router returns a fresh chi router with every route registered.
func (a *App) Router() *chi.Mux {
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, a.Handlers, rest.Options{
		DB:             a.DB.Gorm,
		SQLX:           a.DB.SQLX,
		Authorizer:     a.Resolver,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		OpenAPIPath:    a.Config.Server.OpenAPIPath,
		Logger:         a.Logger,
	})
	return router
}

// Close drains the mail queue workers and releases the connection pool.
func (a *App) Close() error {
	a.Mailer.Shutdown()
	return a.DB.Close()
}
