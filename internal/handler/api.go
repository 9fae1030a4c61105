package handler

import (
	"time"

	"github.com/folio/internal/config"
	"github.com/folio/internal/service"
	"github.com/folio/internal/task"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Options configures the handler set.
type Options struct {
	TokenTTL   time.Duration
	Pagination config.PaginationConfig
	Tasks      task.Enqueuer
	Mailer     task.Mailer
	Logger     zerolog.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts      *service.PostService
	pages      *service.PageService
	auth       *service.AuthService
	tasks      task.Enqueuer
	mailer     task.Mailer
	log        zerolog.Logger
	pagination config.PaginationConfig
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	pagination := opts.Pagination
	if pagination.PageSize <= 0 {
		pagination.PageSize = 10
	}
	if pagination.MaxPageSize < pagination.PageSize {
		pagination.MaxPageSize = pagination.PageSize
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = task.NewLogMailer(opts.Logger)
	}

	return &API{
		posts:      service.NewPostService(gdb),
		pages:      service.NewPageService(gdb),
		auth:       service.NewAuthService(gdb, opts.TokenTTL),
		tasks:      opts.Tasks,
		mailer:     mailer,
		log:        opts.Logger,
		pagination: pagination,
	}
}

// Auth exposes the account service for background jobs such as token cleanup.
func (a *API) Auth() *service.AuthService {
	return a.auth
}
