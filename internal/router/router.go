package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saulo-duarte/commitments-api/internal/analytics"
	"github.com/saulo-duarte/commitments-api/internal/auth"
	"github.com/saulo-duarte/commitments-api/internal/chat"
	"github.com/saulo-duarte/commitments-api/internal/checkin"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/health"
	"github.com/saulo-duarte/commitments-api/internal/middlewares"
	"github.com/saulo-duarte/commitments-api/internal/reminder"
	"github.com/saulo-duarte/commitments-api/internal/user"
)

type RouterConfig struct {
	UserHandler       *user.Handler
	CommitmentHandler *commitment.Handler
	AnalyticsHandler  *analytics.Handler
	ChatHandler       *chat.Handler
	CheckInHandler    *checkin.Handler
	ReminderHandler   *reminder.Handler
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Get("/health", health.Handler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.UserHandler.Register)
		r.Post("/login", cfg.UserHandler.Login)
		r.Post("/logout", auth.NewHandler().Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/users", user.Routes(cfg.UserHandler))
		r.Mount("/commitments", commitment.Routes(cfg.CommitmentHandler))
		r.Mount("/analytics", analytics.Routes(cfg.AnalyticsHandler))
		r.Mount("/chat", chat.Routes(cfg.ChatHandler))
		r.Mount("/checkins", checkin.Routes(cfg.CheckInHandler))
		r.Mount("/messages", reminder.Routes(cfg.ReminderHandler))
	})
	return r
}
