package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"agri-advisor-backend/internal/handlers"
	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/websocket"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Chat    *handlers.ChatHandler
	Farm    *handlers.FarmHandler
	Disease *handlers.DiseaseHandler
	Reports *handlers.ReportsHandler
	Contact *handlers.ContactHandler
	Hub     *websocket.Hub
}

type Options struct {
	FrontendURL        string
	ChatRequestsPerMin int
}

// New builds the HTTP routes. The returned func stops the rate limiters.
func New(jwtAuth *middleware.JWTAuth, h Handlers, opts Options) (http.Handler, func()) {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	chatPerMin := opts.ChatRequestsPerMin
	if chatPerMin <= 0 {
		chatPerMin = 20
	}
	chatLimiter := middleware.NewRateLimiter(chatPerMin, time.Minute)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	contactLimiter := middleware.NewRateLimiter(5, time.Minute)
	closeLimiters := func() {
		chatLimiter.Close()
		authLimiter.Close()
		contactLimiter.Close()
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.With(chatLimiter.Middleware).Post("/", h.Chat.Chat)
		r.Get("/quick-replies", h.Chat.QuickReplies)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", h.Auth.Signup)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// Public tools; a valid token files the result under the farmer's reports.
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.OptionalMiddleware)
			r.Get("/weather", h.Farm.Weather)
			r.Get("/market-prices", h.Farm.MarketPrices)
			r.Post("/fertilizer/recommendation", h.Farm.Fertilizer)
		})

		r.With(contactLimiter.Middleware).Post("/contact", h.Contact.Submit)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Get("/user/me", h.User.Me)
			r.Put("/user/me", h.User.UpdateMe)

			r.Post("/disease-detection", h.Disease.Upload)
			r.Get("/jobs/{id}", h.Disease.GetJob)

			r.Get("/reports", h.Reports.List)
			r.Get("/dashboard", h.Reports.Dashboard)
		})

		r.Get("/ws", h.Hub.HandleWebSocket)
	})

	return r, closeLimiters
}
