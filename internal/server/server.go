package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/padharoindia/backend/internal/auth"
	"github.com/padharoindia/backend/internal/config"
	"github.com/padharoindia/backend/internal/http/handlers"
	"github.com/padharoindia/backend/internal/middleware"
	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/otp"
	"github.com/padharoindia/backend/internal/service"
	"github.com/padharoindia/backend/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger *zap.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	otps := otp.NewGenerator(cfg.OTPLength, cfg.OTPTTL)
	sender := otp.NewLogSender(logger)
	authService := service.NewAuthService(store, tokens, otps, sender, logger)

	r := NewRouter(cfg, store, tokens, authService, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewRouter builds the route tree. Split out so tests can mount it on an
// httptest server.
func NewRouter(cfg config.Config, store storage.UserStore, tokens *auth.TokenManager, authService *service.AuthService, logger *zap.Logger) *chi.Mux {
	authHandler := handlers.NewAuthHandler(authService, logger)
	health := handlers.NewHealthHandler(time.Now())

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging(logger))

	r.Get("/health", health.Handle)

	// Public auth lifecycle.
	r.Post("/signup", authHandler.Signup)
	r.Post("/verify-otp", authHandler.VerifyOTP)
	r.Post("/login", authHandler.Login)
	r.Post("/resend-otp", authHandler.ResendOTP)

	// Authenticated routes: bearer token only, no role lookup.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Authenticate(tokens))
		pr.Get("/api/user/profile", authHandler.Profile)
		pr.Put("/api/user/profile", authHandler.UpdateProfile)
	})

	// Business routes run the full gate chain.
	r.Group(func(br chi.Router) {
		br.Use(middleware.Authenticate(tokens))
		br.Use(middleware.RequireRole(store, logger, models.RoleBusiness))
		br.Use(middleware.RequireBusinessType(models.BusinessHotel, models.BusinessGuide, models.BusinessCab))
		br.Get("/api/business/status", authHandler.BusinessStatus)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
