package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/liorwd/calbot/internal/config"
	"github.com/liorwd/calbot/internal/store"
)

// MessageHandler is the bot surface the HTTP layer drives.
type MessageHandler interface {
	HandleMessage(ctx context.Context, from, text string) error
	CompleteAuth(ctx context.Context, state, code string) error
	DenyAuth(ctx context.Context, state string)
}

// Server handles the WhatsApp webhook, the OAuth callback, and the admin API.
type Server struct {
	app      *fiber.App
	config   *config.Config
	store    *store.Store
	bot      MessageHandler
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New creates a new API server.
func New(cfg *config.Config, st *store.Store, bot MessageHandler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:      app,
		config:   cfg,
		store:    st,
		bot:      bot,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)

	// WhatsApp Cloud API webhook.
	s.app.Get("/webhook", s.handleVerifyWebhook)
	s.app.Post("/webhook", s.handleWebhook)

	// Google OAuth redirect target.
	s.app.Get("/auth/google/callback", s.handleGoogleCallback)

	api := s.app.Group("/api")

	api.Post("/auth/login", s.handleLogin)

	protected := api.Use(s.authMiddleware())

	protected.Get("/users", s.handleListUsers)
	protected.Get("/users/:id/messages", s.handleUserMessages)
	protected.Get("/stats", s.handleStats)
}

// Start starts the server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
