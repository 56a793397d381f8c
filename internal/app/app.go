package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/liorwd/calbot/internal/api"
	"github.com/liorwd/calbot/internal/bot"
	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/channels/whatsapp"
	"github.com/liorwd/calbot/internal/config"
	"github.com/liorwd/calbot/internal/i18n"
	"github.com/liorwd/calbot/internal/metrics"
	"github.com/liorwd/calbot/internal/nlp"
	"github.com/liorwd/calbot/internal/reminder"
	"github.com/liorwd/calbot/internal/store"
)

// App owns the wired components and their lifecycle.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Logger    *zap.Logger
	Bot       *bot.Handler
	Reminders *reminder.Service
	Server    *api.Server
	Version   string
}

// New wires every component. The store is opened by the caller so CLI
// commands can share it without starting the server.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) (*App, error) {
	catalog, err := i18n.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	parser := nlp.NewParser(logger, cfg.NLP.DefaultHour,
		time.Duration(cfg.NLP.DefaultDurationMin)*time.Minute)
	cal := calendar.NewClient(cfg, logger)
	sender := whatsapp.NewClient(cfg, logger)
	m := metrics.Default()

	reminders := reminder.New(cfg, logger, st, sender, cal, catalog, m)
	handler := bot.New(cfg, logger, st, parser, cal, sender, catalog, m, reminders)
	server := api.New(cfg, st, handler, logger)

	return &App{
		Config:    cfg,
		Store:     st,
		Logger:    logger,
		Bot:       handler,
		Reminders: reminders,
		Server:    server,
		Version:   version,
	}, nil
}

// RunServer starts the reminder service and the HTTP server, then blocks
// until SIGINT or SIGTERM.
func (app *App) RunServer() {
	if err := app.Reminders.Start(); err != nil {
		app.Logger.Error("Failed to start reminder service", zap.Error(err))
	}

	go func() {
		if err := app.Server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("version", app.Version),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	app.Reminders.Stop()

	if err := app.Server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
}
