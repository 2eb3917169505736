package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"

	"github.com/rayyanhq/mutabaa/internal/adapters/roster"
	service "github.com/rayyanhq/mutabaa/internal/app"
	"github.com/rayyanhq/mutabaa/internal/config"
	"github.com/rayyanhq/mutabaa/internal/domain/rank"
	"github.com/rayyanhq/mutabaa/pkg/logger"
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	collation, err := language.Parse(cfg.Collation)
	if err != nil {
		log.Warn(ctx, "invalid collation; falling back to Arabic", logger.String("collation", cfg.Collation), logger.Error(err))
		collation = language.Arabic
	}

	client := roster.NewClient(cfg.RosterURL,
		roster.WithTimeout(time.Duration(cfg.RosterTimeoutMS)*time.Millisecond),
	)

	svc := service.New(client,
		service.WithLogger(log),
		service.WithPageSize(cfg.PageSize),
		service.WithMaxPageSize(cfg.MaxPageSize),
		service.WithCollation(collation),
		service.WithApplyConcurrency(cfg.ApplyConcurrency),
	)

	log.Info(ctx, "connected to roster", logger.String("url", cfg.RosterURL))

	// Smoke query: log the current top of the all-time board.
	page, err := svc.Leaderboard(ctx, rank.AllTime(), 1, cfg.PageSize)
	if err != nil {
		log.Error(ctx, "leaderboard query failed", logger.Error(err))
		return
	}
	for _, row := range page.Items {
		log.Info(ctx, "board row",
			logger.Int("rank", row.Rank),
			logger.String("name", row.Name),
			logger.Float64("total", row.Total),
			logger.Float64("percentage", row.Percentage))
	}
	log.Info(ctx, "board query complete",
		logger.Int("rows", page.TotalItems),
		logger.Int("pages", page.TotalPages))
}
