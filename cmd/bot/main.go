// Package main contains the entrypoint for the daily task tracker bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/dayplanbot/internal/bot"
	"github.com/edgard/dayplanbot/internal/bot/handlers"
	"github.com/edgard/dayplanbot/internal/bot/tasks"
	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/config"
	"github.com/edgard/dayplanbot/internal/database"
	"github.com/edgard/dayplanbot/internal/discord"
	"github.com/edgard/dayplanbot/internal/fetch"
	"github.com/edgard/dayplanbot/internal/logger"
	"github.com/edgard/dayplanbot/internal/prayer"
	"github.com/edgard/dayplanbot/internal/resilience"
	"github.com/edgard/dayplanbot/internal/telegram"
	"github.com/edgard/dayplanbot/internal/tiktok"
	"github.com/edgard/dayplanbot/internal/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, store, features, platform, scheduler),
// handles graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	repo, maintainer, closeStore, err := openRepository(cfg.Store, log)
	if err != nil {
		log.Error("Failed to open task store", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "error", err)
		return 1
	}
	defer closeStore()

	store := tracker.NewStore(ctx, repo, log)
	trk := tracker.New(store, tracker.Config{
		CommandPrefix:  cfg.CommandPrefix(),
		BatchPromptTTL: cfg.Tracker.BatchPromptTimeout,
		TaskPromptTTL:  cfg.Tracker.TaskPromptTimeout,
	}, log)

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	fetchCfg := fetch.Config{
		Timeout:         cfg.HTTP.Timeout,
		BreakerFailures: cfg.HTTP.BreakerFailures,
		BreakerTimeout:  cfg.HTTP.BreakerTimeout,
	}

	prayerSvc, err := newPrayerService(cfg, fetch.NewClient(fetchCfg, httpClient, log), log)
	if err != nil {
		log.Error("Failed to initialize prayer reminders", "error", err)
		return 1
	}

	scraperCfg := fetchCfg
	scraperCfg.UserAgent = cfg.TikTok.UserAgent
	challenge := newChallenge(cfg, fetch.NewClient(scraperCfg, httpClient, log), log)

	router := handlers.NewRouter(handlers.HandlerDeps{
		Logger:  log,
		Prefix:  cfg.CommandPrefix(),
		Tracker: trk,
		Prayer:  prayerSvc,
		TikTok:  challenge,
	})

	retryCfg := resilience.RetryConfig{
		Attempts: cfg.HTTP.ConnectAttempts,
		Delay:    cfg.HTTP.ConnectDelay,
		Logger:   log,
	}
	listener, gateway, err := startPlatform(ctx, cfg, retryCfg, router, log)
	if err != nil {
		log.Error("Failed to connect to chat platform", "platform", cfg.Platform, "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:     log,
		Gateway:    gateway,
		Tracker:    trk,
		Prayer:     prayerSvc,
		TikTok:     challenge,
		Maintainer: maintainer,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, listener, sched)

	log.Info("Starting bot...", "platform", cfg.Platform)
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	// Check if the error is significant (not just context cancellation)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	log.Info("Waiting briefly before exit...")
	time.Sleep(time.Second)
	return 0
}

// openRepository opens the configured store backend. The maintainer is nil for
// backends without maintenance.
func openRepository(cfg config.StoreConfig, log *slog.Logger) (tracker.Repository, tasks.Maintainer, func(), error) {
	switch cfg.Backend {
	case config.StoreSQLite:
		db, err := database.NewDB(cfg.Path, log)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := database.NewSQLRepository(db, log)
		return repo, repo, func() { database.CloseDB(db, log) }, nil
	case config.StoreFile:
		return database.NewFileRepository(cfg.Path, log), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func newPrayerService(cfg *config.Config, getter prayer.JSONGetter, log *slog.Logger) (*prayer.Service, error) {
	cities := make([]prayer.City, 0, len(cfg.Prayer.Cities))
	for _, c := range cfg.Prayer.Cities {
		cities = append(cities, prayer.City{
			Key:      c.Key,
			Name:     c.Name,
			Country:  c.Country,
			Timezone: c.Timezone,
			Mention:  c.Mention,
			Flag:     c.Flag,
		})
	}

	return prayer.NewService(
		prayer.NewClient(getter, cfg.Prayer.APIURL, cfg.Prayer.Method),
		prayer.Config{
			ChannelID:     cfg.Prayer.ChannelID,
			Prayers:       cfg.Prayer.Prayers,
			Cities:        cities,
			CommandPrefix: cfg.CommandPrefix(),
		},
		log,
	)
}

func newChallenge(cfg *config.Config, getter tiktok.Getter, log *slog.Logger) *tiktok.Challenge {
	accounts := make([]tiktok.Account, 0, len(cfg.TikTok.Accounts))
	for _, a := range cfg.TikTok.Accounts {
		accounts = append(accounts, tiktok.Account{
			Username:         a.Username,
			URL:              a.URL,
			Name:             a.Name,
			InitialFollowers: a.InitialFollowers,
			InitialLikes:     a.InitialLikes,
			ImageURL:         a.ImageURL,
		})
	}

	return tiktok.NewChallenge(
		tiktok.NewScraper(getter, log),
		tiktok.Config{
			ChannelID:         cfg.TikTok.ChannelID,
			Accounts:          accounts,
			End:               cfg.TikTok.ChallengeEnd,
			PointsPerFollower: cfg.TikTok.PointsPerFollower,
			PointsPerLike:     cfg.TikTok.PointsPerLike,
		},
		log,
	)
}

// startPlatform connects to the configured chat platform and returns its
// listener and outbound gateway.
func startPlatform(ctx context.Context, cfg *config.Config, retryCfg resilience.RetryConfig, router *handlers.Router, log *slog.Logger) (bot.Runner, chat.Gateway, error) {
	switch cfg.Platform {
	case config.PlatformDiscord:
		dc, err := discord.NewDiscordBot(ctx, cfg.Token(), retryCfg, router, log)
		if err != nil {
			return nil, nil, err
		}
		return dc, dc.Gateway(), nil
	case config.PlatformTelegram:
		tg, err := telegram.NewTelegramBot(ctx, cfg.Token(), retryCfg, router, log)
		if err != nil {
			return nil, nil, err
		}
		if err := tg.SetCommands(ctx, router.Commands()); err != nil {
			log.Warn("Failed to publish command menu", "error", err)
		}
		log.Info("Connected to Telegram", "bot_username", tg.Username())
		return tg, tg.Gateway(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
	}
}
