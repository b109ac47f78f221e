// Package main contains the entrypoint for the daily questions bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/goodlifebot/internal/bot"
	"github.com/edgard/goodlifebot/internal/bot/handlers"
	"github.com/edgard/goodlifebot/internal/bot/tasks"
	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/domain"
	"github.com/edgard/goodlifebot/internal/gemini"
	"github.com/edgard/goodlifebot/internal/logger"
	"github.com/edgard/goodlifebot/internal/session"
	"github.com/edgard/goodlifebot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run builds every component, runs the bot until ctx is cancelled and
// returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var storage conversation.Storage
	switch cfg.State.Backend {
	case "redis":
		rdb, err := conversation.DialRedis(ctx, cfg.State.RedisAddr)
		if err != nil {
			log.Error("Failed to connect to redis", "addr", cfg.State.RedisAddr, "error", err)
			return 1
		}
		defer rdb.Close()
		storage = conversation.NewRedisStorage(rdb)
	default:
		storage = conversation.NewSQLStorage(db)
	}
	log.Info("Conversation state backend selected", "backend", cfg.State.Backend)

	zones, err := domain.NewZones(cfg.Regions(), cfg.Session.DefaultTimezone)
	if err != nil {
		log.Error("Failed to load timezones", "error", err)
		return 1
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.PublishCommands(ctx, tg, cfg.Telegram.Commands); err != nil {
		log.Warn("Failed to publish bot commands", "error", err)
	}

	clock := clockwork.NewRealClock()
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, clock)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	deps := session.Deps{
		Logger:        log,
		Config:        cfg,
		Store:         store,
		Conversations: conversation.NewManager(storage, clock, log),
		Triggers:      sched,
		Messenger:     telegram.NewSender(tg, log),
		Zones:         zones,
		Clock:         clock,
	}
	if cfg.Gemini.Enabled {
		writer, err := gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
		deps.NudgeWriter = writer
	}
	svc := session.NewService(deps)
	sched.OnTrigger(svc.Fire)

	if _, err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Session: svc,
	})); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched.SetTasks(tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Sweeper: svc,
		Config:  cfg,
	}))

	app := bot.NewBot(log, cfg, store, tg, sched, svc)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
