package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/goodlifebot/internal/config"
)

// Session is the part of the session service the handlers drive.
type Session interface {
	Register(ctx context.Context, userID int64) error
	ChangeTime(ctx context.Context, userID int64) error
	Stop(ctx context.Context, userID int64) error
	SkipToday(ctx context.Context, userID int64) error
	Help(ctx context.Context, userID int64) error
	Dispatch(ctx context.Context, userID int64, text string) error
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Session Session
}
