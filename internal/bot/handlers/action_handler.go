package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// action is a session operation triggered by a command or a button.
type action func(ctx context.Context, userID int64) error

// NewActionHandler returns a handler running run for the message sender.
func NewActionHandler(deps HandlerDeps, name string, run action) bot.HandlerFunc {
	return actionHandler{deps: deps, name: name, run: run}.Handle
}

type actionHandler struct {
	deps HandlerDeps
	name string
	run  action
}

func (h actionHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	userID := update.Message.From.ID

	log.InfoContext(ctx, "Handling command", "user_id", userID)
	if err := h.run(ctx, userID); err != nil {
		log.ErrorContext(ctx, "Command failed", "user_id", userID, "error", err)
	}
}
