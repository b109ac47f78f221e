package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/goodlifebot/internal/config"
)

// MatchDialogText selects plain text messages that are neither commands nor
// one of the action buttons. The back button belongs to the dialog.
func MatchDialogText(cfg *config.Config) bot.MatchFunc {
	reserved := map[string]struct{}{
		cfg.Buttons.Launch:     {},
		cfg.Buttons.ChangeTime: {},
		cfg.Buttons.Stop:       {},
		cfg.Buttons.Skip:       {},
	}
	return func(update *models.Update) bool {
		if update.Message == nil || update.Message.Text == "" {
			return false
		}
		text := update.Message.Text
		if strings.HasPrefix(text, "/") {
			return false
		}
		_, isButton := reserved[text]
		return !isButton
	}
}

// NewDialogHandler returns the handler feeding free text into the user's
// conversation: answers, region and time choices.
func NewDialogHandler(deps HandlerDeps) bot.HandlerFunc {
	return dialogHandler{deps}.Handle
}

type dialogHandler struct {
	deps HandlerDeps
}

func (h dialogHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "dialog")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Dialog handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	userID := update.Message.From.ID

	if err := h.deps.Session.Dispatch(ctx, userID, strings.TrimSpace(update.Message.Text)); err != nil {
		log.ErrorContext(ctx, "Failed to handle dialog text", "user_id", userID, "error", err)
	}
}
