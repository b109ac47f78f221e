// Package handlers contains the Telegram command, button and dialog
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PrivateChatOnly stops updates coming from groups and channels. The sender
// is told once per message that the bot only works in private chats.
func PrivateChatOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if update.Message.Chat.Type == models.ChatTypePrivate {
				next(ctx, bot, update)
				return
			}

			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "PrivateChatOnly")
			log.DebugContext(ctx, "Ignoring non-private chat", "chat_id", chatID, "chat_type", update.Message.Chat.Type)

			_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   deps.Config.Messages.PrivateOnly,
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send private-only notice", "error", err, "chat_id", chatID)
			}
		}
	}
}
