package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/goodlifebot/internal/session"
)

// Sender delivers session messages as private Telegram messages.
type Sender struct {
	bot    *bot.Bot
	logger *slog.Logger
}

// NewSender creates a Sender over b.
func NewSender(b *bot.Bot, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{bot: b, logger: logger.With("component", "sender")}
}

// Send implements session.Messenger. A user who blocked the bot is
// reported as an error like any other delivery failure.
func (s *Sender) Send(ctx context.Context, userID int64, text string, kb *session.Keyboard) error {
	params := &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	}
	if markup := replyKeyboard(kb); markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := s.bot.SendMessage(ctx, params)
	if errors.Is(err, bot.ErrorForbidden) {
		s.logger.InfoContext(ctx, "User blocked the bot", "user_id", userID)
		return fmt.Errorf("user %d unreachable: %w", userID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to send message to user %d: %w", userID, err)
	}
	return nil
}

// replyKeyboard converts a session keyboard to Telegram's reply markup.
func replyKeyboard(kb *session.Keyboard) *models.ReplyKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]models.KeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]models.KeyboardButton, 0, len(r))
		for _, label := range r {
			row = append(row, models.KeyboardButton{Text: label})
		}
		rows = append(rows, row)
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}
