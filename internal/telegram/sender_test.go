package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/goodlifebot/internal/session"
)

type sentForm struct {
	chatID      string
	text        string
	replyMarkup string
}

// fakeAPI answers sendMessage requests. Chat 403 behaves like a user who
// blocked the bot.
func fakeAPI(t *testing.T) (*bot.Bot, func() []sentForm) {
	t.Helper()
	var mu sync.Mutex
	var forms []sentForm

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
			return
		}
		if r.FormValue("chat_id") == "403" {
			_, _ = io.WriteString(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
			return
		}

		mu.Lock()
		forms = append(forms, sentForm{r.FormValue("chat_id"), r.FormValue("text"), r.FormValue("reply_markup")})
		mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	}))
	t.Cleanup(server.Close)

	b, err := bot.New("123:test", bot.WithSkipGetMe(), bot.WithServerURL(server.URL))
	require.NoError(t, err)

	return b, func() []sentForm {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentForm(nil), forms...)
	}
}

func TestSenderSend(t *testing.T) {
	t.Parallel()
	b, sent := fakeAPI(t)
	s := NewSender(b, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	kb := &session.Keyboard{Rows: [][]string{{"▶️ Запустить"}, {"⏰ Сменить время", "⛔ Остановить"}}}
	require.NoError(t, s.Send(ctx, 77, "Вопрос 1", kb))
	require.NoError(t, s.Send(ctx, 77, "Без клавиатуры", nil))

	forms := sent()
	require.Len(t, forms, 2)
	assert.Equal(t, "77", forms[0].chatID)
	assert.Equal(t, "Вопрос 1", forms[0].text)

	var markup models.ReplyKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(forms[0].replyMarkup), &markup))
	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.Keyboard, 2)
	assert.Equal(t, "⛔ Остановить", markup.Keyboard[1][1].Text)

	assert.Empty(t, forms[1].replyMarkup)
}

func TestSenderBlockedUser(t *testing.T) {
	t.Parallel()
	b, _ := fakeAPI(t)
	s := NewSender(b, nil)

	err := s.Send(context.Background(), 403, "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bot.ErrorForbidden)
}

func TestReplyKeyboard(t *testing.T) {
	t.Parallel()

	assert.Nil(t, replyKeyboard(nil))
	assert.Nil(t, replyKeyboard(&session.Keyboard{}))

	markup := replyKeyboard(&session.Keyboard{Rows: [][]string{{"a", "b"}, {"c"}}})
	require.NotNil(t, markup)
	assert.Len(t, markup.Keyboard, 2)
	assert.Equal(t, "c", markup.Keyboard[1][0].Text)
}
