package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEsc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Arsenal vs Chelsea", "Arsenal vs Chelsea"},
		{"soccer_epl", "soccer\\_epl"},
		{"2.050", "2\\.050"},
		{"+10.38%", "\\+10\\.38%"},
		{"(Unibet)", "\\(Unibet\\)"},
		{"Paris Saint-Germain", "Paris Saint\\-Germain"},
		{`a\b`, `a\\b`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, esc(tt.input))
		})
	}
}

func TestChunkLines(t *testing.T) {
	assert.Equal(t, []string{"short"}, chunkLines("short", 100))

	text := strings.Repeat("0123456789\n", 10) // 110 bytes
	chunks := chunkLines(text, 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestFormatPicks(t *testing.T) {
	fair := 1.857
	msg := formatPicks([]domain.Pick{{
		SportKey: "soccer_epl", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Selection: "Arsenal",
		SoftOdds: 2.05, FairOdds: &fair, EVPct: 10.38, BestBook: "Unibet",
		CommenceTime: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, msg, "*1 new picks*")
	assert.Contains(t, msg, "soccer\\_epl")
	assert.Contains(t, msg, "Arsenal @ 2\\.050 \\(Unibet\\)")
	assert.Contains(t, msg, "EV \\+10\\.38%")
	assert.Contains(t, msg, "2026\\-05\\-02 14:00 UTC")
}

// fakeBotAPI simula los endpoints getMe y sendMessage de la Bot API.
func fakeBotAPI(t *testing.T, failFirst int) (*httptest.Server, *[]string) {
	t.Helper()
	var (
		mu    sync.Mutex
		texts []string
		fails = failFirst
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"picks","username":"picks_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			mu.Lock()
			defer mu.Unlock()
			if fails > 0 {
				fails--
				fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
				return
			}
			assert.Equal(t, "42", r.Form.Get("chat_id"))
			assert.Equal(t, "MarkdownV2", r.Form.Get("parse_mode"))
			texts = append(texts, r.Form.Get("text"))
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, &texts
}

func TestTelegram_NotifyPicks(t *testing.T) {
	srv, texts := fakeBotAPI(t, 1)
	defer srv.Close()

	tg, err := NewTelegram(TelegramConfig{
		BotToken:       "123:abc",
		ChatID:         "42",
		RetryDelayBase: time.Millisecond,
		Endpoint:       srv.URL + "/bot%s/%s",
	})
	require.NoError(t, err)

	require.NoError(t, tg.NotifyPicks(context.Background(), nil))
	assert.Empty(t, *texts, "sin picks no se envía nada")

	err = tg.NotifyPicks(context.Background(), []domain.Pick{{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Selection: "Draw"}})
	require.NoError(t, err)
	require.Len(t, *texts, 1)
	assert.Contains(t, (*texts)[0], "Draw")
}

func TestNewTelegram_InvalidChatID(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{BotToken: "123:abc", ChatID: "not-a-number"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chat id")
}
