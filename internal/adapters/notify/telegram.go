package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/capcea/bet-backend/internal/domain"
)

// Telegram se limita a 4096 caracteres por mensaje; se parte antes.
const telegramMaxLen = 3800

// Telegram implementa ports.Notifier enviando mensajes MarkdownV2 a un chat.
type Telegram struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// TelegramConfig configura el bot. Endpoint solo se usa en tests
// (formato tgbotapi.APIEndpoint).
type TelegramConfig struct {
	BotToken       string
	ChatID         string
	MaxRetries     int
	RetryDelayBase time.Duration
	Endpoint       string
}

// NewTelegram crea el bot (hace getMe) y valida el chat id.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(cfg.ChatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: invalid chat id: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: create bot: %w", err)
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Telegram{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}, nil
}

// NotifyPicks envía los picks nuevos. Sin picks no envía nada.
func (t *Telegram) NotifyPicks(ctx context.Context, picks []domain.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	for _, msg := range chunkLines(formatPicks(picks), telegramMaxLen) {
		if err := t.send(ctx, msg); err != nil {
			return fmt.Errorf("notify.Telegram.NotifyPicks: %w", err)
		}
	}
	return nil
}

// NotifyResults envía los picks liquidados.
func (t *Telegram) NotifyResults(ctx context.Context, graded []domain.Pick) error {
	if len(graded) == 0 {
		return nil
	}
	for _, msg := range chunkLines(formatResults(graded), telegramMaxLen) {
		if err := t.send(ctx, msg); err != nil {
			return fmt.Errorf("notify.Telegram.NotifyResults: %w", err)
		}
	}
	return nil
}

// send manda un mensaje MarkdownV2 con reintentos lineales.
func (t *Telegram) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

func formatPicks(picks []domain.Pick) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *%d new picks*\n", len(picks))
	for _, p := range picks {
		fmt.Fprintf(&b, "\n*%s* · %s\n", esc(eventLabel(p)), esc(p.SportKey))
		fmt.Fprintf(&b, "%s @ %s %s\n",
			esc(p.Selection), esc(fmt.Sprintf("%.3f", p.SoftOdds)), esc("("+p.BestBook+")"))
		fmt.Fprintf(&b, "fair %s · EV %s · %s UTC\n",
			esc(fairLabel(p.FairOdds)),
			esc(fmt.Sprintf("%+.2f%%", p.EVPct)),
			esc(p.CommenceTime.UTC().Format("2006-01-02 15:04")))
	}
	return b.String()
}

func formatResults(graded []domain.Pick) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏁 *%d picks settled*\n", len(graded))
	for _, p := range graded {
		icon := "❌"
		if p.Status == domain.StatusWon {
			icon = "✅"
		}
		fmt.Fprintf(&b, "\n%s %s · %s %s\n",
			icon, esc(eventLabel(p)), esc(p.Selection), esc("("+scoreLabel(p)+")"))
	}
	return b.String()
}

// chunkLines parte el texto por líneas en trozos de como máximo max bytes.
func chunkLines(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) > max && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// esc escapa los caracteres reservados de MarkdownV2.
func esc(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
