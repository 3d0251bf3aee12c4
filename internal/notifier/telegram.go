// Package notifier pushes finished analyses to Telegram and answers bot
// commands.
package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

// sender is the part of tgbotapi.BotAPI used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	bot        *tgbotapi.BotAPI
	sender     sender
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	ctx        context.Context
	logger     arbor.ILogger
}

// Option configures a TelegramNotifier.
type Option func(*TelegramNotifier)

// WithRetry sets the retry budget and the base delay, which doubles per attempt.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(t *TelegramNotifier) {
		if maxRetries >= 0 {
			t.maxRetries = maxRetries
		}
		if delay > 0 {
			t.retryDelay = delay
		}
	}
}

// WithContext bounds background sends started from NotifyTask.
func WithContext(ctx context.Context) Option {
	return func(t *TelegramNotifier) { t.ctx = ctx }
}

// NewTelegramNotifier connects to the bot API with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger arbor.ILogger, opts ...Option) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 75 * time.Second, Transport: transport}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t, err := newNotifier(bot, chatID, logger, opts...)
	if err != nil {
		return nil, err
	}
	t.bot = bot
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier ready")
	return t, nil
}

func newNotifier(s sender, chatID string, logger arbor.ILogger, opts ...Option) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	t := &TelegramNotifier{
		sender:     s,
		chatID:     id,
		maxRetries: 3,
		retryDelay: time.Second,
		ctx:        context.Background(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.sendTo(t.chatID, text)
}

func (t *TelegramNotifier) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	var lastErr error
	for i := 0; i <= t.maxRetries; i++ {
		err := t.Send(text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == t.maxRetries {
			break
		}
		backoff := t.retryDelay * time.Duration(1<<uint(i))
		t.logger.Warn().
			Int("attempt", i+1).
			Int("max", t.maxRetries+1).
			Err(err).
			Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", t.maxRetries+1, lastErr)
}

// NotifyTask sends the outcome of a finished task. It has the shape of a
// pipeline listener.
func (t *TelegramNotifier) NotifyTask(rec model.TaskRecord) {
	if err := t.SendWithRetry(t.ctx, FormatTaskReport(&rec)); err != nil {
		t.logger.Error().Str("task_id", rec.TaskID).Err(err).Msg("task notification failed")
	}
}
