package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

type fakeSender struct {
	mu    sync.Mutex
	failN int
	sent  []tgbotapi.MessageConfig
	calls int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		return tgbotapi.Message{}, errors.New("bad gateway")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: f.calls}, nil
}

func newTestNotifier(t *testing.T, s *fakeSender, opts ...Option) *TelegramNotifier {
	t.Helper()
	opts = append([]Option{WithRetry(2, time.Millisecond)}, opts...)
	n, err := newNotifier(s, "42", arbor.NewLogger(), opts...)
	require.NoError(t, err)
	return n
}

func completeRecord() model.TaskRecord {
	return model.TaskRecord{
		TaskID: "abc",
		Ticker: "AAPL",
		Status: model.StatusComplete,
		Result: &model.TaskResult{
			RevisionCount: 1,
			DraftReport: &model.DraftReport{
				ExecutiveSummary:    "Apple <trends> higher",
				Strategy:            "Buy dips",
				TechnicalIndicators: map[string]any{"rsi_14": 61.234, "sma_50": 180.5, "signals": map[string]any{}},
				Confidence:          model.ConfidenceHigh,
			},
		},
	}
}

func TestInvalidChatID(t *testing.T) {
	_, err := newNotifier(&fakeSender{}, "not-a-number", arbor.NewLogger())
	assert.Error(t, err)
}

func TestSendWithRetry_RecoversAfterFailures(t *testing.T) {
	s := &fakeSender{failN: 2}
	n := newTestNotifier(t, s)

	require.NoError(t, n.SendWithRetry(context.Background(), "hello"))
	assert.Equal(t, 3, s.calls)
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(42), s.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, s.sent[0].ParseMode)
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	s := &fakeSender{failN: 10}
	n := newTestNotifier(t, s)

	err := n.SendWithRetry(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, s.calls)
}

func TestSendWithRetry_Cancelled(t *testing.T) {
	s := &fakeSender{failN: 10}
	n := newTestNotifier(t, s, WithRetry(5, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendWithRetry(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.calls)
}

func TestNotifyTask(t *testing.T) {
	s := &fakeSender{}
	n := newTestNotifier(t, s)
	n.NotifyTask(completeRecord())

	require.Len(t, s.sent, 1)
	text := s.sent[0].Text
	assert.Contains(t, text, "<b>AAPL</b>")
	assert.Contains(t, text, "confidence High")
	assert.Contains(t, text, "Apple &lt;trends&gt; higher")
	assert.Contains(t, text, "rsi_14=61.23 sma_50=180.50")
	assert.Contains(t, text, "Revisions: 1")
}

func TestFormatTaskReport_Error(t *testing.T) {
	rec := model.TaskRecord{TaskID: "x", Ticker: "ZZZZ", Status: model.StatusError, Error: "price data unavailable after retries"}
	text := FormatTaskReport(&rec)
	assert.Contains(t, text, "failed")
	assert.Contains(t, text, "price data unavailable")
}

type fakeTasks struct {
	submitted []string
	records   map[string]model.TaskRecord
}

func (f *fakeTasks) Submit(ticker string) model.TaskRecord {
	f.submitted = append(f.submitted, ticker)
	return model.TaskRecord{TaskID: "new-id", Ticker: ticker, Status: model.StatusPending}
}

func (f *fakeTasks) Get(id string) (model.TaskRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return model.TaskRecord{}, errors.New("missing")
	}
	return rec, nil
}

func command(text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 7},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func TestHandleCommand(t *testing.T) {
	s := &fakeSender{}
	n := newTestNotifier(t, s)
	tasks := &fakeTasks{records: map[string]model.TaskRecord{"abc": completeRecord()}}

	n.handleCommand(command("/analyze msft"), tasks, tasks)
	n.handleCommand(command("/status abc"), tasks, tasks)
	n.handleCommand(command("/status nope"), tasks, tasks)
	n.handleCommand(command("/analyze"), tasks, tasks)
	n.handleCommand(command("/help"), tasks, tasks)

	assert.Equal(t, []string{"MSFT"}, tasks.submitted)
	require.Len(t, s.sent, 5)
	assert.Equal(t, int64(7), s.sent[0].ChatID)
	assert.Contains(t, s.sent[0].Text, "new-id")
	assert.Contains(t, s.sent[1].Text, "confidence High")
	assert.Equal(t, "Task not found", s.sent[2].Text)
	assert.Contains(t, s.sent[3].Text, "Usage")
	assert.Contains(t, s.sent[4].Text, "/analyze TICKER")
}
