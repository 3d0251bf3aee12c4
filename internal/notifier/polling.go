package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"EquityDesk/internal/model"
)

// Submitter starts a background analysis.
type Submitter interface {
	Submit(ticker string) model.TaskRecord
}

// TaskReader looks up a task by id.
type TaskReader interface {
	Get(id string) (model.TaskRecord, error)
}

// ListenForCommands polls for bot updates in a goroutine and answers
// /analyze and /status. It returns immediately; polling stops with ctx.
func (t *TelegramNotifier) ListenForCommands(ctx context.Context, submitter Submitter, tasks TaskReader) {
	if t.bot == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				t.logger.Info().Msg("telegram polling stopped")
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					t.handleCommand(update.Message, submitter, tasks)
				}
			}
		}
	}()
}

func (t *TelegramNotifier) handleCommand(msg *tgbotapi.Message, submitter Submitter, tasks TaskReader) {
	reply := t.commandReply(msg.Command(), strings.TrimSpace(msg.CommandArguments()), submitter, tasks)
	t.logger.Info().Str("command", msg.Command()).Msg("telegram command")
	if err := t.sendTo(msg.Chat.ID, reply); err != nil {
		t.logger.Error().Err(err).Msg("send reply")
	}
}

func (t *TelegramNotifier) commandReply(command, args string, submitter Submitter, tasks TaskReader) string {
	switch command {
	case "analyze":
		ticker := strings.ToUpper(args)
		if ticker == "" {
			return "Usage: /analyze TICKER"
		}
		return FormatSubmitted(submitter.Submit(ticker))
	case "status":
		if args == "" {
			return "Usage: /status TASK_ID"
		}
		rec, err := tasks.Get(args)
		if err != nil {
			return "Task not found"
		}
		return FormatTaskReport(&rec)
	default:
		return "Commands:\n/analyze TICKER\n/status TASK_ID"
	}
}
