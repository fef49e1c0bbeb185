package monitor

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// TelegramNotifier delivers alerts to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier authenticates the bot and targets the given chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotifyFailed, "failed to create telegram bot", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// Notify implements Notifier.
func (n *TelegramNotifier) Notify(alert Alert) error {
	msg := tgbotapi.NewMessage(n.chatID, alert.Message())

	if _, err := n.bot.Send(msg); err != nil {
		return errors.Wrapf(errors.ErrCodeNotifyFailed, err, "failed to send alert for %s", alert.Symbol)
	}

	return nil
}
