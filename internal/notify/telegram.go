package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TraderBot/models"
)

// Notifier pushes executed-order notifications to an external channel.
type Notifier interface {
	NotifyOrder(res models.OrderResult)
}

// TelegramNotifier sends order notifications to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier authenticates the bot token and returns a notifier
// bound to one chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

func (n *TelegramNotifier) NotifyOrder(res models.OrderResult) {
	var text string
	if res.Success {
		text = fmt.Sprintf("✅ %s %s qty=%s price=%s\nOrder %s (%s)",
			res.Request.Side, res.Request.Symbol,
			formatAmount(res.Request.Quantity), formatAmount(res.Request.Price),
			res.OrderID, res.Status)
	} else {
		text = fmt.Sprintf("❌ %s %s failed: %s",
			res.Request.Side, res.Request.Symbol, res.Error)
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send telegram notification")
	}
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOrder(models.OrderResult) {}

func formatAmount(v float64) string {
	return fmt.Sprintf("%g", v)
}
