package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// TelegramSender is the part of *tgbotapi.BotAPI the channel needs
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewTelegramBot authorizes a bot token against the Telegram API
func NewTelegramBot(token string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("account", api.Self.UserName))
	return api, nil
}

// TelegramChannel delivers notifications to a user's Telegram chat
type TelegramChannel struct {
	sender TelegramSender
	logger *zap.Logger
}

// NewTelegramChannel creates a new Telegram notification channel
func NewTelegramChannel(sender TelegramSender, logger *zap.Logger) *TelegramChannel {
	return &TelegramChannel{sender: sender, logger: logger}
}

func (c *TelegramChannel) Name() string { return "telegram" }

// Deliver implements port.NotificationChannel
func (c *TelegramChannel) Deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) error {
	if recipient.TelegramChatID == 0 {
		return port.ErrNoAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(recipient.TelegramChatID, Text(n))
	if _, err := c.sender.Send(msg); err != nil {
		c.logger.Warn("Telegram delivery failed",
			zap.String("notification_id", n.ID),
			zap.Int64("chat_id", recipient.TelegramChatID),
			zap.Error(err))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

var _ port.NotificationChannel = (*TelegramChannel)(nil)
