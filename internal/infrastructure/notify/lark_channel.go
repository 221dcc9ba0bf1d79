package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// LarkConfig holds Lark app credentials
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// LarkSender sends one IM message and returns its message id
type LarkSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// LarkMessageAPI sends IM messages through the Lark open platform
type LarkMessageAPI struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkMessageAPI creates a Lark SDK client with token caching
func NewLarkMessageAPI(cfg LarkConfig, logger *zap.Logger) *LarkMessageAPI {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkMessageAPI{client: client, logger: logger}
}

// SendMessage sends a message to a user or group
func (m *LarkMessageAPI) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Debug("Lark message sent", zap.String("message_id", messageID), zap.String("receive_id", receiveID))
	return messageID, nil
}

// LarkChannel delivers notifications as Lark text messages addressed by open_id
type LarkChannel struct {
	sender LarkSender
	logger *zap.Logger
}

// NewLarkChannel creates a new Lark notification channel
func NewLarkChannel(sender LarkSender, logger *zap.Logger) *LarkChannel {
	return &LarkChannel{sender: sender, logger: logger}
}

func (c *LarkChannel) Name() string { return "lark" }

// Deliver implements port.NotificationChannel
func (c *LarkChannel) Deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) error {
	if recipient.LarkOpenID == "" {
		return port.ErrNoAddress
	}

	content, err := json.Marshal(map[string]string{"text": Text(n)})
	if err != nil {
		return fmt.Errorf("failed to encode lark content: %w", err)
	}

	if _, err := c.sender.SendMessage(ctx, "open_id", recipient.LarkOpenID, "text", string(content)); err != nil {
		c.logger.Warn("Lark delivery failed",
			zap.String("notification_id", n.ID),
			zap.String("user_id", recipient.ID),
			zap.Error(err))
		return err
	}
	return nil
}

var _ port.NotificationChannel = (*LarkChannel)(nil)
