// Package lark forwards error notifications to a Lark chat.
package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
)

// Config holds Lark bot configuration
type Config struct {
	AppID         string
	AppSecret     string
	ReceiveIDType string // chat_id, open_id, user_id, email
	ReceiveID     string
	BaseURL       string
}

// AlertSender implements port.AlertSender with the im.v1 message API
type AlertSender struct {
	client        *lark.Client
	receiveIDType string
	receiveID     string
	logger        *zap.Logger
}

// NewAlertSender creates a new Lark alert sender
func NewAlertSender(cfg Config, logger *zap.Logger) (*AlertSender, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, errors.New("lark app_id and app_secret are required")
	}
	if cfg.ReceiveID == "" {
		return nil, errors.New("lark receive_id is required")
	}

	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	idType := cfg.ReceiveIDType
	if idType == "" {
		idType = "chat_id"
	}

	return &AlertSender{
		client:        lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
		receiveIDType: idType,
		receiveID:     cfg.ReceiveID,
		logger:        logger,
	}, nil
}

// SendAlert posts a text message "title\nmessage"
func (a *AlertSender) SendAlert(ctx context.Context, title, message string) error {
	content, err := json.Marshal(map[string]string{"text": title + "\n" + message})
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(a.receiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(a.receiveID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := a.client.Im.Message.Create(ctx, req)
	if err != nil {
		a.logger.Error("Failed to send alert",
			zap.String("receive_id", a.receiveID),
			zap.Error(err))
		return fmt.Errorf("failed to send alert: %w", err)
	}

	if !resp.Success() {
		a.logger.Error("API returned failure",
			zap.String("receive_id", a.receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	a.logger.Info("Alert sent",
		zap.String("message_id", messageID),
		zap.String("title", title))
	return nil
}

var _ port.AlertSender = (*AlertSender)(nil)
