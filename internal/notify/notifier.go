package notify

import (
	"context"
	"fmt"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// Message is one rendered scan report
type Message struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

// Notifier delivers a message to one channel
type Notifier interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// New builds the notifier for the configured platform.
// Credentials are validated by config.Load.
func New(cfg config.PushConfig, hc *httputil.Client, log *logger.Logger) (Notifier, error) {
	switch cfg.Platform {
	case config.PlatformDingTalk:
		return NewDingTalk(hc, cfg.DingTalkWebhook), nil
	case config.PlatformWebhook:
		return NewWebhook(hc, cfg.WebhookURL), nil
	case config.PlatformTelegram:
		return NewTelegram(cfg.TelegramToken, cfg.TelegramChatID), nil
	case config.PlatformLog, "":
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown push platform %q", cfg.Platform)
	}
}

// LogNotifier writes the report to the application log
type LogNotifier struct {
	logger *logger.Logger
}

func NewLog(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithModule("notify")}
}

func (n *LogNotifier) Channel() string { return config.PlatformLog }

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.WithField("title", msg.Title).Info(msg.Text)
	return nil
}
