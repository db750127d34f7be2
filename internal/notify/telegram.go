package notify

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
)

// telegramLimit is the Bot API message size cap
const telegramLimit = 4096

// Telegram sends plain text through a bot
type Telegram struct {
	token    string
	chatID   int64
	endpoint string

	mu  sync.Mutex
	bot *tgbot.BotAPI
}

func NewTelegram(token string, chatID int64) *Telegram {
	return &Telegram{token: token, chatID: chatID, endpoint: tgbot.APIEndpoint}
}

func (t *Telegram) Channel() string { return config.PlatformTelegram }

// client connects on first use so an unreachable API only fails the push
func (t *Telegram) client() (*tgbot.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbot.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := t.client()
	if err != nil {
		return err
	}

	text := []rune(msg.Text)
	if len(text) > telegramLimit {
		text = append(text[:telegramLimit-1], '…')
	}

	if _, err := bot.Send(tgbot.NewMessage(t.chatID, string(text))); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
