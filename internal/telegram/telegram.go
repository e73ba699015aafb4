// Package telegram adapts the go-telegram/bot transport to the runtime
// Source and Session interfaces.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/heraldbot/herald/internal/logging"
	"github.com/heraldbot/herald/internal/runtime"
)

const defaultUpdateBuffer = 64

type sendMessageFunc func(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)

var _ runtime.Source = (*Client)(nil)
var _ runtime.Session = (*Client)(nil)

// Client is one connected Telegram bot session. It yields inbound updates
// as runtime events and serves as the shared outbound session handle; the
// underlying bot client is safe for concurrent calls.
type Client struct {
	bot  *bot.Bot
	me   runtime.User
	feed *runtime.Feed

	send      sendMessageFunc
	startOnce sync.Once
}

// Connect creates the bot client and verifies the token with getMe.
func Connect(ctx context.Context, token string) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errors.New("telegram token is required")
	}

	c := &Client{feed: runtime.NewFeed(defaultUpdateBuffer)}
	b, err := bot.New(trimmed,
		bot.WithDefaultHandler(c.onUpdate),
		bot.WithAllowedUpdates([]string{"message", "edited_message", "callback_query"}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch telegram bot profile: %w", err)
	}

	c.bot = b
	c.send = b.SendMessage
	c.me = runtime.User{
		ID:       me.ID,
		Username: strings.TrimSpace(me.Username),
		Name:     strings.TrimSpace(me.FirstName),
	}
	logging.Logger().Info("connected to telegram", "bot", c.me.Username)
	return c, nil
}

// Me returns the bot's own identity.
func (c *Client) Me() runtime.User {
	return c.me
}

// Start begins long polling. The source closes gracefully when ctx is
// canceled.
func (c *Client) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go func() {
			c.bot.Start(ctx)
			c.feed.Close()
		}()
	})
}

// NextEvent implements runtime.Source.
func (c *Client) NextEvent(ctx context.Context) (*runtime.Event, error) {
	return c.feed.NextEvent(ctx)
}

// Send implements runtime.Session.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if _, err := c.send(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Reply implements runtime.Session.
func (c *Client) Reply(ctx context.Context, msg *runtime.Message, text string) error {
	if msg == nil {
		return errors.New("message is required")
	}
	if _, err := c.send(ctx, &bot.SendMessageParams{
		ChatID:          msg.ChatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	}); err != nil {
		return fmt.Errorf("reply in chat %d: %w", msg.ChatID, err)
	}
	return nil
}

func (c *Client) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}
	ev := c.translate(update)
	if err := c.feed.Push(ctx, ev); err != nil {
		logging.Logger().Warn("dropping telegram update", "update_id", update.ID, "err", err)
	}
}

// translate maps one raw update onto the event model. The raw update
// stays reachable through Event.Raw for extractors that need more than
// the common message fields.
func (c *Client) translate(update *models.Update) *runtime.Event {
	switch {
	case update.Message != nil:
		return runtime.NewEvent(runtime.KindMessage, newMessage(update.Message), c, update)
	case update.EditedMessage != nil:
		return runtime.NewEvent(runtime.KindEditedMessage, newMessage(update.EditedMessage), c, update)
	case update.CallbackQuery != nil:
		return runtime.NewEvent(runtime.KindCallback, nil, c, update)
	default:
		return runtime.NewEvent(runtime.KindUnknown, nil, c, update)
	}
}

func newMessage(m *models.Message) *runtime.Message {
	var from runtime.User
	if m.From != nil {
		from = runtime.User{
			ID:       m.From.ID,
			Username: strings.TrimSpace(m.From.Username),
			Name:     strings.TrimSpace(m.From.FirstName),
		}
	}
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	return &runtime.Message{
		ID:     m.ID,
		ChatID: m.Chat.ID,
		From:   from,
		Text:   text,
	}
}
