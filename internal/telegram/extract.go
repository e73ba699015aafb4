package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/heraldbot/herald/internal/runtime"
	"github.com/heraldbot/herald/internal/state"
)

// ErrNoMedia indicates the message carries no media of the requested kind.
var ErrNoMedia = errors.New("message has no matching media")

// rawMessage digs the full Telegram message out of the event. Extractors
// use it for fields the transport-agnostic message model does not carry.
func rawMessage(ev *runtime.Event) *models.Message {
	update, ok := ev.Raw.(*models.Update)
	if !ok || update == nil {
		return nil
	}
	if update.Message != nil {
		return update.Message
	}
	return update.EditedMessage
}

// Photo extracts the largest size of a photo attached to the message.
type Photo struct {
	File models.PhotoSize
}

func (p *Photo) ExtractFrom(_ context.Context, ev *runtime.Event, _ *state.Store) error {
	m := rawMessage(ev)
	if m == nil || len(m.Photo) == 0 {
		return fmt.Errorf("%w: photo", ErrNoMedia)
	}
	p.File = m.Photo[len(m.Photo)-1]
	return nil
}

// Document extracts a document attached to the message.
type Document struct {
	File *models.Document
}

func (d *Document) ExtractFrom(_ context.Context, ev *runtime.Event, _ *state.Store) error {
	m := rawMessage(ev)
	if m == nil || m.Document == nil {
		return fmt.Errorf("%w: document", ErrNoMedia)
	}
	d.File = m.Document
	return nil
}

// Sticker extracts a sticker attached to the message.
type Sticker struct {
	File *models.Sticker
}

func (s *Sticker) ExtractFrom(_ context.Context, ev *runtime.Event, _ *state.Store) error {
	m := rawMessage(ev)
	if m == nil || m.Sticker == nil {
		return fmt.Errorf("%w: sticker", ErrNoMedia)
	}
	s.File = m.Sticker
	return nil
}
