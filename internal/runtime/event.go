package runtime

import (
	"context"
	"errors"
	"time"
)

// Kind tags what one inbound event represents.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindMessage
	KindEditedMessage
	KindCallback
	KindTick
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEditedMessage:
		return "edited_message"
	case KindCallback:
		return "callback"
	case KindTick:
		return "tick"
	default:
		return "unknown"
	}
}

// User identifies one transport account.
type User struct {
	ID       int64
	Username string
	Name     string
}

// Message is the message payload of an event, bound to the session it
// arrived on so handlers can reply directly.
type Message struct {
	ID     int
	ChatID int64
	From   User
	Text   string

	session Session
}

// Reply sends text back to the chat this message came from.
func (m *Message) Reply(ctx context.Context, text string) error {
	if m.session == nil {
		return errors.New("message is not bound to a session")
	}
	return m.session.Reply(ctx, m, text)
}

// Event is an immutable snapshot of one inbound occurrence. It is shared
// read-only with every matching handler invocation.
type Event struct {
	Kind     Kind
	Message  *Message
	Session  Session
	Raw      any
	Received time.Time
}

// NewEvent assembles an event and binds its message, if any, to session.
func NewEvent(kind Kind, msg *Message, session Session, raw any) *Event {
	if msg != nil {
		msg.session = session
	}
	return &Event{
		Kind:     kind,
		Message:  msg,
		Session:  session,
		Raw:      raw,
		Received: time.Now(),
	}
}

// Text returns the message text, or "" for events without a message.
func (e *Event) Text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Text
}
