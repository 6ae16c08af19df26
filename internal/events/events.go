// Package events publishes user lifecycle notifications to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jjudge-oj/usersapi/internal/mq"
	"github.com/jjudge-oj/usersapi/types"
)

// Type names a lifecycle transition.
type Type string

const (
	UserCreated         Type = "user.created"
	UserUpdated         Type = "user.updated"
	UserDeleted         Type = "user.deleted"
	UserPasswordChanged Type = "user.password_changed"
)

const attrType = "type"

// Event is the JSON body of every published message.
type Event struct {
	Type       Type             `json:"type"`
	User       types.PublicUser `json:"user"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Publisher is the narrow broker capability this package needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Emitter turns events into broker messages on a single channel.
type Emitter struct {
	pub     Publisher
	channel string
	now     func() time.Time
}

func NewEmitter(pub Publisher, channel string) *Emitter {
	return &Emitter{pub: pub, channel: channel, now: time.Now}
}

// Emit publishes one event and returns the broker message id.
func (e *Emitter) Emit(ctx context.Context, typ Type, user types.PublicUser) (string, error) {
	data, err := json.Marshal(Event{Type: typ, User: user, OccurredAt: e.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", typ, err)
	}
	id, err := e.pub.Publish(ctx, e.channel, data, map[string]string{
		attrType:           string(typ),
		mq.AttrContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("publish %s event: %w", typ, err)
	}
	return id, nil
}

// Decode parses a message produced by Emit.
func Decode(msg mq.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return ev, nil
}
