// Package events publishes activity log entries to a message broker so other
// processes can follow changes to a ledger.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/esplit/internal/models"
)

// Publisher delivers activity events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, activity models.Activity) error
	Close() error
}

// ActivityMessage is the body of every published event.
type ActivityMessage struct {
	Activity    models.Activity `json:"activity"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewActivityMessage wraps an activity for publishing.
func NewActivityMessage(activity models.Activity) *ActivityMessage {
	return &ActivityMessage{Activity: activity, PublishedAt: time.Now()}
}

// ToJSON converts the message to JSON bytes.
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON decodes a message body.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RoutingKey is "<target_type>.<action>", e.g. "expense.added".
func RoutingKey(activity models.Activity) string {
	return activity.TargetType + "." + activity.Action
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Activity) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
