package events

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	TypePostCreated  EventType = "post_created"
	TypePostUpdated  EventType = "post_updated"
	TypePostDeleted  EventType = "post_deleted"
	TypeCommentAdded EventType = "comment_added"
	TypePing         EventType = "ping"
	TypePong         EventType = "pong"
)

// Event is the wire format pushed to feed subscribers.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Payload = data
	}

	return event, nil
}

// PostDeletedPayload is the only event without a full post body attached.
type PostDeletedPayload struct {
	PostID string `json:"post_id"`
}
