package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EngagementEvent описывает событие вовлечения, из которого строится уведомление.
type EngagementEvent struct {
	ID          string    `json:"event_id,omitempty"`
	Type        string    `json:"type"`
	ActorID     uuid.UUID `json:"actor_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	PostID      uuid.UUID `json:"post_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventAckFunc подтверждает успешную обработку или запрашивает повтор доставки события.
type EventAckFunc func(success bool) error

// EventQueue описывает очередь событий вовлечения.
type EventQueue interface {
	Publish(ctx context.Context, event EngagementEvent) error
	Receive(ctx context.Context) (EngagementEvent, EventAckFunc, error)
}
