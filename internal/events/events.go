// Package events announces journal changes to other services.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TradeCreated    = "trade.created"
	TradeUpdated    = "trade.updated"
	TradeDeleted    = "trade.deleted"
	StrategyCreated = "strategy.created"
	StrategyDeleted = "strategy.deleted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"userId"`
	EntityID   int64     `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

func New(typ string, userID, entityID int64, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// RoutingKey is journal.<entity>.<action>.
func (e Event) RoutingKey() string {
	return "journal." + e.Type
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
