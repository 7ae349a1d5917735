package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a catalog change. It doubles as the routing key.
type EventType string

const (
	EventProductCreated EventType = "product.created"
	EventProductUpdated EventType = "product.updated"
	EventProductDeleted EventType = "product.deleted"
)

// ProductEvent is emitted after a catalog mutation has been persisted.
// Product is nil for deletions.
type ProductEvent struct {
	EventID    uuid.UUID `json:"eventId"`
	Type       EventType `json:"type"`
	ProductID  int64     `json:"productId"`
	OccurredAt time.Time `json:"occurredAt"`
	Product    *Product  `json:"product,omitempty"`
}

// NewProductEvent builds an event with a fresh id.
func NewProductEvent(eventType EventType, productID int64, product *Product, at time.Time) ProductEvent {
	return ProductEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		ProductID:  productID,
		OccurredAt: at,
		Product:    product,
	}
}
