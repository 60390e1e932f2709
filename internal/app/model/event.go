package model

import (
	"time"

	"gorm.io/datatypes"
)

// EventType names a domain event emitted by the allocation engine.
type EventType string

const (
	EventAssignmentCreated      EventType = "assignment.created"
	EventAssignmentConfirmed    EventType = "assignment.confirmed"
	EventInterestExpressed      EventType = "interest.expressed"
	EventListingCapacityReached EventType = "listing.capacity_reached"
	EventLifecycleTransitioned  EventType = "lifecycle.transitioned"
	EventAssignmentCompleted    EventType = "assignment.completed"
	EventAssignmentAbandoned    EventType = "assignment.abandoned"
	EventListingPublished       EventType = "listing.published"
	EventListingWithdrawn       EventType = "listing.withdrawn"
	EventListingReopened        EventType = "listing.reopened"
	EventListingClosed          EventType = "listing.closed"
)

// StyleEvent is an outbox row written in the same transaction as the change it describes.
// ShopID is empty for events addressed to every shop, such as a new listing.
type StyleEvent struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Type        EventType      `gorm:"type:varchar(50);not null;index" json:"type"`
	AggregateID string         `gorm:"type:varchar(36);not null;index" json:"aggregate_id"`
	ShopID      string         `gorm:"type:varchar(64);index" json:"shop_id,omitempty"`
	Payload     datatypes.JSON `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (StyleEvent) TableName() string {
	return "style_events"
}

// Broadcast reports whether the event is meant for every shop.
func (e *StyleEvent) Broadcast() bool {
	return e.ShopID == ""
}
