package models

import (
	"time"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/google/uuid"
)

// PaymentEvent journals every inbound confirmation signal and how the
// reconciler resolved it. Conflict rows are the manual-inspection queue for
// optimistic-write races that exhausted their retries.
type PaymentEvent struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID           string                 `gorm:"column:event_id;size:128;not null;index"`
	EventType         string                 `gorm:"column:event_type;size:64;not null"`
	ProviderReference string                 `gorm:"column:provider_reference;size:128;not null"`
	OrderID           *int64                 `gorm:"column:order_id;index"`
	Intent            enums.TransitionIntent `gorm:"column:intent;size:32"`
	Outcome           enums.EventOutcome     `gorm:"column:outcome;size:32;not null"`
	Detail            *string                `gorm:"column:detail"`
	ReceivedAt        time.Time              `gorm:"column:received_at;not null"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the GORM default.
func (PaymentEvent) TableName() string {
	return "payment_events"
}
