package models

import (
	"time"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

// ProcessedGatewayEventModel is the webhook dedup table. The unique gateway event ID makes
// concurrent duplicate deliveries collapse to one insert.
type ProcessedGatewayEventModel struct {
	ID                     uint    `gorm:"primarykey"`
	GatewayEventID         string  `gorm:"not null;size:128;uniqueIndex:uk_gateway_event_id"`
	GatewaySubscriptionRef string  `gorm:"not null;size:128;index:idx_processed_event_subscription_ref"`
	GatewayStatus          string  `gorm:"not null;size:50"`
	Outcome                string  `gorm:"not null;size:20"`
	Error                  *string `gorm:"size:500"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName specifies the table name for GORM
func (ProcessedGatewayEventModel) TableName() string {
	return constants.TableProcessedGatewayEvents
}
