package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

// SubscriptionHistoryModel is the append-only transition ledger. The hooks below refuse every
// update and delete issued through GORM; the migrations add database triggers for the same rule.
type SubscriptionHistoryModel struct {
	ID             uint    `gorm:"primarykey"`
	SubscriptionID uint    `gorm:"not null;index:idx_history_subscription_created,priority:1"`
	PreviousStatus *string `gorm:"size:20"`
	NewStatus      string  `gorm:"not null;size:20"`
	Reason         string  `gorm:"not null;size:500"`
	Actor          string  `gorm:"not null;size:20"`
	Metadata       datatypes.JSON
	CreatedAt      time.Time `gorm:"not null;index:idx_history_subscription_created,priority:2"`
}

// TableName specifies the table name for GORM
func (SubscriptionHistoryModel) TableName() string {
	return constants.TableSubscriptionHistories
}

// BeforeCreate hook for GORM
func (h *SubscriptionHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (h *SubscriptionHistoryModel) BeforeUpdate(tx *gorm.DB) error {
	return subscription.ErrHistoryImmutable
}

func (h *SubscriptionHistoryModel) BeforeDelete(tx *gorm.DB) error {
	return subscription.ErrHistoryImmutable
}
