package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscription snapshots
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID                     uint    `gorm:"primarykey"`
	SID                    string  `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	TutorID                string  `gorm:"not null;size:64;index:idx_subscription_tutor"`
	PlanID                 uint    `gorm:"not null;index:idx_subscription_plan"`
	Status                 string  `gorm:"not null;size:20;index:idx_subscription_status"`
	FinalPrice             int64   `gorm:"not null;comment:minor units"`
	Currency               string  `gorm:"not null;size:3"`
	GatewaySubscriptionRef *string `gorm:"size:128;uniqueIndex:uk_gateway_subscription_ref"`
	GatewayStatus          *string `gorm:"size:50"`
	GraceDaysUsed          int     `gorm:"not null;default:0"`
	GracePeriodStart       *time.Time
	DelinquentSince        *time.Time `gorm:"index:idx_subscription_delinquent_since"`
	CancelledAt            *time.Time
	CancelReason           *string `gorm:"size:500"`
	CancelledBy            *string `gorm:"size:20"`
	Version                int     `gorm:"not null;default:1"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
