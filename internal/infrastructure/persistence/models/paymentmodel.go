package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

// PaymentModel is one row per gateway payment reference.
type PaymentModel struct {
	ID                uint       `gorm:"primarykey"`
	SubscriptionID    uint       `gorm:"not null;index:idx_payment_subscription_period,priority:1"`
	GatewayPaymentRef string     `gorm:"not null;size:128;uniqueIndex:uk_gateway_payment_ref"`
	GatewayStatus     string     `gorm:"not null;size:50"`
	Amount            *int64     `gorm:"comment:minor units"`
	Currency          *string    `gorm:"size:3"`
	PeriodStart       *time.Time `gorm:"index:idx_payment_subscription_period,priority:2"`
	PeriodEnd         *time.Time
	AttemptNumber     int `gorm:"not null;default:1"`
	Metadata          datatypes.JSON
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (PaymentModel) TableName() string {
	return constants.TablePayments
}
