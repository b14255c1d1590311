package models

import (
	"time"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

// PlanModel represents the database persistence model for catalog plans
type PlanModel struct {
	ID            uint   `gorm:"primarykey"`
	SID           string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: plan_xxx"`
	Name          string `gorm:"not null;size:100"`
	BasePrice     int64  `gorm:"not null;comment:minor units"`
	Currency      string `gorm:"not null;size:3"`
	Interval      string `gorm:"not null;size:20"`
	IntervalCount int    `gorm:"not null;default:1"`
	Active        bool   `gorm:"not null;default:true;index:idx_plan_active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
