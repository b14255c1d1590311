// Package dto holds the read models returned by subscription use cases.
package dto

import (
	"time"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/mapper"
)

type PlanDTO struct {
	ID            uint      `json:"id"`
	SID           string    `json:"sid"`
	Name          string    `json:"name"`
	BasePrice     int64     `json:"base_price"`
	Currency      string    `json:"currency"`
	Interval      string    `json:"interval"`
	IntervalCount int       `json:"interval_count"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SubscriptionDTO struct {
	ID                     uint       `json:"id"`
	SID                    string     `json:"sid"`
	TutorID                string     `json:"tutor_id"`
	PlanID                 uint       `json:"plan_id"`
	Status                 string     `json:"status"`
	FinalPrice             int64      `json:"final_price"`
	Currency               string     `json:"currency"`
	GatewaySubscriptionRef *string    `json:"gateway_subscription_ref,omitempty"`
	GatewayStatus          *string    `json:"gateway_status,omitempty"`
	GraceDaysUsed          int        `json:"grace_days_used"`
	GracePeriodStart       *time.Time `json:"grace_period_start,omitempty"`
	DelinquentSince        *time.Time `json:"delinquent_since,omitempty"`
	CancelledAt            *time.Time `json:"cancelled_at,omitempty"`
	CancelReason           *string    `json:"cancel_reason,omitempty"`
	CancelledBy            *string    `json:"cancelled_by,omitempty"`
	Version                int        `json:"version"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

type HistoryRecordDTO struct {
	ID             uint                   `json:"id"`
	SubscriptionID uint                   `json:"subscription_id"`
	PreviousStatus *string                `json:"previous_status"`
	NewStatus      string                 `json:"new_status"`
	Reason         string                 `json:"reason"`
	Actor          string                 `json:"actor"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	NoOp           bool                   `json:"no_op"`
	CreatedAt      time.Time              `json:"created_at"`
}

type SubscriptionHistoryDTO struct {
	SubscriptionID uint                `json:"subscription_id"`
	Status         string              `json:"status"`
	Records        []*HistoryRecordDTO `json:"records"`
	Latest         *HistoryRecordDTO   `json:"latest,omitempty"`
}

// Access levels reported by the access check.
const (
	AccessFull    = "full"
	AccessLimited = "limited"
	AccessNone    = "none"
)

type AccessDTO struct {
	TutorID            string  `json:"tutor_id"`
	Access             string  `json:"access"`
	SubscriptionID     *uint   `json:"subscription_id,omitempty"`
	Status             *string `json:"status,omitempty"`
	GraceDaysRemaining *int    `json:"grace_days_remaining,omitempty"`
}

func ToPlanDTO(plan *subscription.Plan) *PlanDTO {
	if plan == nil {
		return nil
	}
	return &PlanDTO{
		ID:            plan.ID(),
		SID:           plan.SID(),
		Name:          plan.Name(),
		BasePrice:     plan.BasePrice(),
		Currency:      plan.Currency(),
		Interval:      plan.Interval().String(),
		IntervalCount: plan.IntervalCount(),
		Active:        plan.IsActive(),
		CreatedAt:     plan.CreatedAt(),
		UpdatedAt:     plan.UpdatedAt(),
	}
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	out := &SubscriptionDTO{
		ID:                     sub.ID(),
		SID:                    sub.SID(),
		TutorID:                sub.TutorID(),
		PlanID:                 sub.PlanID(),
		Status:                 sub.Status().String(),
		FinalPrice:             sub.FinalPrice(),
		Currency:               sub.Currency(),
		GatewaySubscriptionRef: sub.GatewayRef(),
		GatewayStatus:          sub.GatewayStatus(),
		GraceDaysUsed:          sub.GraceDaysUsed(),
		GracePeriodStart:       sub.GracePeriodStart(),
		DelinquentSince:        sub.DelinquentSince(),
		CancelledAt:            sub.CancelledAt(),
		CancelReason:           sub.CancelReason(),
		Version:                sub.Version(),
		CreatedAt:              sub.CreatedAt(),
		UpdatedAt:              sub.UpdatedAt(),
	}
	if by := sub.CancelledBy(); by != nil {
		s := by.String()
		out.CancelledBy = &s
	}
	return out
}

func ToHistoryRecordDTO(record *subscription.HistoryRecord) *HistoryRecordDTO {
	if record == nil {
		return nil
	}
	out := &HistoryRecordDTO{
		ID:             record.ID(),
		SubscriptionID: record.SubscriptionID(),
		NewStatus:      record.NewStatus().String(),
		Reason:         record.Reason(),
		Actor:          record.Actor().String(),
		Metadata:       record.Metadata(),
		NoOp:           record.IsNoOp(),
		CreatedAt:      record.CreatedAt(),
	}
	if prev := record.PreviousStatus(); prev != nil {
		s := prev.String()
		out.PreviousStatus = &s
	}
	return out
}

func ToHistoryRecordDTOs(records []*subscription.HistoryRecord) []*HistoryRecordDTO {
	out := mapper.MapSlice(records, ToHistoryRecordDTO)
	if out == nil {
		return []*HistoryRecordDTO{}
	}
	return out
}
