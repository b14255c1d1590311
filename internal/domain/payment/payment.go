package payment

import (
	"fmt"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/payment/valueobjects"
)

// Payment is one gateway charge attempt. Only the gateway status changes after creation.
type Payment struct {
	id                uint
	subscriptionID    uint
	gatewayPaymentRef string
	gatewayStatus     string
	amount            *vo.Money
	periodStart       *time.Time
	periodEnd         *time.Time
	attemptNumber     int
	metadata          map[string]interface{}
	createdAt         time.Time
	updatedAt         time.Time
}

func NewPayment(
	subscriptionID uint,
	gatewayPaymentRef string,
	gatewayStatus string,
	amount *vo.Money,
	periodStart, periodEnd *time.Time,
	attemptNumber int,
	metadata map[string]interface{},
	now time.Time,
) (*Payment, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if gatewayPaymentRef == "" {
		return nil, fmt.Errorf("gateway payment reference is required")
	}
	if gatewayStatus == "" {
		return nil, fmt.Errorf("gateway status is required")
	}
	if periodStart != nil && periodEnd != nil && periodEnd.Before(*periodStart) {
		return nil, fmt.Errorf("period end must not be before period start")
	}
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &Payment{
		subscriptionID:    subscriptionID,
		gatewayPaymentRef: gatewayPaymentRef,
		gatewayStatus:     gatewayStatus,
		amount:            amount,
		periodStart:       periodStart,
		periodEnd:         periodEnd,
		attemptNumber:     attemptNumber,
		metadata:          metadata,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

func ReconstructPayment(
	id, subscriptionID uint,
	gatewayPaymentRef, gatewayStatus string,
	amount *vo.Money,
	periodStart, periodEnd *time.Time,
	attemptNumber int,
	metadata map[string]interface{},
	createdAt, updatedAt time.Time,
) (*Payment, error) {
	if id == 0 {
		return nil, fmt.Errorf("payment ID cannot be zero")
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &Payment{
		id:                id,
		subscriptionID:    subscriptionID,
		gatewayPaymentRef: gatewayPaymentRef,
		gatewayStatus:     gatewayStatus,
		amount:            amount,
		periodStart:       periodStart,
		periodEnd:         periodEnd,
		attemptNumber:     attemptNumber,
		metadata:          metadata,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

func (p *Payment) ID() uint                         { return p.id }
func (p *Payment) SubscriptionID() uint             { return p.subscriptionID }
func (p *Payment) GatewayPaymentRef() string        { return p.gatewayPaymentRef }
func (p *Payment) GatewayStatus() string            { return p.gatewayStatus }
func (p *Payment) Amount() *vo.Money                { return p.amount }
func (p *Payment) PeriodStart() *time.Time          { return p.periodStart }
func (p *Payment) PeriodEnd() *time.Time            { return p.periodEnd }
func (p *Payment) AttemptNumber() int               { return p.attemptNumber }
func (p *Payment) Metadata() map[string]interface{} { return p.metadata }
func (p *Payment) CreatedAt() time.Time             { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time             { return p.updatedAt }

func (p *Payment) SetID(id uint) {
	p.id = id
}

// UpdateStatus applies a later gateway correction for the same payment.
func (p *Payment) UpdateStatus(status string, at time.Time) bool {
	if status == "" || status == p.gatewayStatus {
		return false
	}
	p.gatewayStatus = status
	p.updatedAt = at
	return true
}
