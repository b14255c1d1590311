package subscription

import (
	"fmt"
	"strings"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// Plan is a catalog entry. Plans are deactivated, never deleted.
type Plan struct {
	id            uint
	sid           string
	name          string
	basePrice     int64
	currency      string
	interval      vo.BillingInterval
	intervalCount int
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
}

func NewPlan(
	name string,
	basePrice int64,
	currency string,
	interval vo.BillingInterval,
	intervalCount int,
	now time.Time,
	sidGenerator func() (string, error),
) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if basePrice <= 0 {
		return nil, fmt.Errorf("%w: base price must be positive, got %d", ErrInvalidPrice, basePrice)
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid currency %q", currency)
	}
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid billing interval %q", interval)
	}
	if intervalCount < 1 {
		return nil, fmt.Errorf("interval count must be at least 1")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan SID: %w", err)
	}

	return &Plan{
		sid:           sid,
		name:          name,
		basePrice:     basePrice,
		currency:      strings.ToUpper(currency),
		interval:      interval,
		intervalCount: intervalCount,
		active:        true,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructPlan(
	id uint,
	sid, name string,
	basePrice int64,
	currency string,
	interval vo.BillingInterval,
	intervalCount int,
	active bool,
	createdAt, updatedAt time.Time,
) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	return &Plan{
		id:            id,
		sid:           sid,
		name:          name,
		basePrice:     basePrice,
		currency:      currency,
		interval:      interval,
		intervalCount: intervalCount,
		active:        active,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (p *Plan) ID() uint                     { return p.id }
func (p *Plan) SID() string                  { return p.sid }
func (p *Plan) Name() string                 { return p.name }
func (p *Plan) BasePrice() int64             { return p.basePrice }
func (p *Plan) Currency() string             { return p.currency }
func (p *Plan) Interval() vo.BillingInterval { return p.interval }
func (p *Plan) IntervalCount() int           { return p.intervalCount }
func (p *Plan) IsActive() bool               { return p.active }
func (p *Plan) CreatedAt() time.Time         { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time         { return p.updatedAt }

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	p.id = id
	return nil
}

func (p *Plan) Deactivate(at time.Time) {
	if !p.active {
		return
	}
	p.active = false
	p.updatedAt = at
}

// DiscountedPrice applies a whole-percent discount to the base price.
func (p *Plan) DiscountedPrice(discountPercent int) (int64, error) {
	if discountPercent < 0 || discountPercent > 99 {
		return 0, fmt.Errorf("discount must be between 0 and 99 percent, got %d", discountPercent)
	}
	price := p.basePrice * int64(100-discountPercent) / 100
	if price <= 0 {
		return 0, fmt.Errorf("%w: discounted price is not positive", ErrInvalidPrice)
	}
	return price, nil
}
