package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Type tells what a discount is assigned to
type Type int

const (
	AssignedToOrderTotal    Type = 1
	AssignedToSkus          Type = 2
	AssignedToCategories    Type = 5
	AssignedToManufacturers Type = 6
	AssignedToShipping      Type = 10
	AssignedToOrderSubTotal Type = 20
)

// LimitationType restricts how often a discount can be used
type LimitationType int

const (
	Unlimited         LimitationType = 0
	NTimesOnly        LimitationType = 15
	NTimesPerCustomer LimitationType = 25
)

// Discount is a percentage or fixed reduction
type Discount struct {
	shared.BaseEntity
	Name               string          `gorm:"type:varchar(200);not null"`
	DiscountType       Type            `gorm:"column:discount_type_id;not null"`
	UsePercentage      bool            `gorm:"not null;default:false"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StartDateUTC       *time.Time      `gorm:"column:start_date_utc"`
	EndDateUTC         *time.Time      `gorm:"column:end_date_utc"`
	RequiresCouponCode bool            `gorm:"not null;default:false"`
	CouponCode         string          `gorm:"type:varchar(100)"`
	LimitationType     LimitationType  `gorm:"column:discount_limitation_id;not null;default:0"`
	LimitationTimes    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Discount) TableName() string {
	return "discounts"
}

// NewPercentageDiscount creates a discount reducing by pct percent
func NewPercentageDiscount(name string, discountType Type, pct decimal.Decimal) (*Discount, error) {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Discount percentage must be between 0 and 100")
	}
	return &Discount{Name: name, DiscountType: discountType, UsePercentage: true, DiscountPercentage: pct}, nil
}

// NewFixedDiscount creates a discount reducing by a fixed amount
func NewFixedDiscount(name string, discountType Type, amount decimal.Decimal) (*Discount, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount amount cannot be negative")
	}
	return &Discount{Name: name, DiscountType: discountType, DiscountAmount: amount}, nil
}

// Amount returns the reduction for amount. A percentage discount yields
// amount * pct / 100, a fixed discount its DiscountAmount in the amount's
// currency.
func (d *Discount) Amount(amount valueobject.Money) valueobject.Money {
	if d.UsePercentage {
		return amount.Percentage(d.DiscountPercentage)
	}
	return amount.Change(d.DiscountAmount, nil)
}

// IsActive reports whether now lies inside the optional validity window
func (d *Discount) IsActive(now time.Time) bool {
	if d.StartDateUTC != nil && d.StartDateUTC.After(now) {
		return false
	}
	if d.EndDateUTC != nil && d.EndDateUTC.Before(now) {
		return false
	}
	return true
}

// MatchesCoupon reports whether the coupon requirement is met by code
func (d *Discount) MatchesCoupon(code string) bool {
	if !d.RequiresCouponCode {
		return true
	}
	return d.CouponCode != "" && strings.EqualFold(strings.TrimSpace(code), d.CouponCode)
}

// PreferredDiscount returns the discount with the highest non-zero amount
// for amount, together with that amount. The first discount wins on ties.
// Nil is returned when no discount yields a reduction.
func PreferredDiscount(discounts []*Discount, amount valueobject.Money) (*Discount, valueobject.Money) {
	var preferred *Discount
	best := valueobject.Zero(amount.Currency())

	for _, d := range discounts {
		if d == nil {
			continue
		}
		current := d.Amount(amount)
		if current.IsZero() {
			continue
		}
		if preferred == nil || current.Amount().GreaterThan(best.Amount()) {
			preferred = d
			best = current
		}
	}
	return preferred, best
}

// ContainsDiscount reports whether discounts holds a discount with the same ID
func ContainsDiscount(discounts []*Discount, d *Discount) bool {
	for _, existing := range discounts {
		if existing != nil && existing.ID == d.ID {
			return true
		}
	}
	return false
}
