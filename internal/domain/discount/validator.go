package discount

import (
	"context"
	"fmt"
	"time"
)

// Validator decides whether a discount can be applied for a customer
type Validator struct {
	usage UsageRepository
	now   func() time.Time
}

// NewValidator creates a validator backed by the usage history
func NewValidator(usage UsageRepository) *Validator {
	return &Validator{usage: usage, now: time.Now}
}

// IsValid checks the active window, the coupon requirement and the
// limitation. customerID may be nil for guests; per-customer limited
// discounts are then not applicable.
func (v *Validator) IsValid(ctx context.Context, d *Discount, customerID *int, couponCode string) (bool, error) {
	if !d.IsActive(v.now().UTC()) {
		return false, nil
	}
	if !d.MatchesCoupon(couponCode) {
		return false, nil
	}

	switch d.LimitationType {
	case NTimesOnly:
		used, err := v.usage.CountUsage(ctx, d.ID, nil)
		if err != nil {
			return false, fmt.Errorf("count usage of discount %d: %w", d.ID, err)
		}
		return used < int64(d.LimitationTimes), nil
	case NTimesPerCustomer:
		if customerID == nil {
			return false, nil
		}
		used, err := v.usage.CountUsage(ctx, d.ID, customerID)
		if err != nil {
			return false, fmt.Errorf("count usage of discount %d: %w", d.ID, err)
		}
		return used < int64(d.LimitationTimes), nil
	default:
		return true, nil
	}
}

// Filter returns the valid subset of discounts
func (v *Validator) Filter(ctx context.Context, discounts []*Discount, customerID *int, couponCode string) ([]*Discount, error) {
	valid := make([]*Discount, 0, len(discounts))
	for _, d := range discounts {
		ok, err := v.IsValid(ctx, d, customerID, couponCode)
		if err != nil {
			return nil, err
		}
		if ok && !ContainsDiscount(valid, d) {
			valid = append(valid, d)
		}
	}
	return valid, nil
}
