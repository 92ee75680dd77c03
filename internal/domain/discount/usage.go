package discount

import "time"

// UsageHistory records one redemption of a discount
type UsageHistory struct {
	ID           int       `gorm:"primaryKey;autoIncrement"`
	DiscountID   int       `gorm:"not null;index"`
	CustomerID   *int      `gorm:"index"`
	OrderID      *int      `gorm:"index"`
	CreatedOnUTC time.Time `gorm:"column:created_on_utc;not null"`
}

// TableName returns the table name for GORM
func (UsageHistory) TableName() string {
	return "discount_usage_history"
}

// NewUsageHistory records a redemption at now
func NewUsageHistory(discountID int, customerID, orderID *int, now time.Time) *UsageHistory {
	return &UsageHistory{
		DiscountID:   discountID,
		CustomerID:   customerID,
		OrderID:      orderID,
		CreatedOnUTC: now.UTC(),
	}
}
