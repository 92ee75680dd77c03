package catalog

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// TierPriceCalculationMethod decides how a tier price modifies the regular price
type TierPriceCalculationMethod int

const (
	// TierPriceFixed replaces the price
	TierPriceFixed TierPriceCalculationMethod = 0
	// TierPricePercental reduces the price by a percentage
	TierPricePercental TierPriceCalculationMethod = 5
	// TierPriceAdjustment reduces the price by an absolute amount
	TierPriceAdjustment TierPriceCalculationMethod = 10
)

// TierPrice is a quantity dependent price, optionally bound to a store and role
type TierPrice struct {
	shared.BaseEntity
	ProductID         int                        `gorm:"not null;index"`
	StoreID           int                        `gorm:"not null;default:0"`
	CustomerRoleID    *int                       `gorm:"index"`
	Quantity          int                        `gorm:"not null"`
	Price             decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	CalculationMethod TierPriceCalculationMethod `gorm:"column:calculation_method_id;not null;default:0"`
}

// TableName returns the table name for GORM
func (TierPrice) TableName() string {
	return "tier_prices"
}

// AppliesTo reports whether the tier is valid for the store and any of the roles.
// Store 0 and a nil role mean "all".
func (tp TierPrice) AppliesTo(storeID int, roleIDs []int) bool {
	if tp.StoreID != 0 && tp.StoreID != storeID {
		return false
	}
	if tp.CustomerRoleID != nil && !slices.Contains(roleIDs, *tp.CustomerRoleID) {
		return false
	}
	return true
}

// Apply returns the unit price resulting from this tier for a base price
func (tp TierPrice) Apply(price decimal.Decimal) decimal.Decimal {
	switch tp.CalculationMethod {
	case TierPricePercental:
		return price.Sub(price.Mul(tp.Price).Div(decimal.NewFromInt(100)))
	case TierPriceAdjustment:
		return price.Sub(tp.Price)
	default:
		return tp.Price
	}
}

func sortTierPrices(tiers []TierPrice) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Quantity < tiers[j].Quantity
	})
}

// AttributeValue is a selectable product variant attribute value
type AttributeValue struct {
	shared.BaseEntity
	ProductID       int             `gorm:"not null;index"`
	Name            string          `gorm:"type:varchar(450);not null"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsPreSelected   bool            `gorm:"not null;default:false"`
	DisplayOrder    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AttributeValue) TableName() string {
	return "product_variant_attribute_values"
}

// AttributeCombination is a concrete selection of attribute values with its
// own stock and an optional price override
type AttributeCombination struct {
	shared.BaseEntity
	ProductID             int              `gorm:"not null;index"`
	ValueIDs              string           `gorm:"column:attribute_value_ids;type:varchar(400);not null"`
	Sku                   string           `gorm:"type:varchar(400)"`
	StockQuantity         int              `gorm:"not null;default:0"`
	AllowOutOfStockOrders bool             `gorm:"not null;default:false"`
	Price                 *decimal.Decimal `gorm:"type:decimal(18,4)"`
	IsActive              bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AttributeCombination) TableName() string {
	return "product_variant_attribute_combinations"
}

// AttributeValueIDs parses the stored comma separated value IDs
func (c AttributeCombination) AttributeValueIDs() []int {
	var ids []int
	for _, part := range strings.Split(c.ValueIDs, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Matches reports whether the combination consists of exactly the given values
func (c AttributeCombination) Matches(valueIDs []int) bool {
	want := slices.Clone(valueIDs)
	slices.Sort(want)
	return slices.Equal(c.AttributeValueIDs(), want)
}

// FindCombination returns the active combination for the selected values
func (p *Product) FindCombination(valueIDs []int) *AttributeCombination {
	if len(valueIDs) == 0 {
		return nil
	}
	for i := range p.AttributeCombinations {
		c := &p.AttributeCombinations[i]
		if c.IsActive && c.Matches(valueIDs) {
			return c
		}
	}
	return nil
}

// PreSelectedValues returns the attribute values marked as preselected
func (p *Product) PreSelectedValues() []AttributeValue {
	var values []AttributeValue
	for _, v := range p.AttributeValues {
		if v.IsPreSelected {
			values = append(values, v)
		}
	}
	return values
}
