package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductType distinguishes simple products from containers of other products
type ProductType int

const (
	ProductTypeSimple  ProductType = 5
	ProductTypeGrouped ProductType = 10
	ProductTypeBundle  ProductType = 15
)

// Visibility controls where a product is listed. Values are ordered from
// most to least visible.
type Visibility int

const (
	VisibilityFull          Visibility = 0
	VisibilitySearchResults Visibility = 10
	VisibilityProductPage   Visibility = 20
	VisibilityHidden        Visibility = 30
)

// Condition is the physical condition of the goods
type Condition int

const (
	ConditionNew         Condition = 0
	ConditionRefurbished Condition = 10
	ConditionUsed        Condition = 20
	ConditionDamaged     Condition = 30
)

// ManageInventoryMethod decides how stock is tracked
type ManageInventoryMethod int

const (
	DontManageStock         ManageInventoryMethod = 0
	ManageStock             ManageInventoryMethod = 1
	ManageStockByAttributes ManageInventoryMethod = 2
)

// BackorderMode decides whether orders are accepted without stock
type BackorderMode int

const (
	NoBackorders               BackorderMode = 0
	AllowQtyBelowZero          BackorderMode = 1
	AllowQtyBelowZeroAndNotify BackorderMode = 2
)

// Product is the sellable catalog item
type Product struct {
	shared.AuditedEntity
	ProductType            ProductType           `gorm:"column:product_type_id;not null;default:5"`
	ParentGroupedProductID int                   `gorm:"not null;default:0;index"`
	Visibility             Visibility            `gorm:"not null;default:0"`
	Condition              Condition             `gorm:"not null;default:0"`
	Name                   string                `gorm:"type:varchar(400);not null"`
	ShortDescription       string                `gorm:"type:text"`
	Sku                    string                `gorm:"type:varchar(400);index"`
	Price                  decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	OldPrice               decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	SpecialPrice           *decimal.Decimal      `gorm:"type:decimal(18,4)"`
	SpecialPriceStartUTC   *time.Time            `gorm:"column:special_price_start_date_time_utc"`
	SpecialPriceEndUTC     *time.Time            `gorm:"column:special_price_end_date_time_utc"`
	StockQuantity          int                   `gorm:"not null;default:0"`
	ManageInventoryMethod  ManageInventoryMethod `gorm:"column:manage_inventory_method_id;not null;default:0"`
	BackorderMode          BackorderMode         `gorm:"column:backorder_mode_id;not null;default:0"`
	DeliveryTimeID         *int                  `gorm:"index"`
	Published              bool                  `gorm:"not null;default:true"`
	ShowOnHomePage         bool                  `gorm:"not null;default:false"`
	IsDownload             bool                  `gorm:"not null;default:false"`
	IsRecurring            bool                  `gorm:"not null;default:false"`
	IsShippingEnabled      bool                  `gorm:"not null;default:true"`
	IsFreeShipping         bool                  `gorm:"not null;default:false"`
	IsTaxExempt            bool                  `gorm:"not null;default:false"`
	IsEsd                  bool                  `gorm:"not null;default:false"`
	HasTierPrices          bool                  `gorm:"not null;default:false"`
	HasDiscountsApplied    bool                  `gorm:"not null;default:false"`
	SubjectToACL           bool                  `gorm:"column:subject_to_acl;not null;default:false"`
	LimitedToStores        bool                  `gorm:"not null;default:false"`
	ApprovedRatingSum      int                   `gorm:"not null;default:0"`
	ApprovedTotalReviews   int                   `gorm:"not null;default:0"`
	AvailableStartUTC      *time.Time            `gorm:"column:available_start_date_time_utc"`
	AvailableEndUTC        *time.Time            `gorm:"column:available_end_date_time_utc"`
	DisplayOrder           int                   `gorm:"not null;default:0"`

	ProductCategories     []ProductCategory      `gorm:"foreignKey:ProductID"`
	ProductManufacturers  []ProductManufacturer  `gorm:"foreignKey:ProductID"`
	ProductTags           []ProductTag           `gorm:"many2many:product_product_tag_mappings;joinForeignKey:ProductID;joinReferences:ProductTagID"`
	TierPrices            []TierPrice            `gorm:"foreignKey:ProductID"`
	AttributeValues       []AttributeValue       `gorm:"foreignKey:ProductID"`
	AttributeCombinations []AttributeCombination `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a published simple product
func NewProduct(name, sku string, price decimal.Decimal) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateSku(sku); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	p := &Product{
		ProductType:       ProductTypeSimple,
		Visibility:        VisibilityFull,
		Name:              strings.TrimSpace(name),
		Sku:               strings.TrimSpace(sku),
		Price:             price,
		Published:         true,
		IsShippingEnabled: true,
	}
	p.Touch(time.Now())
	return p, nil
}

// SetPrice sets the regular price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = price
	p.Touch(time.Now())
	return nil
}

// SetSpecialPrice sets an offer price valid between from and to.
// Nil bounds leave the window open on that side.
func (p *Product) SetSpecialPrice(price decimal.Decimal, from, to *time.Time) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Special price cannot be negative")
	}
	if from != nil && to != nil && !from.Before(*to) {
		return shared.NewDomainError("INVALID_PERIOD", "Special price start must be before its end")
	}
	p.SpecialPrice = &price
	p.SpecialPriceStartUTC = utcPtr(from)
	p.SpecialPriceEndUTC = utcPtr(to)
	p.Touch(time.Now())
	return nil
}

// ClearSpecialPrice removes the offer price
func (p *Product) ClearSpecialPrice() {
	p.SpecialPrice = nil
	p.SpecialPriceStartUTC = nil
	p.SpecialPriceEndUTC = nil
	p.Touch(time.Now())
}

// ActiveSpecialPrice returns the special price if its window contains now
func (p *Product) ActiveSpecialPrice(now time.Time) (decimal.Decimal, bool) {
	if p.SpecialPrice == nil {
		return decimal.Zero, false
	}
	if p.SpecialPriceStartUTC != nil && !p.SpecialPriceStartUTC.Before(now) {
		return decimal.Zero, false
	}
	if p.SpecialPriceEndUTC != nil && !p.SpecialPriceEndUTC.After(now) {
		return decimal.Zero, false
	}
	return *p.SpecialPrice, true
}

// IsAvailable applies the inventory rule used by the "available" search filter
func (p *Product) IsAvailable() bool {
	switch p.ManageInventoryMethod {
	case ManageStock:
		return p.StockQuantity > 0 || p.BackorderMode != NoBackorders
	case ManageStockByAttributes:
		for _, c := range p.AttributeCombinations {
			if c.StockQuantity > 0 || c.AllowOutOfStockOrders {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// AverageRating returns the approved rating average or zero without reviews
func (p *Product) AverageRating() float64 {
	if p.ApprovedTotalReviews <= 0 {
		return 0
	}
	return float64(p.ApprovedRatingSum) / float64(p.ApprovedTotalReviews)
}

// AddReview records an approved rating from 1 to 5
func (p *Product) AddReview(rating int) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	p.ApprovedRatingSum += rating
	p.ApprovedTotalReviews++
	return nil
}

// Publish makes the product visible in the storefront
func (p *Product) Publish() {
	p.Published = true
	p.Touch(time.Now())
}

// Unpublish hides the product from the storefront
func (p *Product) Unpublish() {
	p.Published = false
	p.Touch(time.Now())
}

// ApplicableTierPrices returns tier prices valid for the store and customer
// roles, ordered by quantity. For equal quantities only the lowest price
// is kept.
func (p *Product) ApplicableTierPrices(storeID int, roleIDs []int) []TierPrice {
	byQuantity := make(map[int]TierPrice)
	for _, tp := range p.TierPrices {
		if !tp.AppliesTo(storeID, roleIDs) {
			continue
		}
		if existing, ok := byQuantity[tp.Quantity]; ok && existing.Price.LessThanOrEqual(tp.Price) {
			continue
		}
		byQuantity[tp.Quantity] = tp
	}

	result := make([]TierPrice, 0, len(byQuantity))
	for _, tp := range byQuantity {
		result = append(result, tp)
	}
	sortTierPrices(result)
	return result
}

// CategoryIDs returns the IDs of all mapped categories
func (p *Product) CategoryIDs() []int {
	ids := make([]int, 0, len(p.ProductCategories))
	for _, pc := range p.ProductCategories {
		ids = append(ids, pc.CategoryID)
	}
	return ids
}

// ManufacturerIDs returns the IDs of all mapped manufacturers
func (p *Product) ManufacturerIDs() []int {
	ids := make([]int, 0, len(p.ProductManufacturers))
	for _, pm := range p.ProductManufacturers {
		ids = append(ids, pm.ManufacturerID)
	}
	return ids
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 400 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 400 characters")
	}
	return nil
}

func validateSku(sku string) error {
	if len(sku) > 400 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 400 characters")
	}
	return nil
}
