package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// SearchRequest is a storefront catalog search
type SearchRequest struct {
	Term            string   `form:"q" binding:"max=400"`
	Fields          []string `form:"field"`
	Mode            string   `form:"mode" binding:"omitempty,oneof=exact startswith contains"`
	CategoryIDs     []int    `form:"category_id"`
	SubCategories   bool     `form:"subcategories"`
	ManufacturerIDs []int    `form:"manufacturer_id"`
	TagIDs          []int    `form:"tag_id"`
	DeliveryTimeIDs []int    `form:"delivery_id"`
	PriceFrom       *float64 `form:"price_from" binding:"omitempty,min=0"`
	PriceTo         *float64 `form:"price_to" binding:"omitempty,min=0"`
	RatingFrom      *float64 `form:"rating_from" binding:"omitempty,min=0,max=5"`
	AvailableOnly   bool     `form:"available"`
	HomePageOnly    bool     `form:"homepage"`
	Sort            string   `form:"sort" binding:"omitempty,oneof=relevance createdon name price"`
	Descending      bool     `form:"desc"`
	PageIndex       int      `form:"page" binding:"min=0,max=10000"`
	PageSize        int      `form:"page_size" binding:"min=0,max=1000"`
	LanguageID      int      `form:"language_id" binding:"min=0"`
	CurrencyCode    string   `form:"currency" binding:"omitempty,len=3"`

	// Filled from the customer token
	CustomerRoleIDs []int `form:"-"`
	StoreID         int   `form:"-"`

	// CategoryTreePath is resolved by the service when SubCategories is set
	CategoryTreePath string `form:"-"`
}

// ProductHit is a product in search results
type ProductHit struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	Sku                 string          `json:"sku"`
	ShortDescription    string          `json:"short_description,omitempty"`
	Price               decimal.Decimal `json:"price"`
	OldPrice            decimal.Decimal `json:"old_price,omitzero"`
	HasTierPrices       bool            `json:"has_tier_prices"`
	HasDiscountsApplied bool            `json:"has_discounts_applied"`
	Rating              float64         `json:"rating"`
	ReviewCount         int             `json:"review_count"`
	Available           bool            `json:"available"`
	ProductType         int             `json:"product_type"`
}

// SearchResult is one page of hits
type SearchResult struct {
	Hits       []ProductHit `json:"hits"`
	TotalCount int64        `json:"total_count"`
	PageIndex  int          `json:"page_index"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// ToProductHit converts a product
func ToProductHit(p *catalog.Product) ProductHit {
	return ProductHit{
		ID:                  p.ID,
		Name:                p.Name,
		Sku:                 p.Sku,
		ShortDescription:    p.ShortDescription,
		Price:               p.Price,
		OldPrice:            p.OldPrice,
		HasTierPrices:       p.HasTierPrices,
		HasDiscountsApplied: p.HasDiscountsApplied,
		Rating:              p.AverageRating(),
		ReviewCount:         p.ApprovedTotalReviews,
		Available:           p.IsAvailable(),
		ProductType:         int(p.ProductType),
	}
}
