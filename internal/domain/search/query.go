package search

import (
	"math"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// KnownFilters are the field names understood by the catalog search
var KnownFilters = struct {
	Name, Sku, ShortDescription, SearchTerm                   string
	ProductID, StockQuantity, ParentID, CreatedOn             string
	IsPublished, ShowOnHomepage, IsDownload, IsRecurring      string
	IsShippingEnabled, IsFreeShipping, IsTaxExempt, IsEsd     string
	HasDiscount, IsAvailable, DeliveryID, Condition, Rating   string
	RoleID, StoreID, Price, CategoryID, ManufacturerID, TagID string
	AvailableStart, AvailableEnd, TypeID, Visibility          string
	FeaturedPrefix, NotFeaturedPrefix                         string
}{
	Name: "name", Sku: "sku", ShortDescription: "shortdescription", SearchTerm: "searchterm",
	ProductID: "id", StockQuantity: "stockquantity", ParentID: "parentid", CreatedOn: "createdon",
	IsPublished: "published", ShowOnHomepage: "showonhomepage", IsDownload: "download", IsRecurring: "recurring",
	IsShippingEnabled: "shippingenabled", IsFreeShipping: "freeshipping", IsTaxExempt: "taxexempt", IsEsd: "esd",
	HasDiscount: "discount", IsAvailable: "available", DeliveryID: "deliveryid", Condition: "condition", Rating: "rating",
	RoleID: "roleid", StoreID: "storeid", Price: "price", CategoryID: "categoryid", ManufacturerID: "manufacturerid", TagID: "tagid",
	AvailableStart: "availablestart", AvailableEnd: "availableend", TypeID: "typeid", Visibility: "visibility",
	FeaturedPrefix: "featured", NotFeaturedPrefix: "notfeatured",
}

// KnownSortings are the sort field names understood by the catalog search.
// An empty field name sorts by relevance.
var KnownSortings = struct {
	Relevance, CreatedOn, Name, Price string
}{
	Relevance: "", CreatedOn: "createdon", Name: "name", Price: "price",
}

// AnyID is the upper bound of the "has any" category/manufacturer range
const AnyID = math.MaxInt32

// Sort orders the result by a field
type Sort struct {
	FieldName  string
	Descending bool
}

// ByRelevance sorts by category or manufacturer display order
func ByRelevance() Sort { return Sort{} }

// CatalogSearchQuery describes a product search as a list of filters
type CatalogSearchQuery struct {
	Term         string
	Fields       []string
	Mode         Mode
	LanguageID   int
	CurrencyCode string
	Origin       string
	Filters      []Filter
	Sorting      []Sort
	Skip         int
	Take         int
}

// NewCatalogSearchQuery creates a query for term in fields. A term in
// several fields becomes a combined filter whose parts are OR-combined.
func NewCatalogSearchQuery(fields []string, term string, mode Mode) *CatalogSearchQuery {
	q := &CatalogSearchQuery{Mode: mode, Take: math.MaxInt32}

	term = strings.TrimSpace(term)
	var valid []string
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			valid = append(valid, f)
		}
	}
	q.Term = term
	q.Fields = valid

	if term == "" || len(valid) == 0 {
		return q
	}
	if len(valid) == 1 {
		return q.WithFilter(ByField(valid[0], term).WithMode(mode))
	}
	parts := make([]Filter, 0, len(valid))
	for _, f := range valid {
		parts = append(parts, ByField(f, term).WithMode(mode).Optional())
	}
	return q.WithFilter(Combined(parts...))
}

// PageIndex returns the zero based page derived from Skip and Take
func (q *CatalogSearchQuery) PageIndex() int {
	if q.Take <= 0 || q.Take == math.MaxInt32 {
		return 0
	}
	return q.Skip / q.Take
}

// WithFilter appends a filter
func (q *CatalogSearchQuery) WithFilter(f Filter) *CatalogSearchQuery {
	q.Filters = append(q.Filters, f)
	return q
}

// SortBy appends a sort criterion
func (q *CatalogSearchQuery) SortBy(s Sort) *CatalogSearchQuery {
	q.Sorting = append(q.Sorting, s)
	return q
}

// Slice sets paging
func (q *CatalogSearchQuery) Slice(skip, take int) *CatalogSearchQuery {
	q.Skip = max(skip, 0)
	q.Take = take
	return q
}

// WithLanguage sets the language used for localized name matching
func (q *CatalogSearchQuery) WithLanguage(languageID int) *CatalogSearchQuery {
	q.LanguageID = languageID
	return q
}

// WithCurrency sets the currency the caller wants prices in
func (q *CatalogSearchQuery) WithCurrency(code string) *CatalogSearchQuery {
	q.CurrencyCode = strings.ToUpper(code)
	return q
}

// OriginatesFrom records where the search was triggered, e.g. "Search/Search"
func (q *CatalogSearchQuery) OriginatesFrom(origin string) *CatalogSearchQuery {
	q.Origin = origin
	return q
}

func (q *CatalogSearchQuery) withIntTerms(field string, ids []int) *CatalogSearchQuery {
	switch len(ids) {
	case 0:
		return q
	case 1:
		return q.WithFilter(ByField(field, ids[0]))
	}
	parts := make([]Filter, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, ByField(field, id))
	}
	return q.WithFilter(Combined(parts...))
}

// PublishedOnly restricts to published or unpublished products
func (q *CatalogSearchQuery) PublishedOnly(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsPublished, value))
}

// WithVisibility restricts visibility. SearchResults also admits fully visible products.
func (q *CatalogSearchQuery) WithVisibility(v catalog.Visibility) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.Visibility, int(v)))
}

// HasStoreID restricts to products available in the store. Zero is ignored.
func (q *CatalogSearchQuery) HasStoreID(id int) *CatalogSearchQuery {
	if id <= 0 {
		return q
	}
	return q.WithFilter(ByField(KnownFilters.StoreID, id))
}

// AllowedCustomerRoles restricts to products visible for any of the roles
func (q *CatalogSearchQuery) AllowedCustomerRoles(ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(KnownFilters.RoleID, ids)
}

// WithProductIDs restricts to the given products
func (q *CatalogSearchQuery) WithProductIDs(ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(KnownFilters.ProductID, ids)
}

// WithProductType restricts to a product type
func (q *CatalogSearchQuery) WithProductType(t catalog.ProductType) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.TypeID, int(t)))
}

// CategoryIDs restricts to products mapped to any of the categories.
// featuredOnly, when set, also restricts the featured flag of the mapping.
func (q *CatalogSearchQuery) CategoryIDs(featuredOnly *bool, ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(featuredField(KnownFilters.CategoryID, featuredOnly), ids)
}

// HasAnyCategory restricts to products with (true) or without (false) any category
func (q *CatalogSearchQuery) HasAnyCategory(value bool) *CatalogSearchQuery {
	if value {
		return q.WithFilter(ByRange(KnownFilters.CategoryID, 1, AnyID, true, true))
	}
	return q.WithFilter(ByField(KnownFilters.CategoryID, 0))
}

// WithCategoryTreePath restricts to products in a category subtree
func (q *CatalogSearchQuery) WithCategoryTreePath(treePath string, categoryID int, featuredOnly *bool, includeSelf bool) *CatalogSearchQuery {
	if treePath == "" {
		return q
	}
	return q.WithFilter(&CategoryTreePathFilter{
		TreePath:     treePath,
		CategoryID:   categoryID,
		FeaturedOnly: featuredOnly,
		IncludeSelf:  includeSelf,
	})
}

// ManufacturerIDs restricts to products of any of the manufacturers
func (q *CatalogSearchQuery) ManufacturerIDs(featuredOnly *bool, ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(featuredField(KnownFilters.ManufacturerID, featuredOnly), ids)
}

// HasAnyManufacturer restricts to products with (true) or without (false) any manufacturer
func (q *CatalogSearchQuery) HasAnyManufacturer(value bool) *CatalogSearchQuery {
	if value {
		return q.WithFilter(ByRange(KnownFilters.ManufacturerID, 1, AnyID, true, true))
	}
	return q.WithFilter(ByField(KnownFilters.ManufacturerID, 0))
}

// WithProductTagIDs restricts to products carrying any of the tags
func (q *CatalogSearchQuery) WithProductTagIDs(ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(KnownFilters.TagID, ids)
}

// WithDeliveryTimeIDs restricts to products with any of the delivery times
func (q *CatalogSearchQuery) WithDeliveryTimeIDs(ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(KnownFilters.DeliveryID, ids)
}

// WithCondition restricts to products in any of the conditions
func (q *CatalogSearchQuery) WithCondition(conditions ...catalog.Condition) *CatalogSearchQuery {
	ids := make([]int, 0, len(conditions))
	for _, c := range conditions {
		ids = append(ids, int(c))
	}
	return q.withIntTerms(KnownFilters.Condition, ids)
}

// PriceBetween restricts the effective price. Nil bounds are open.
// Equal bounds match the exact price.
func (q *CatalogSearchQuery) PriceBetween(from, to *float64) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	if from != nil && to != nil && *from == *to {
		return q.WithFilter(ByField(KnownFilters.Price, *from))
	}
	return q.WithFilter(ByRange(KnownFilters.Price, floatOrNil(from), floatOrNil(to), from != nil, to != nil))
}

// WithRating restricts the average rating. Nil bounds are open.
func (q *CatalogSearchQuery) WithRating(from, to *float64) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	if from != nil && to != nil && *from == *to {
		return q.WithFilter(ByField(KnownFilters.Rating, *from))
	}
	return q.WithFilter(ByRange(KnownFilters.Rating, floatOrNil(from), floatOrNil(to), from != nil, to != nil))
}

// WithStockQuantity restricts the stock quantity. Nil bounds are open.
func (q *CatalogSearchQuery) WithStockQuantity(from, to *int, includeFrom, includeTo bool) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	if from != nil && to != nil && *from == *to {
		f := ByField(KnownFilters.StockQuantity, *from)
		if !includeFrom && !includeTo {
			f.Negated()
		}
		return q.WithFilter(f)
	}
	return q.WithFilter(ByRange(KnownFilters.StockQuantity, intOrNil(from), intOrNil(to), includeFrom, includeTo))
}

// AvailableOnly restricts to products that can be ordered now
func (q *CatalogSearchQuery) AvailableOnly(value bool) *CatalogSearchQuery {
	if !value {
		return q
	}
	return q.WithFilter(ByField(KnownFilters.IsAvailable, true))
}

// AvailableByDate restricts to products whose availability window contains now
func (q *CatalogSearchQuery) AvailableByDate(now time.Time) *CatalogSearchQuery {
	return q.AvailableStartBetween(nil, &now).AvailableEndBetween(&now, nil)
}

// AvailableStartBetween restricts the start of the availability window.
// Nil bounds are open; products without a start date always pass.
func (q *CatalogSearchQuery) AvailableStartBetween(from, to *time.Time) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	return q.WithFilter(ByRange(KnownFilters.AvailableStart, timeOrNil(from), timeOrNil(to), from != nil, to != nil))
}

// AvailableEndBetween restricts the end of the availability window.
// Nil bounds are open; products without an end date always pass.
func (q *CatalogSearchQuery) AvailableEndBetween(from, to *time.Time) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	return q.WithFilter(ByRange(KnownFilters.AvailableEnd, timeOrNil(from), timeOrNil(to), from != nil, to != nil))
}

// HomePageProductsOnly restricts to products shown on the home page
func (q *CatalogSearchQuery) HomePageProductsOnly(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.ShowOnHomepage, value))
}

// HasParentGroupedProduct restricts to children of the grouped products
func (q *CatalogSearchQuery) HasParentGroupedProduct(ids ...int) *CatalogSearchQuery {
	return q.withIntTerms(KnownFilters.ParentID, ids)
}

// CreatedBetween restricts the creation date. Nil bounds are open.
func (q *CatalogSearchQuery) CreatedBetween(from, to *time.Time) *CatalogSearchQuery {
	if from == nil && to == nil {
		return q
	}
	return q.WithFilter(ByRange(KnownFilters.CreatedOn, timeOrNil(from), timeOrNil(to), from != nil, to != nil))
}

// IsDownload restricts by the download flag
func (q *CatalogSearchQuery) IsDownload(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsDownload, value))
}

// IsRecurring restricts by the recurring flag
func (q *CatalogSearchQuery) IsRecurring(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsRecurring, value))
}

// IsShippingEnabled restricts by the shipping flag
func (q *CatalogSearchQuery) IsShippingEnabled(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsShippingEnabled, value))
}

// IsFreeShipping restricts by the free shipping flag
func (q *CatalogSearchQuery) IsFreeShipping(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsFreeShipping, value))
}

// IsTaxExempt restricts by the tax exemption flag
func (q *CatalogSearchQuery) IsTaxExempt(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsTaxExempt, value))
}

// IsEsd restricts by the electronic software delivery flag
func (q *CatalogSearchQuery) IsEsd(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.IsEsd, value))
}

// HasDiscount restricts by whether discounts are applied
func (q *CatalogSearchQuery) HasDiscount(value bool) *CatalogSearchQuery {
	return q.WithFilter(ByField(KnownFilters.HasDiscount, value))
}

func featuredField(field string, featuredOnly *bool) string {
	if featuredOnly == nil {
		return field
	}
	if *featuredOnly {
		return KnownFilters.FeaturedPrefix + field
	}
	return KnownFilters.NotFeaturedPrefix + field
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeOrNil(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}
