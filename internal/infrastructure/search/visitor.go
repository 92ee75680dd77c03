package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const productTable = "products"

var termFields = []string{
	search.KnownFilters.Name,
	search.KnownFilters.Sku,
	search.KnownFilters.ShortDescription,
}

// VisitorConfig holds query settings of the catalog search
type VisitorConfig struct {
	// IgnoreACL skips customer role restrictions
	IgnoreACL bool
	// IgnoreMultiStore skips store mapping restrictions
	IgnoreMultiStore bool
}

// CatalogSearchQueryVisitor translates a catalog search query into GORM
// conditions on the products table
type CatalogSearchQueryVisitor struct {
	config VisitorConfig
	now    func() time.Time
}

// NewCatalogSearchQueryVisitor creates a new visitor
func NewCatalogSearchQueryVisitor(config VisitorConfig) *CatalogSearchQueryVisitor {
	return &CatalogSearchQueryVisitor{
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Visit applies all filters and the sorting of q to db, bound to ctx.
// Paging is left to the caller so the same query can be counted.
func (v *CatalogSearchQueryVisitor) Visit(ctx context.Context, q *search.CatalogSearchQuery, db *gorm.DB) (*gorm.DB, *QueryContext) {
	db = db.WithContext(ctx)
	qc := &QueryContext{
		Query:            q,
		Now:              v.now(),
		LanguageID:       q.LanguageID,
		IgnoreACL:        v.config.IgnoreACL,
		IgnoreMultiStore: v.config.IgnoreMultiStore,
	}

	for _, f := range q.Filters {
		db = v.visitFilter(qc, f, db)
	}

	sorted := false
	for _, s := range q.Sorting {
		var applied bool
		db, applied = v.visitSorting(qc, s, db)
		sorted = sorted || applied
	}
	if !sorted {
		db = v.applyDefaultSorting(qc, db)
	}

	return db, qc
}

func (v *CatalogSearchQueryVisitor) visitFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	names := search.KnownFilters
	fieldName := f.FieldName()

	switch {
	case slices.Contains(termFields, fieldName) || fieldName == names.SearchTerm:
		return v.visitTermFilter(qc, f, db)
	case fieldName == names.ProductID:
		return applySimpleMember(db, "id", f)
	case fieldName == names.StockQuantity:
		return applySimpleMember(db, "stock_quantity", f)
	case fieldName == names.ParentID:
		return applySimpleMember(db, "parent_grouped_product_id", f)
	case fieldName == names.CreatedOn:
		return applySimpleMember(db, "created_on_utc", f)
	case fieldName == names.IsPublished:
		return applySimpleMember(db, "published", f)
	case fieldName == names.ShowOnHomepage:
		return applySimpleMember(db, "show_on_home_page", f)
	case fieldName == names.IsDownload:
		return applySimpleMember(db, "is_download", f)
	case fieldName == names.IsRecurring:
		return applySimpleMember(db, "is_recurring", f)
	case fieldName == names.IsShippingEnabled:
		return applySimpleMember(db, "is_shipping_enabled", f)
	case fieldName == names.IsFreeShipping:
		return applySimpleMember(db, "is_free_shipping", f)
	case fieldName == names.IsTaxExempt:
		return applySimpleMember(db, "is_tax_exempt", f)
	case fieldName == names.IsEsd:
		return applySimpleMember(db, "is_esd", f)
	case fieldName == names.HasDiscount:
		return applySimpleMember(db, "has_discounts_applied", f)
	case fieldName == names.IsAvailable:
		return db.Where(availabilityCondition,
			int(catalog.DontManageStock),
			int(catalog.ManageStock), int(catalog.NoBackorders),
			int(catalog.ManageStockByAttributes))
	case fieldName == names.DeliveryID:
		ids := search.Terms[int](f)
		switch {
		case len(ids) == 1:
			return db.Where("products.delivery_time_id IS NOT NULL AND products.delivery_time_id = ?", ids[0])
		case len(ids) > 1:
			return db.Where("products.delivery_time_id IS NOT NULL AND products.delivery_time_id IN ?", ids)
		}
	case fieldName == names.Condition:
		ids := search.Terms[int](f)
		switch {
		case len(ids) == 1:
			return db.Where("products.condition = ?", ids[0])
		case len(ids) > 1:
			return db.Where("products.condition IN ?", ids)
		}
	case fieldName == names.Rating:
		return v.visitRatingFilter(f, db)
	case fieldName == names.RoleID:
		return v.visitRoleFilter(qc, f, db)
	case fieldName == names.StoreID:
		return v.visitStoreFilter(qc, f, db)
	case strings.HasPrefix(fieldName, names.Price):
		return v.visitPriceFilter(qc, f, db)
	case strings.HasSuffix(fieldName, names.CategoryID):
		return v.visitMappingFilter(qc, f, db, categoryMapping)
	case strings.HasSuffix(fieldName, names.ManufacturerID):
		return v.visitMappingFilter(qc, f, db, manufacturerMapping)
	case fieldName == names.TagID:
		if ids := search.Terms[int](f); len(ids) > 0 {
			return db.Where("EXISTS (SELECT 1 FROM product_product_tag_mappings ptm WHERE ptm.product_id = products.id AND ptm.product_tag_id IN ?)", ids)
		}
	default:
		return v.visitOtherFilter(qc, f, db)
	}
	return db
}

// visitOtherFilter handles range-only, tree path and plain attribute filters
func (v *CatalogSearchQueryVisitor) visitOtherFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	names := search.KnownFilters

	switch filter := f.(type) {
	case *search.RangeFilter:
		switch filter.Field {
		case names.AvailableStart:
			return applyNullableDateRange(db, "available_start_date_time_utc", filter)
		case names.AvailableEnd:
			return applyNullableDateRange(db, "available_end_date_time_utc", filter)
		}
	case *search.CategoryTreePathFilter:
		return v.visitCategoryTreePathFilter(qc, filter, db)
	case *search.AttributeFilter:
		switch filter.Field {
		case names.TypeID:
			return db.Where("products.product_type_id = ?", filter.Term)
		case names.Visibility:
			visibility, ok := toInt(filter.Term)
			if !ok {
				return db
			}
			if catalog.Visibility(visibility) == catalog.VisibilitySearchResults {
				return db.Where("products.visibility <= ?", visibility)
			}
			return db.Where("products.visibility = ?", visibility)
		}
	}
	return db
}

const availabilityCondition = "products.manage_inventory_method_id = ? OR " +
	"(products.manage_inventory_method_id = ? AND (products.stock_quantity > 0 OR products.backorder_mode_id <> ?)) OR " +
	"(products.manage_inventory_method_id = ? AND EXISTS (SELECT 1 FROM product_variant_attribute_combinations pvac " +
	"WHERE pvac.product_id = products.id AND (pvac.stock_quantity > 0 OR pvac.allow_out_of_stock_orders)))"

// applySimpleMember compares a products column with the filter terms.
// Combined filters and slice terms become IN, ranges honor their bounds
// and MustNot negates.
func applySimpleMember(db *gorm.DB, column string, f search.Filter) *gorm.DB {
	col := productTable + "." + column

	switch filter := f.(type) {
	case *search.CombinedFilter:
		var terms []any
		for _, child := range filter.Filters {
			if af, ok := child.(search.AttributeSearchFilter); ok {
				terms = append(terms, expandTerm(af.Attribute().Term)...)
			}
		}
		if len(terms) == 0 {
			return db
		}
		return db.Where(col+" IN ?", terms)
	case *search.RangeFilter:
		if filter.Term != nil {
			db = db.Where(col+lowerOperator(filter.IncludesLower)+"?", filter.Term)
		}
		if filter.UpperTerm != nil {
			db = db.Where(col+upperOperator(filter.IncludesUpper)+"?", filter.UpperTerm)
		}
		return db
	case *search.AttributeFilter:
		negate := filter.Occur == search.MustNot
		if terms := expandTerm(filter.Term); len(terms) != 1 || isSlice(filter.Term) {
			if len(terms) == 0 {
				return db
			}
			if negate {
				return db.Where(col+" NOT IN ?", terms)
			}
			return db.Where(col+" IN ?", terms)
		}
		if negate {
			return db.Where(col+" <> ?", filter.Term)
		}
		return db.Where(col+" = ?", filter.Term)
	}
	return db
}

func (v *CatalogSearchQueryVisitor) visitTermFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	var (
		filters []*search.AttributeFilter
		op      string
	)

	switch filter := f.(type) {
	case *search.CombinedFilter:
		op = " OR "
		for _, child := range filter.Filters {
			if af, ok := child.(search.AttributeSearchFilter); ok {
				filters = append(filters, af.Attribute())
			}
		}
	case search.AttributeSearchFilter:
		op = " AND "
		filters = append(filters, filter.Attribute())
	default:
		return db
	}

	var (
		parts []string
		args  []any
	)
	for _, af := range filters {
		sql, vars := v.termExpression(qc, af)
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		args = append(args, vars...)
	}
	if len(parts) == 0 {
		return db
	}
	return db.Where("("+strings.Join(parts, op)+")", args...)
}

// termExpression builds the condition of a single term filter. The search
// term field matches name, sku or short description.
func (v *CatalogSearchQueryVisitor) termExpression(qc *QueryContext, af *search.AttributeFilter) (string, []any) {
	term, ok := af.Term.(string)
	if !ok || term == "" {
		return "", nil
	}
	names := search.KnownFilters

	switch af.Field {
	case names.Sku:
		return stringCondition("products.sku", af, term)
	case names.ShortDescription:
		return stringCondition("products.short_description", af, term)
	case names.Name:
		sql, args := stringCondition("products.name", af, term)
		if qc.LanguageID == 0 {
			return sql, args
		}
		lpSQL, lpArgs := stringCondition("lp.locale_value", af, term)
		localized := "EXISTS (SELECT 1 FROM localized_properties lp WHERE lp.entity_id = products.id " +
			"AND lp.language_id = ? AND lp.locale_key_group = ? AND lp.locale_key = ? AND " + lpSQL + ")"
		localizedArgs := append([]any{qc.LanguageID, catalog.EntityNameProduct, "Name"}, lpArgs...)
		if af.Occur == search.MustNot {
			return "(" + sql + " AND NOT " + localized + ")", append(args, localizedArgs...)
		}
		return "(" + sql + " OR " + localized + ")", append(args, localizedArgs...)
	case names.SearchTerm:
		var (
			parts []string
			args  []any
		)
		for _, field := range []string{"products.name", "products.sku", "products.short_description"} {
			sql, vars := stringCondition(field, af, term)
			parts = append(parts, sql)
			args = append(args, vars...)
		}
		joiner := " OR "
		if af.Occur == search.MustNot {
			joiner = " AND "
		}
		return "(" + strings.Join(parts, joiner) + ")", args
	}
	return "", nil
}

// stringCondition matches a text column. Pattern matching is case
// insensitive; exact matches compare the stored value.
func stringCondition(column string, af *search.AttributeFilter, term string) (string, []any) {
	negate := af.Occur == search.MustNot

	switch af.Mode {
	case search.StartsWith:
		if negate {
			return column + ` NOT ILIKE ? ESCAPE '\'`, []any{escapeLike(term) + "%"}
		}
		return column + ` ILIKE ? ESCAPE '\'`, []any{escapeLike(term) + "%"}
	case search.Contains:
		if negate {
			return column + ` NOT ILIKE ? ESCAPE '\'`, []any{"%" + escapeLike(term) + "%"}
		}
		return column + ` ILIKE ? ESCAPE '\'`, []any{"%" + escapeLike(term) + "%"}
	default:
		if negate {
			return column + " <> ?", []any{term}
		}
		return column + " = ?", []any{term}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const averageRating = "(CAST(products.approved_rating_sum AS double precision) / products.approved_total_reviews)"

func (v *CatalogSearchQueryVisitor) visitRatingFilter(f search.Filter, db *gorm.DB) *gorm.DB {
	switch filter := f.(type) {
	case *search.RangeFilter:
		lower, hasLower := toFloat(filter.Term)
		upper, hasUpper := toFloat(filter.UpperTerm)
		if !hasLower && !hasUpper {
			return db
		}
		db = db.Where("products.approved_total_reviews > 0")
		if hasLower {
			db = db.Where(averageRating+lowerOperator(filter.IncludesLower)+"?", lower)
		}
		if hasUpper {
			db = db.Where(averageRating+upperOperator(filter.IncludesUpper)+"?", upper)
		}
		return db
	case *search.AttributeFilter:
		rating, ok := toFloat(filter.Term)
		if !ok {
			return db
		}
		if filter.Occur == search.MustNot {
			return db.Where("products.approved_total_reviews > 0 AND "+averageRating+" <> ?", rating)
		}
		return db.Where("products.approved_total_reviews > 0 AND "+averageRating+" = ?", rating)
	}
	return db
}

func (v *CatalogSearchQueryVisitor) visitRoleFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	if qc.IgnoreACL {
		return db
	}
	roleIDs := search.Terms[int](f)
	if len(roleIDs) == 0 {
		return db
	}
	return db.Where("NOT products.subject_to_acl OR products.id IN (SELECT acl.entity_id FROM acl_records acl WHERE acl.entity_name = ? AND acl.customer_role_id IN ?)",
		catalog.EntityNameProduct, roleIDs)
}

func (v *CatalogSearchQueryVisitor) visitStoreFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	if qc.IgnoreMultiStore {
		return db
	}
	storeIDs := search.Terms[int](f)
	if len(storeIDs) == 0 {
		return db
	}
	return db.Where("NOT products.limited_to_stores OR products.id IN (SELECT sm.entity_id FROM store_mappings sm WHERE sm.entity_name = ? AND sm.store_id IN ?)",
		catalog.EntityNameProduct, storeIDs)
}

// effectivePrice is the special price while its window strictly contains
// now, otherwise the regular price
const effectivePrice = "(CASE WHEN products.special_price IS NOT NULL " +
	"AND (products.special_price_start_date_time_utc IS NULL OR products.special_price_start_date_time_utc < @now) " +
	"AND (products.special_price_end_date_time_utc IS NULL OR products.special_price_end_date_time_utc > @now) " +
	"THEN products.special_price ELSE products.price END)"

func (v *CatalogSearchQueryVisitor) visitPriceFilter(qc *QueryContext, f search.Filter, db *gorm.DB) *gorm.DB {
	switch filter := f.(type) {
	case *search.RangeFilter:
		if lower, ok := toFloat(filter.Term); ok {
			db = db.Where(effectivePrice+lowerOperator(filter.IncludesLower)+"@price",
				map[string]any{"now": qc.Now, "price": decimal.NewFromFloat(lower)})
		}
		if upper, ok := toFloat(filter.UpperTerm); ok {
			db = db.Where(effectivePrice+upperOperator(filter.IncludesUpper)+"@price",
				map[string]any{"now": qc.Now, "price": decimal.NewFromFloat(upper)})
		}
		return db
	case *search.AttributeFilter:
		price, ok := toFloat(filter.Term)
		if !ok {
			return db
		}
		op := " = "
		if filter.Occur == search.MustNot {
			op = " <> "
		}
		return db.Where(effectivePrice+op+"@price",
			map[string]any{"now": qc.Now, "price": decimal.NewFromFloat(price)})
	}
	return db
}

type mappingKind struct {
	table     string
	column    string
	contextID func(qc *QueryContext) **int
}

var (
	categoryMapping = mappingKind{
		table:     "product_category_mappings",
		column:    "category_id",
		contextID: func(qc *QueryContext) **int { return &qc.CategoryID },
	}
	manufacturerMapping = mappingKind{
		table:     "product_manufacturer_mappings",
		column:    "manufacturer_id",
		contextID: func(qc *QueryContext) **int { return &qc.ManufacturerID },
	}
)

// visitMappingFilter handles category and manufacturer filters. A range
// of 1..AnyID means "has any mapping". A single ID 0 as the first seen
// context ID means "has no mapping".
func (v *CatalogSearchQueryVisitor) visitMappingFilter(qc *QueryContext, f search.Filter, db *gorm.DB, kind mappingKind) *gorm.DB {
	exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s m WHERE m.product_id = products.id", kind.table)

	if rf, ok := f.(*search.RangeFilter); ok {
		lower, _ := toInt(rf.Term)
		upper, _ := toInt(rf.UpperTerm)
		if lower == 1 && upper == search.AnyID {
			return db.Where(exists + ")")
		}
		return db
	}

	ids := search.Terms[int](f)
	if len(ids) == 0 {
		return db
	}

	var featuredOnly *bool
	if name := f.FieldName(); name != search.KnownFilters.CategoryID && name != search.KnownFilters.ManufacturerID {
		featured := strings.HasPrefix(name, search.KnownFilters.FeaturedPrefix)
		featuredOnly = &featured
	}

	contextID := kind.contextID(qc)
	if *contextID == nil {
		first := ids[0]
		*contextID = &first
	}

	if featuredOnly == nil && len(ids) == 1 && **contextID == 0 {
		return db.Where("NOT " + exists + ")")
	}

	condition := exists + " AND m." + kind.column + " IN ?"
	args := []any{ids}
	if featuredOnly != nil {
		condition += " AND m.is_featured_product = ?"
		args = append(args, *featuredOnly)
	}
	return db.Where(condition+")", args...)
}

func (v *CatalogSearchQueryVisitor) visitCategoryTreePathFilter(qc *QueryContext, f *search.CategoryTreePathFilter, db *gorm.DB) *gorm.DB {
	if qc.CategoryID == nil {
		id := f.CategoryID
		qc.CategoryID = &id
	}

	condition := `EXISTS (SELECT 1 FROM product_category_mappings m JOIN categories c ON c.id = m.category_id ` +
		`WHERE m.product_id = products.id AND c.tree_path LIKE ? ESCAPE '\'`
	args := []any{escapeLike(f.TreePath) + "%"}
	if !f.IncludeSelf {
		condition += " AND LENGTH(c.tree_path) > ?"
		args = append(args, len(f.TreePath))
	}
	if f.FeaturedOnly != nil {
		condition += " AND m.is_featured_product = ?"
		args = append(args, *f.FeaturedOnly)
	}
	return db.Where(condition+")", args...)
}

// applyNullableDateRange bounds a nullable date column. Rows without a
// date always pass.
func applyNullableDateRange(db *gorm.DB, column string, rf *search.RangeFilter) *gorm.DB {
	col := productTable + "." + column
	if lower, ok := rf.Term.(time.Time); ok {
		db = db.Where("("+col+" IS NULL OR "+col+lowerOperator(rf.IncludesLower)+"?)", lower)
	}
	if upper, ok := rf.UpperTerm.(time.Time); ok {
		db = db.Where("("+col+" IS NULL OR "+col+upperOperator(rf.IncludesUpper)+"?)", upper)
	}
	return db
}

func (v *CatalogSearchQueryVisitor) visitSorting(qc *QueryContext, s search.Sort, db *gorm.DB) (*gorm.DB, bool) {
	names := search.KnownSortings

	switch s.FieldName {
	case names.Relevance:
		switch {
		case qc.hasCategory():
			return orderByExpression(db, fmt.Sprintf(
				"(SELECT m.display_order FROM product_category_mappings m WHERE m.product_id = products.id AND m.category_id = %d LIMIT 1)",
				*qc.CategoryID)), true
		case qc.hasManufacturer():
			return orderByExpression(db, fmt.Sprintf(
				"(SELECT m.display_order FROM product_manufacturer_mappings m WHERE m.product_id = products.id AND m.manufacturer_id = %d LIMIT 1)",
				*qc.ManufacturerID)), true
		}
	case names.CreatedOn:
		return orderByColumn(db, "created_on_utc", s.Descending), true
	case names.Name:
		return orderByColumn(db, "name", s.Descending), true
	case names.Price:
		return orderByColumn(db, "price", s.Descending), true
	}
	return db, false
}

func (v *CatalogSearchQueryVisitor) applyDefaultSorting(qc *QueryContext, db *gorm.DB) *gorm.DB {
	if search.FindFilter(qc.Query.Filters, search.KnownFilters.ParentID) != nil {
		return orderByColumn(db, "display_order", false)
	}
	return orderByColumn(db, "id", false)
}

func orderByColumn(db *gorm.DB, column string, desc bool) *gorm.DB {
	return db.Order(clause.OrderByColumn{
		Column: clause.Column{Table: productTable, Name: column},
		Desc:   desc,
	})
}

func orderByExpression(db *gorm.DB, expr string) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: expr, Raw: true}})
}

func lowerOperator(inclusive bool) string {
	if inclusive {
		return " >= "
	}
	return " > "
}

func upperOperator(inclusive bool) string {
	if inclusive {
		return " <= "
	}
	return " < "
}

func expandTerm(term any) []any {
	switch t := term.(type) {
	case nil:
		return nil
	case []int:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = v
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = v
		}
		return out
	case []any:
		return t
	default:
		return []any{t}
	}
}

func isSlice(term any) bool {
	switch term.(type) {
	case []int, []string, []any:
		return true
	}
	return false
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case catalog.Visibility:
		return int(t), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case decimal.Decimal:
		return t.InexactFloat64(), true
	}
	return 0, false
}
