package search

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func newVisitor(config VisitorConfig) *CatalogSearchQueryVisitor {
	v := NewCatalogSearchQueryVisitor(config)
	v.now = func() time.Time { return fixedNow }
	return v
}

func render(t *testing.T, v *CatalogSearchQueryVisitor, q *search.CatalogSearchQuery) (string, *QueryContext) {
	t.Helper()
	db := newDryRunDB(t)
	var qc *QueryContext
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var query *gorm.DB
		query, qc = v.Visit(context.Background(), q, tx.Model(&catalog.Product{}))
		var products []catalog.Product
		return query.Find(&products)
	})
	return sql, qc
}

func emptyQuery() *search.CatalogSearchQuery {
	return search.NewCatalogSearchQuery(nil, "", search.ExactMatch)
}

type ctxKey struct{}

func TestVisitor_BindsContext(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	ctx := context.WithValue(context.Background(), ctxKey{}, "search-1")

	query, _ := v.Visit(ctx, emptyQuery().PublishedOnly(true), newDryRunDB(t).Model(&catalog.Product{}))

	assert.Equal(t, "search-1", query.Statement.Context.Value(ctxKey{}))
}

func TestVisitor_DefaultSorting(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	t.Run("by id", func(t *testing.T) {
		sql, _ := render(t, v, emptyQuery())
		assert.Contains(t, sql, `SELECT * FROM "products"`)
		assert.Contains(t, sql, `ORDER BY "products"."id"`)
	})

	t.Run("by display order with parent filter", func(t *testing.T) {
		sql, _ := render(t, v, emptyQuery().HasParentGroupedProduct(12))
		assert.Contains(t, sql, "products.parent_grouped_product_id = 12")
		assert.Contains(t, sql, `ORDER BY "products"."display_order"`)
	})
}

func TestVisitor_TermFilters(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	t.Run("single field is AND combined", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"name"}, "jack", search.StartsWith)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `products.name ILIKE 'jack%'`)
	})

	t.Run("several fields are OR combined", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"name", "sku", "shortdescription"}, "jack", search.Contains)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `products.name ILIKE '%jack%'`)
		assert.Contains(t, sql, ` OR products.sku ILIKE '%jack%'`)
		assert.Contains(t, sql, ` OR products.short_description ILIKE '%jack%'`)
	})

	t.Run("exact match", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"sku"}, "SKU-1", search.ExactMatch)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `products.sku = 'SKU-1'`)
	})

	t.Run("negated filters", func(t *testing.T) {
		q := emptyQuery().
			WithFilter(search.ByField("sku", "A").Negated()).
			WithFilter(search.ByField("name", "B").WithMode(search.StartsWith).Negated())
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `products.sku <> 'A'`)
		assert.Contains(t, sql, `products.name NOT ILIKE 'B%'`)
	})

	t.Run("wildcards are escaped", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"name"}, "50%_off", search.Contains)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `'%50\%\_off%'`)
	})

	t.Run("localized names", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"name"}, "Jacke", search.Contains).WithLanguage(2)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, "EXISTS (SELECT 1 FROM localized_properties lp")
		assert.Contains(t, sql, "lp.language_id = 2")
		assert.Contains(t, sql, "lp.locale_key_group = 'Product'")
		assert.Contains(t, sql, `lp.locale_value ILIKE '%Jacke%'`)
	})

	t.Run("search term spans text columns", func(t *testing.T) {
		q := search.NewCatalogSearchQuery([]string{"searchterm"}, "x", search.Contains)
		sql, _ := render(t, v, q)
		assert.Contains(t, sql, `products.name ILIKE '%x%'`)
		assert.Contains(t, sql, ` OR products.sku ILIKE '%x%'`)
		assert.Contains(t, sql, ` OR products.short_description ILIKE '%x%'`)
	})
}

func TestVisitor_SimpleMembers(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	from, to := 1, 10

	q := emptyQuery().
		PublishedOnly(true).
		IsFreeShipping(false).
		WithProductIDs(1, 2, 3).
		WithStockQuantity(&from, &to, true, false).
		WithFilter(search.ByField("id", 99).Negated())

	sql, _ := render(t, v, q)
	assert.Contains(t, sql, "products.published = true")
	assert.Contains(t, sql, "products.is_free_shipping = false")
	assert.Contains(t, sql, "products.id IN (1,2,3)")
	assert.Contains(t, sql, "products.stock_quantity >= 1")
	assert.Contains(t, sql, "products.stock_quantity < 10")
	assert.Contains(t, sql, "products.id <> 99")
}

func TestVisitor_Availability(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	sql, _ := render(t, v, emptyQuery().AvailableOnly(true))
	assert.Contains(t, sql, "products.manage_inventory_method_id = 0")
	assert.Contains(t, sql, "products.backorder_mode_id <> 0")
	assert.Contains(t, sql, "FROM product_variant_attribute_combinations pvac")
}

func TestVisitor_DeliveryAndCondition(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	sql, _ := render(t, v, emptyQuery().WithDeliveryTimeIDs(4).WithCondition(catalog.ConditionNew, catalog.ConditionUsed))
	assert.Contains(t, sql, "products.delivery_time_id IS NOT NULL AND products.delivery_time_id = 4")
	assert.Contains(t, sql, "products.condition IN (0,20)")

	sql, _ = render(t, v, emptyQuery().WithDeliveryTimeIDs(4, 5))
	assert.Contains(t, sql, "products.delivery_time_id IN (4,5)")
}

func TestVisitor_Rating(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	from, to := 3.0, 5.0

	sql, _ := render(t, v, emptyQuery().WithRating(&from, &to))
	assert.Contains(t, sql, "products.approved_total_reviews > 0")
	assert.Contains(t, sql, averageRating+" >= 3")
	assert.Contains(t, sql, averageRating+" <= 5")

	sql, _ = render(t, v, emptyQuery().WithRating(&from, &from))
	assert.Contains(t, sql, "products.approved_total_reviews > 0 AND "+averageRating+" = 3")
}

func TestVisitor_ACLAndStores(t *testing.T) {
	t.Run("restricted", func(t *testing.T) {
		v := newVisitor(VisitorConfig{})
		sql, _ := render(t, v, emptyQuery().AllowedCustomerRoles(1, 2).HasStoreID(3))
		assert.Contains(t, sql, "NOT products.subject_to_acl OR products.id IN (SELECT acl.entity_id FROM acl_records acl WHERE acl.entity_name = 'Product' AND acl.customer_role_id IN (1,2))")
		assert.Contains(t, sql, "NOT products.limited_to_stores OR products.id IN (SELECT sm.entity_id FROM store_mappings sm WHERE sm.entity_name = 'Product' AND sm.store_id IN (3))")
	})

	t.Run("ignored", func(t *testing.T) {
		v := newVisitor(VisitorConfig{IgnoreACL: true, IgnoreMultiStore: true})
		sql, _ := render(t, v, emptyQuery().AllowedCustomerRoles(1, 2).HasStoreID(3))
		assert.NotContains(t, sql, "acl_records")
		assert.NotContains(t, sql, "store_mappings")
	})
}

func TestVisitor_Price(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	from, to := 10.0, 50.0

	sql, _ := render(t, v, emptyQuery().PriceBetween(&from, &to))
	assert.Contains(t, sql, "CASE WHEN products.special_price IS NOT NULL")
	assert.Contains(t, sql, "products.special_price_start_date_time_utc < '2024-06-01 12:00:00'")
	assert.Contains(t, sql, "products.special_price_end_date_time_utc > '2024-06-01 12:00:00'")
	assert.Contains(t, sql, "THEN products.special_price ELSE products.price END) >= '10'")
	assert.Contains(t, sql, "ELSE products.price END) <= '50'")

	sql, _ = render(t, v, emptyQuery().WithFilter(search.ByField("price", 20.0).Negated()))
	assert.Contains(t, sql, "ELSE products.price END) <> '20'")
}

func TestVisitor_Categories(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	t.Run("ids record the context category", func(t *testing.T) {
		sql, qc := render(t, v, emptyQuery().CategoryIDs(nil, 7, 8).SortBy(search.ByRelevance()))
		assert.Contains(t, sql, "EXISTS (SELECT 1 FROM product_category_mappings m WHERE m.product_id = products.id AND m.category_id IN (7,8))")
		require.NotNil(t, qc.CategoryID)
		assert.Equal(t, 7, *qc.CategoryID)
		assert.Contains(t, sql, "ORDER BY (SELECT m.display_order FROM product_category_mappings m WHERE m.product_id = products.id AND m.category_id = 7 LIMIT 1)")
	})

	t.Run("featured only", func(t *testing.T) {
		featured := true
		sql, _ := render(t, v, emptyQuery().CategoryIDs(&featured, 7))
		assert.Contains(t, sql, "m.category_id IN (7) AND m.is_featured_product = true")
	})

	t.Run("not featured", func(t *testing.T) {
		featured := false
		sql, _ := render(t, v, emptyQuery().CategoryIDs(&featured, 7))
		assert.Contains(t, sql, "m.is_featured_product = false")
	})

	t.Run("has any", func(t *testing.T) {
		sql, qc := render(t, v, emptyQuery().HasAnyCategory(true))
		assert.Contains(t, sql, "EXISTS (SELECT 1 FROM product_category_mappings m WHERE m.product_id = products.id)")
		assert.Nil(t, qc.CategoryID)
	})

	t.Run("has none", func(t *testing.T) {
		sql, qc := render(t, v, emptyQuery().HasAnyCategory(false))
		assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM product_category_mappings m WHERE m.product_id = products.id)")
		require.NotNil(t, qc.CategoryID)
		assert.Equal(t, 0, *qc.CategoryID)
	})

	t.Run("tree path", func(t *testing.T) {
		sql, qc := render(t, v, emptyQuery().WithCategoryTreePath("/1/5/", 5, nil, false))
		assert.Contains(t, sql, "JOIN categories c ON c.id = m.category_id")
		assert.Contains(t, sql, "c.tree_path LIKE '/1/5/%'")
		assert.Contains(t, sql, "LENGTH(c.tree_path) > 5")
		assert.Equal(t, 5, *qc.CategoryID)
	})

	t.Run("tree path including self", func(t *testing.T) {
		featured := true
		sql, _ := render(t, v, emptyQuery().WithCategoryTreePath("/1/", 1, &featured, true))
		assert.NotContains(t, sql, "LENGTH(c.tree_path)")
		assert.Contains(t, sql, "m.is_featured_product = true")
	})
}

func TestVisitor_ManufacturersAndTags(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	sql, qc := render(t, v, emptyQuery().ManufacturerIDs(nil, 3).WithProductTagIDs(9, 10).SortBy(search.ByRelevance()))
	assert.Contains(t, sql, "FROM product_manufacturer_mappings m WHERE m.product_id = products.id AND m.manufacturer_id IN (3)")
	assert.Contains(t, sql, "ptm.product_tag_id IN (9,10)")
	assert.Nil(t, qc.CategoryID)
	assert.Equal(t, 3, *qc.ManufacturerID)
	assert.Contains(t, sql, "m.manufacturer_id = 3 LIMIT 1)")

	sql, _ = render(t, v, emptyQuery().HasAnyManufacturer(false))
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM product_manufacturer_mappings m")
}

func TestVisitor_AvailabilityDates(t *testing.T) {
	v := newVisitor(VisitorConfig{})
	sql, _ := render(t, v, emptyQuery().AvailableByDate(fixedNow))
	assert.Contains(t, sql, "products.available_start_date_time_utc IS NULL OR products.available_start_date_time_utc <= '2024-06-01 12:00:00'")
	assert.Contains(t, sql, "products.available_end_date_time_utc IS NULL OR products.available_end_date_time_utc >= '2024-06-01 12:00:00'")
}

func TestVisitor_TypeAndVisibility(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	sql, _ := render(t, v, emptyQuery().WithProductType(catalog.ProductTypeGrouped).WithVisibility(catalog.VisibilitySearchResults))
	assert.Contains(t, sql, "products.product_type_id = 10")
	assert.Contains(t, sql, "products.visibility <= 10")

	sql, _ = render(t, v, emptyQuery().WithVisibility(catalog.VisibilityFull))
	assert.Contains(t, sql, "products.visibility = 0")
}

func TestVisitor_Sorting(t *testing.T) {
	v := newVisitor(VisitorConfig{})

	tests := []struct {
		sort search.Sort
		want string
	}{
		{search.Sort{FieldName: "name"}, `ORDER BY "products"."name"`},
		{search.Sort{FieldName: "price", Descending: true}, `ORDER BY "products"."price" DESC`},
		{search.Sort{FieldName: "createdon", Descending: true}, `ORDER BY "products"."created_on_utc" DESC`},
		{search.ByRelevance(), `ORDER BY "products"."id"`},
		{search.Sort{FieldName: "unknown"}, `ORDER BY "products"."id"`},
	}

	for _, tt := range tests {
		t.Run(tt.sort.FieldName, func(t *testing.T) {
			sql, _ := render(t, v, emptyQuery().SortBy(tt.sort))
			assert.Contains(t, sql, tt.want)
		})
	}
}
