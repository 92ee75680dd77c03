package catalog

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GuestRoleID is the customer role of anonymous visitors
const GuestRoleID = 4

// MaxPageIndex is the deepest page a search can request
const MaxPageIndex = 10000

// SearchConfig holds storefront search settings
type SearchConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	DefaultStoreID  int
}

// SearchService runs storefront catalog searches
type SearchService struct {
	searcher   search.ProductSearcher
	categories catalog.CategoryRepository
	config     SearchConfig
	metrics    *telemetry.StorefrontMetrics
	now        func() time.Time
}

// SearchOption configures a SearchService
type SearchOption func(*SearchService)

// WithCategories enables subcategory searches through the category tree
func WithCategories(repo catalog.CategoryRepository) SearchOption {
	return func(s *SearchService) {
		s.categories = repo
	}
}

// NewSearchService creates a new SearchService
func NewSearchService(searcher search.ProductSearcher, config SearchConfig, metrics *telemetry.StorefrontMetrics, opts ...SearchOption) *SearchService {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 24
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	s := &SearchService{
		searcher: searcher,
		config:   config,
		metrics:  metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildQuery turns a request into a search query restricted to what the
// storefront may show: published, searchable, available by date, mapped to
// the store and visible for the customer roles.
func (s *SearchService) BuildQuery(req SearchRequest) *search.CatalogSearchQuery {
	fields := req.Fields
	if len(fields) == 0 {
		fields = []string{search.KnownFilters.SearchTerm}
	}

	q := search.NewCatalogSearchQuery(fields, req.Term, parseMode(req.Mode)).
		OriginatesFrom("Search/Search").
		WithLanguage(req.LanguageID).
		PublishedOnly(true).
		WithVisibility(catalog.VisibilitySearchResults).
		AvailableByDate(s.now().UTC())

	if req.CurrencyCode != "" {
		q.WithCurrency(req.CurrencyCode)
	}

	storeID := req.StoreID
	if storeID <= 0 {
		storeID = s.config.DefaultStoreID
	}
	q.HasStoreID(storeID)

	roles := req.CustomerRoleIDs
	if len(roles) == 0 {
		roles = []int{GuestRoleID}
	}
	q.AllowedCustomerRoles(roles...)

	switch {
	case req.CategoryTreePath != "" && len(req.CategoryIDs) == 1:
		q.WithCategoryTreePath(req.CategoryTreePath, req.CategoryIDs[0], nil, true)
	case len(req.CategoryIDs) > 0:
		q.CategoryIDs(nil, req.CategoryIDs...)
	}
	if len(req.ManufacturerIDs) > 0 {
		q.ManufacturerIDs(nil, req.ManufacturerIDs...)
	}
	if len(req.TagIDs) > 0 {
		q.WithProductTagIDs(req.TagIDs...)
	}
	if len(req.DeliveryTimeIDs) > 0 {
		q.WithDeliveryTimeIDs(req.DeliveryTimeIDs...)
	}
	if req.PriceFrom != nil || req.PriceTo != nil {
		q.PriceBetween(req.PriceFrom, req.PriceTo)
	}
	if req.RatingFrom != nil {
		q.WithRating(req.RatingFrom, nil)
	}
	q.AvailableOnly(req.AvailableOnly)
	if req.HomePageOnly {
		q.HomePageProductsOnly(true)
	}

	switch req.Sort {
	case "", "relevance":
		q.SortBy(search.ByRelevance())
	default:
		q.SortBy(search.Sort{FieldName: req.Sort, Descending: req.Descending})
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.config.DefaultPageSize
	}
	pageSize = min(pageSize, s.config.MaxPageSize)
	pageIndex := min(max(req.PageIndex, 0), MaxPageIndex)
	return q.Slice(pageIndex*pageSize, pageSize)
}

// Search executes the request and returns one page of hits
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (result *SearchResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CatalogSearchService", "Search",
		telemetry.WithAttribute(telemetry.SpanAttrSearchTerm, req.Term),
	)
	defer span.End()

	start := s.now()
	var total int64
	defer func() {
		telemetry.RecordError(span, err)
		s.metrics.RecordSearch(ctx, time.Since(start), total, err)
	}()

	if req.SubCategories && len(req.CategoryIDs) == 1 && s.categories != nil {
		var category *catalog.Category
		category, err = s.categories.FindByID(ctx, req.CategoryIDs[0])
		if err != nil {
			return nil, err
		}
		req.CategoryTreePath = category.TreePath
	}

	q := s.BuildQuery(req)
	telemetry.SetAttributes(span, telemetry.SpanAttrFilterCount, len(q.Filters))

	res, err := s.searcher.Search(ctx, q)
	if err != nil {
		logger.L(ctx).Error("Catalog search failed", zap.String("term", req.Term), zap.Error(err))
		return nil, err
	}
	total = res.TotalCount
	telemetry.SetAttributes(span, telemetry.SpanAttrResultCount, total)

	result = &SearchResult{
		Hits:       make([]ProductHit, 0, len(res.Hits)),
		TotalCount: res.TotalCount,
		PageIndex:  q.PageIndex(),
		PageSize:   res.PageSize(),
		TotalPages: res.TotalPages(),
	}
	for i := range res.Hits {
		result.Hits = append(result.Hits, ToProductHit(&res.Hits[i]))
	}

	logger.L(ctx).Debug("Catalog search executed",
		zap.String("term", req.Term),
		zap.Int("filters", len(q.Filters)),
		zap.Int64("total", res.TotalCount),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func parseMode(mode string) search.Mode {
	switch mode {
	case "exact":
		return search.ExactMatch
	case "startswith":
		return search.StartsWith
	default:
		return search.Contains
	}
}
