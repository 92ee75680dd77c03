package search

import (
	"context"
	"math"

	"github.com/storefront/backend/internal/domain/catalog"
)

// Result is one page of a catalog search
type Result struct {
	Query      *CatalogSearchQuery
	Hits       []catalog.Product
	TotalCount int64
}

// PageSize returns the effective page size, zero when the query is unpaged
func (r *Result) PageSize() int {
	if r.Query == nil || r.Query.Take <= 0 || r.Query.Take == math.MaxInt32 {
		return 0
	}
	return r.Query.Take
}

// TotalPages returns the number of pages for the total hit count
func (r *Result) TotalPages() int {
	size := r.PageSize()
	if size == 0 {
		if r.TotalCount > 0 {
			return 1
		}
		return 0
	}
	return int((r.TotalCount + int64(size) - 1) / int64(size))
}

// ProductSearcher executes catalog search queries against the product store
type ProductSearcher interface {
	Search(ctx context.Context, q *CatalogSearchQuery) (*Result, error)
}
