package search

import (
	"time"

	"github.com/storefront/backend/internal/domain/search"
)

// QueryContext carries state collected while visiting a query. CategoryID
// and ManufacturerID are taken from the first category or manufacturer
// filter and drive relevance sorting.
type QueryContext struct {
	Query            *search.CatalogSearchQuery
	CategoryID       *int
	ManufacturerID   *int
	Now              time.Time
	LanguageID       int
	IgnoreACL        bool
	IgnoreMultiStore bool
}

func (c *QueryContext) hasCategory() bool {
	return c.CategoryID != nil && *c.CategoryID > 0
}

func (c *QueryContext) hasManufacturer() bool {
	return c.ManufacturerID != nil && *c.ManufacturerID > 0
}
