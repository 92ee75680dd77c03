package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	pricingapp "github.com/storefront/backend/internal/application/pricing"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CatalogSearcher runs storefront catalog searches
type CatalogSearcher interface {
	Search(ctx context.Context, req catalogapp.SearchRequest) (*catalogapp.SearchResult, error)
}

// PriceCalculator calculates product prices for a customer
type PriceCalculator interface {
	Calculate(ctx context.Context, req pricingapp.PriceRequest) (*pricingapp.PriceResponse, error)
}

// CatalogHandler handles catalog search and product price endpoints
type CatalogHandler struct {
	BaseHandler
	searcher CatalogSearcher
	prices   PriceCalculator
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(searcher CatalogSearcher, prices PriceCalculator) *CatalogHandler {
	return &CatalogHandler{
		searcher: searcher,
		prices:   prices,
	}
}

// Search godoc
// @Summary      Search the catalog
// @Description  Searches published products visible to the customer. Guests see guest visible products only.
// @Tags         catalog
// @Produce      json
// @Param        q          query string false "Search term"
// @Param        sort       query string false "relevance, createdon, name or price"
// @Param        page       query int    false "Zero based page index"
// @Param        page_size  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductHit}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	var req catalogapp.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.CustomerRoleIDs = middleware.GetCustomerRoleIDs(c)
	req.StoreID = middleware.GetStoreID(c)

	result, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Hits, result.TotalCount, result.PageIndex, result.PageSize)
}

// Price godoc
// @Summary      Calculate a product price
// @Description  Runs the price calculation for one product, quantity and currency
// @Tags         catalog
// @Produce      json
// @Param        id        path  int    true  "Product ID"
// @Param        quantity  query int    false "Quantity"
// @Param        currency  query string false "ISO currency code"
// @Param        coupon    query string false "Coupon code"
// @Success      200 {object} dto.Response{data=pricingapp.PriceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/products/{id}/price [get]
func (h *CatalogHandler) Price(c *gin.Context) {
	var req pricingapp.PriceRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.CustomerID = middleware.GetCustomerID(c)
	req.CustomerRoleIDs = middleware.GetCustomerRoleIDs(c)
	req.StoreID = middleware.GetStoreID(c)

	price, err := h.prices.Calculate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, price)
}
