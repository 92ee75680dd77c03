// Package pricing calculates storefront product prices by running the
// calculator pipeline over a product loaded with its pricing data.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CurrencyProvider resolves the currencies a calculation needs
type CurrencyProvider interface {
	Primary(ctx context.Context) (*valueobject.Currency, error)
	GetByCode(ctx context.Context, code string) (*valueobject.Currency, error)
}

// Config holds storefront pricing settings
type Config struct {
	RoundPrices    bool
	DefaultStoreID int
	// TaxSuffixFormat is appended to formatted prices, e.g. "%s incl. tax"
	TaxSuffixFormat string
}

// PriceService calculates product prices
type PriceService struct {
	products   catalog.ProductRepository
	discounts  discount.Repository
	validator  *discount.Validator
	currencies CurrencyProvider
	pipeline   *pricing.Pipeline
	config     Config
	metrics    *telemetry.StorefrontMetrics
	now        func() time.Time
}

// NewPriceService creates a new PriceService
func NewPriceService(
	products catalog.ProductRepository,
	discounts discount.Repository,
	validator *discount.Validator,
	currencies CurrencyProvider,
	pipeline *pricing.Pipeline,
	config Config,
	metrics *telemetry.StorefrontMetrics,
) *PriceService {
	return &PriceService{
		products:   products,
		discounts:  discounts,
		validator:  validator,
		currencies: currencies,
		pipeline:   pipeline,
		config:     config,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Calculate returns the price of one unit and the subtotal for the quantity
func (s *PriceService) Calculate(ctx context.Context, req PriceRequest) (resp *PriceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "PriceService", "Calculate",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
	)
	defer span.End()

	start := s.now()
	currencyCode := req.CurrencyCode
	defer func() {
		telemetry.RecordError(span, err)
		s.metrics.RecordPriceCalculation(ctx, currencyCode, time.Since(start), err)
	}()

	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.StoreID <= 0 {
		req.StoreID = s.config.DefaultStoreID
	}

	product, err := s.products.FindByIDWithPricing(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Published {
		return nil, shared.ErrNotFound
	}

	primary, err := s.currencies.Primary(ctx)
	if err != nil {
		return nil, err
	}
	target := primary
	if req.CurrencyCode != "" {
		if target, err = s.currencies.GetByCode(ctx, req.CurrencyCode); err != nil {
			return nil, err
		}
	}
	currencyCode = target.Code

	discounts, err := s.applicableDiscounts(ctx, product, req)
	if err != nil {
		return nil, err
	}

	pctx := pricing.NewPriceCalculationContext(product, pricing.PriceCalculationOptions{
		PrimaryCurrency:      primary,
		TargetCurrency:       target,
		IgnoreDiscounts:      req.IgnoreDiscounts,
		DetermineLowestPrice: req.LowestPrice,
		RoundPrices:          s.config.RoundPrices,
		TaxSuffixFormat:      s.config.TaxSuffixFormat,
		Now:                  s.now().UTC(),
	})
	pctx.Quantity = req.Quantity
	pctx.Customer = pricing.Customer{ID: req.CustomerID, RoleIDs: req.CustomerRoleIDs}
	pctx.StoreID = req.StoreID
	pctx.SelectedAttributeValueIDs = req.AttributeValueIDs
	pctx.CouponCode = req.CouponCode
	pctx.Discounts = discounts

	cc := pricing.NewCalculatorContext(pctx, product.Price)
	if err := s.pipeline.Run(ctx, cc); err != nil {
		return nil, fmt.Errorf("price pipeline: %w", err)
	}

	price, err := pricing.NewCalculatedPrice(cc)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDiscountsApplied(ctx, len(price.AppliedDiscounts))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCurrency, target.Code,
		telemetry.SpanAttrQuantity, req.Quantity,
		telemetry.SpanAttrRegularPrice, price.RegularPrice.Amount().String(),
		telemetry.SpanAttrFinalPrice, price.FinalPrice.Amount().String(),
	)
	logger.L(ctx).Debug("Price calculated",
		zap.Int("product_id", product.ID),
		zap.Int("quantity", req.Quantity),
		zap.String("currency", target.Code),
		zap.String("final_price", price.FinalPrice.Amount().String()),
		zap.Int("discounts", len(price.AppliedDiscounts)),
	)

	return ToPriceResponse(price), nil
}

// applicableDiscounts loads the discounts assigned to the product, its
// categories and manufacturers and keeps those valid for the customer
func (s *PriceService) applicableDiscounts(ctx context.Context, product *catalog.Product, req PriceRequest) ([]*discount.Discount, error) {
	if req.IgnoreDiscounts || s.discounts == nil {
		return nil, nil
	}

	candidates, err := s.discounts.FindAppliedToProduct(ctx, product.ID, product.CategoryIDs(), product.ManufacturerIDs())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load discounts: %w", err)
	}
	if len(candidates) == 0 || s.validator == nil {
		return candidates, nil
	}
	return s.validator.Filter(ctx, candidates, req.CustomerID, req.CouponCode)
}
