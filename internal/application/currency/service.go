// Package currency serves currencies from the cache and the database and
// performs conversions and allocations on money values.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Cache is the subset of the currency cache used by the service
type Cache interface {
	Get(ctx context.Context, code string) (*valueobject.Currency, error)
	Set(ctx context.Context, c *valueobject.Currency) error
	GetPublished(ctx context.Context) ([]valueobject.Currency, error)
	SetPublished(ctx context.Context, currencies []valueobject.Currency) error
	Invalidate(ctx context.Context, code string) error
	Backend() string
}

// Service handles currency lookups and money operations
type Service struct {
	repo        currency.Repository
	cache       Cache
	primaryCode string
	metrics     *telemetry.StorefrontMetrics
}

// NewService creates a new currency service. cache may be nil.
func NewService(repo currency.Repository, cache Cache, primaryCode string, metrics *telemetry.StorefrontMetrics) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		primaryCode: normalizeCode(primaryCode),
		metrics:     metrics,
	}
}

// PrimaryCode returns the ISO code prices are stored in
func (s *Service) PrimaryCode() string {
	return s.primaryCode
}

// GetByCode returns a published currency, reading through the cache
func (s *Service) GetByCode(ctx context.Context, code string) (*valueobject.Currency, error) {
	code = normalizeCode(code)
	if len(code) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency code must be a 3 letter ISO code")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, code)
		if err != nil {
			logger.L(ctx).Warn("Currency cache read failed", zap.String("code", code), zap.Error(err))
		}
		s.metrics.RecordCurrencyCache(ctx, s.cache.Backend(), cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, c); err != nil {
			logger.L(ctx).Warn("Currency cache write failed", zap.String("code", code), zap.Error(err))
		}
	}
	return c, nil
}

// Primary returns the primary store currency
func (s *Service) Primary(ctx context.Context) (*valueobject.Currency, error) {
	c, err := s.GetByCode(ctx, s.primaryCode)
	if err != nil {
		return nil, fmt.Errorf("primary currency %s: %w", s.primaryCode, err)
	}
	return c, nil
}

// List returns all published currencies in display order
func (s *Service) List(ctx context.Context) ([]CurrencyResponse, error) {
	currencies, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]CurrencyResponse, len(currencies))
	for i := range currencies {
		result[i] = ToCurrencyResponse(&currencies[i], s.primaryCode)
	}
	return result, nil
}

func (s *Service) published(ctx context.Context) ([]valueobject.Currency, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPublished(ctx)
		if err != nil {
			logger.L(ctx).Warn("Currency list cache read failed", zap.Error(err))
		}
		s.metrics.RecordCurrencyCache(ctx, s.cache.Backend(), cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	currencies, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPublished(ctx, currencies); err != nil {
			logger.L(ctx).Warn("Currency list cache write failed", zap.Error(err))
		}
	}
	return currencies, nil
}

// Exchange converts an amount. An empty source code means the primary currency.
func (s *Service) Exchange(ctx context.Context, req ExchangeRequest) (resp *ExchangeResponse, err error) {
	defer func() { s.metrics.RecordExchange(ctx, normalizeCode(req.To), err) }()

	from, err := s.resolve(ctx, req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.GetByCode(ctx, req.To)
	if err != nil {
		return nil, err
	}

	source, err := valueobject.NewMoney(req.Amount, from)
	if err != nil {
		return nil, err
	}
	result, err := source.Exchange(to)
	if err != nil {
		if errors.Is(err, shared.ErrDivideByZero) {
			return nil, shared.NewDomainError("INVALID_RATE", fmt.Sprintf("Currency %s has no exchange rate", to.Code))
		}
		return nil, err
	}

	return &ExchangeResponse{
		Source: ToMoneyResponse(source),
		Result: ToMoneyResponse(result),
		Rate:   from.Rate.DivRound(to.Rate, 8),
	}, nil
}

// Allocate splits an amount into equal parts at currency precision
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (resp *AllocateResponse, err error) {
	c, err := s.resolve(ctx, req.Currency)
	if err != nil {
		s.metrics.RecordAllocation(ctx, normalizeCode(req.Currency), err)
		return nil, err
	}
	defer func() { s.metrics.RecordAllocation(ctx, c.Code, err) }()

	if req.Parts <= 0 {
		return nil, shared.NewDomainError("INVALID_PARTS", "Parts must be positive")
	}

	total, err := valueobject.NewMoney(req.Amount, c)
	if err != nil {
		return nil, err
	}
	parts, err := total.Allocate(req.Parts)
	if err != nil {
		return nil, err
	}

	resp = &AllocateResponse{
		Total: ToMoneyResponse(total),
		Parts: make([]MoneyResponse, len(parts)),
	}
	for i, p := range parts {
		resp.Parts[i] = ToMoneyResponse(p)
	}
	return resp, nil
}

// UpdateRate stores a new exchange rate and drops the cached entries
func (s *Service) UpdateRate(ctx context.Context, code string, req UpdateRateRequest) (*CurrencyResponse, error) {
	rate := req.Rate
	if !rate.IsPositive() {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	c, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	c.Rate = rate
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, c.Code); err != nil {
			logger.L(ctx).Warn("Currency cache invalidation failed", zap.String("code", c.Code), zap.Error(err))
		}
	}
	logger.L(ctx).Info("Currency rate updated",
		zap.String("code", c.Code),
		zap.String("rate", rate.String()),
	)
	resp := ToCurrencyResponse(c, s.primaryCode)
	return &resp, nil
}

func (s *Service) resolve(ctx context.Context, code string) (*valueobject.Currency, error) {
	if strings.TrimSpace(code) == "" {
		return s.Primary(ctx)
	}
	return s.GetByCode(ctx, code)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
