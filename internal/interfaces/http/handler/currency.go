package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	currencyapp "github.com/storefront/backend/internal/application/currency"
)

// CurrencyService lists currencies and does money arithmetic for clients
type CurrencyService interface {
	List(ctx context.Context) ([]currencyapp.CurrencyResponse, error)
	Exchange(ctx context.Context, req currencyapp.ExchangeRequest) (*currencyapp.ExchangeResponse, error)
	Allocate(ctx context.Context, req currencyapp.AllocateRequest) (*currencyapp.AllocateResponse, error)
	UpdateRate(ctx context.Context, code string, req currencyapp.UpdateRateRequest) (*currencyapp.CurrencyResponse, error)
}

type currencyCodeURI struct {
	Code string `uri:"code" binding:"required,len=3"`
}

// CurrencyHandler handles currency and money endpoints
type CurrencyHandler struct {
	BaseHandler
	currencies CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencies CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencies: currencies}
}

// List godoc
// @Summary      List published currencies
// @Tags         currencies
// @Produce      json
// @Success      200 {object} dto.Response{data=[]currencyapp.CurrencyResponse}
// @Router       /currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	currencies, err := h.currencies.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, currencies)
}

// Exchange godoc
// @Summary      Convert an amount between currencies
// @Description  An empty source currency means the primary store currency
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Param        request body currencyapp.ExchangeRequest true "Amount and currencies"
// @Success      200 {object} dto.Response{data=currencyapp.ExchangeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /currencies/exchange [post]
func (h *CurrencyHandler) Exchange(c *gin.Context) {
	var req currencyapp.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.currencies.Exchange(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Allocate godoc
// @Summary      Split an amount into parts
// @Description  Parts differ by at most one smallest unit and sum to the amount
// @Tags         money
// @Accept       json
// @Produce      json
// @Param        request body currencyapp.AllocateRequest true "Amount, currency and parts"
// @Success      200 {object} dto.Response{data=currencyapp.AllocateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /money/allocate [post]
func (h *CurrencyHandler) Allocate(c *gin.Context) {
	var req currencyapp.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.currencies.Allocate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateRate godoc
// @Summary      Set a currency exchange rate
// @Description  Requires the administrator role. Cached currency data is dropped.
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code    path string                        true "ISO currency code"
// @Param        request body currencyapp.UpdateRateRequest true "New rate"
// @Success      200 {object} dto.Response{data=currencyapp.CurrencyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /currencies/{code}/rate [put]
func (h *CurrencyHandler) UpdateRate(c *gin.Context) {
	var uri currencyCodeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}
	var req currencyapp.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.currencies.UpdateRate(c.Request.Context(), uri.Code, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
