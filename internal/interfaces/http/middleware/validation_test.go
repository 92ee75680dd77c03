package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allocateBody struct {
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Parts    int    `json:"parts" binding:"required,min=1,max=1000"`
}

type searchQuery struct {
	Mode     string `form:"mode" binding:"omitempty,oneof=exact startswith contains"`
	PageSize int    `form:"page_size" binding:"min=0"`
}

func validationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/api/v1/money/allocate", func(c *gin.Context) {
		var req allocateBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	router.GET("/api/v1/catalog/search", func(c *gin.Context) {
		var req searchQuery
		if err := c.ShouldBindQuery(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleValidationError_JSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := validationRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/money/allocate", strings.NewReader(`{"currency":"EURO","parts":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-val-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-val-1", resp.Error.RequestID)

	messages := map[string]string{}
	for _, d := range resp.Error.Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "Must be exactly 3 characters", messages["currency"])
	assert.Equal(t, "This field is required", messages["parts"])
}

func TestHandleValidationError_FormFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := validationRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search?mode=fuzzy", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "mode", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be one of: exact startswith contains", resp.Error.Details[0].Message)
}

func TestHandleValidationError_MalformedInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := validationRouter()

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/money/allocate", strings.NewReader(`{"parts":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Empty(t, resp.Error.Details[0].Field)
	})

	t.Run("number that does not parse", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search?page_size=ten", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid request passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search?mode=exact&page_size=10", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
