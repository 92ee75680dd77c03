package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("registers GET, POST and PUT routes", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			PUT("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/test/items").Code)
		assert.Equal(t, "7", serve(engine, http.MethodPut, "/api/v1/test/items/7").Body.String())
	})

	t.Run("empty path maps to the prefix", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			GET("", func(c *gin.Context) { c.String(http.StatusOK, "root") }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "root", serve(engine, http.MethodGet, "/api/v1/test").Body.String())
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		var order []string
		NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) {
				order = append(order, "middleware")
				c.Next()
			}).
			GET("/items", func(c *gin.Context) {
				order = append(order, "handler")
				c.Status(http.StatusOK)
			}).
			RegisterRoutes(engine.Group("/api/v1"))

		serve(engine, http.MethodGet, "/api/v1/test/items")

		assert.Equal(t, []string{"middleware", "handler"}, order)
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("catalog", "/catalog").GET("/search", func(c *gin.Context) {
		c.String(http.StatusOK, "catalog")
	}))
	r.Register(NewDomainGroup("currencies", "/currencies").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "currencies")
	}))
	r.Setup()

	assert.Equal(t, "catalog", serve(engine, http.MethodGet, "/api/v1/catalog/search").Body.String())
	assert.Equal(t, "currencies", serve(engine, http.MethodGet, "/api/v1/currencies").Body.String())
}
