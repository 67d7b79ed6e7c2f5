package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	group := NewDomainGroup("finance", "/finance")
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(group)
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/finance/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterUse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	group := NewDomainGroup("payroll", "/payroll")
	group.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	called := false
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		called = true
		c.Next()
	})
	r.Register(group)
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payroll/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestDomainGroupSubgroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	parent := NewDomainGroup("finance", "/finance")
	sub := parent.Group("receivables", "/receivables")
	sub.GET("", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r := NewRouter(engine)
	r.Register(parent)
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/finance/receivables", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "finance", parent.Name())
	assert.Equal(t, "/receivables", sub.Prefix())
}
