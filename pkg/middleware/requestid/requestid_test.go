package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, inbound string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(headerKey, inbound)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return seen, rec.Header().Get(headerKey)
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	seen, header := run(t, "edge-42.a")
	assert.Equal(t, "edge-42.a", seen)
	assert.Equal(t, "edge-42.a", header)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	seen, header := run(t, "")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, header)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for _, bad := range []string{"has space", "new\nline", strings.Repeat("a", maxLength+1)} {
		seen, _ := run(t, bad)
		assert.NotEqual(t, bad, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	}
}
