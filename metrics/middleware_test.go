package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	r := newTestRouter()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/posts/:id", "200"))
	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts/"+id, http.NoBody))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/posts/:id", "200"))
	assert.Equal(t, 3.0, after-before)
	assert.NotZero(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestMiddleware_StatusAndUnknownPath(t *testing.T) {
	r := newTestRouter()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/fail", http.NoBody))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/fail", "500")), 1.0)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")), 1.0)
}

func TestIndexMetricsRegistered(t *testing.T) {
	before := testutil.ToFloat64(IndexPropagationFailures.WithLabelValues("UPSERT"))
	IndexPropagationFailures.WithLabelValues("UPSERT").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(IndexPropagationFailures.WithLabelValues("UPSERT")))

	OutboxPending.Set(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(OutboxPending))
}
