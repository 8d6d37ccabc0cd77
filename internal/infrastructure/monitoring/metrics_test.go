package monitoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancesDoNotShareRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordEvent("onReady")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsTotal.WithLabelValues("onReady")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EventsTotal.WithLabelValues("onReady")))
}

func TestDispatchRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordEvent("onSearch")
	m.RecordEvent("onSearch")
	m.RecordDecodeError("onReady")
	m.RecordDecodeError("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("onSearch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("onReady")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("unknown")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalEvents)
	assert.Equal(t, int64(2), snap.DroppedEvents)
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "search").Stop(StatusOK)
	NewTimer(m, "search").Stop(StatusError)
	NewTimer(nil, "search").Stop(StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("search", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("search", StatusError)))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusTimeout, StatusOf(fmt.Errorf("inject: %w", context.DeadlineExceeded)))
	assert.Equal(t, StatusCanceled, StatusOf(context.Canceled))
	assert.Equal(t, StatusError, StatusOf(errors.New("boom")))
}

func TestGauges(t *testing.T) {
	m := NewMetrics()

	m.SetSessionsActive(3)
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.ActiveSessions)
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.Greater(t, snap.UptimeSeconds, 0.0)
}

func TestMiddlewareUsesRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/readers/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/readers/rdr_a", "/readers/rdr_b", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/readers/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand("next", StatusOK, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `readerbridge_commands_total{intent="next",status="ok"} 1`)
	assert.Contains(t, string(body), "readerbridge_uptime_seconds")
}
