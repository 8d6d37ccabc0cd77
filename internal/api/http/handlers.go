package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/api/middleware"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/session"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/filesystem"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	themes   *theme.Registry
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(sessions *session.Manager, themes *theme.Registry, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sessions: sessions,
		themes:   themes,
		metrics:  metrics,
		logger:   logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Reader Bridge",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"readers": h.sessions.Count(),
	}
	if h.themes != nil {
		body["themes"] = len(h.themes.List())
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// MetricsJSON returns the metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// reader resolves the :id parameter, writing the error response itself
func (h *Handlers) reader(c *gin.Context) (*session.Session, bool) {
	readerID, err := id.ParseReaderID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	s, err := h.sessions.Get(readerID)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// bind decodes a JSON body of at most limit bytes
func bind(c *gin.Context, limit int64, v interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// fail maps domain errors onto status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var upstream *filesystem.StatusError
	switch {
	case errors.Is(err, utils.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidSource),
		errors.Is(err, filesystem.ErrNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrBookmarkNotFound),
		errors.Is(err, session.ErrMenuItemNotFound),
		errors.Is(err, theme.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrNoLocation),
		errors.Is(err, theme.ErrBuiltin):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, filesystem.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrSessionLimit),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
