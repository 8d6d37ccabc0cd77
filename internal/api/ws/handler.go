package ws

import (
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/session"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
)

//go:embed assets/bridge.js
var bridgeScript []byte

// BridgeScript returns the shim that defines window.ReaderHost in the page
func BridgeScript() []byte { return bridgeScript }

// Config tunes the socket lifecycle
type Config struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
	// ReadLimit bounds one inbound frame; the dispatcher applies its own
	// event size check on top
	ReadLimit int64
	// CheckOrigin is passed to the upgrader; nil allows every origin
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns the socket defaults
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
		PongTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		ReadLimit:    16 << 20,
	}
}

// Handler bridges a browser-hosted sandbox to its reading session
type Handler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
	cfg      Config
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, cfg Config) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = DefaultConfig().PongTimeout
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		sessions: sessions,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger
func (h *Handler) WithLogger(logger *zap.Logger) *Handler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithMetrics sets the metrics collector
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// ServeBridge serves the bridge shim for a reader document
func (h *Handler) ServeBridge(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", bridgeScript)
}

// HandleConnection upgrades the request and attaches the socket to the
// reader named by the :id parameter. Inbound text frames are controller
// messages, dispatched in arrival order.
func (h *Handler) HandleConnection(c *gin.Context) {
	readerID, err := id.ParseReaderID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessions.Get(readerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("reader_id", readerID.String()), zap.Error(err))
		return
	}

	conn := newConn(ws, h.cfg.WriteTimeout, func(msgType string) {
		h.record("outbound", msgType)
	})
	log := h.logger.With(
		zap.String("reader_id", readerID.String()),
		zap.String("conn_id", conn.ID().String()),
	)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	detach := sess.Attach(conn)
	defer detach()
	log.Info("Sandbox attached")

	ctx := c.Request.Context()
	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done, log)

	if h.cfg.ReadLimit > 0 {
		ws.SetReadLimit(h.cfg.ReadLimit)
	}
	_ = ws.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))

		if messageType != websocket.TextMessage {
			h.record("inbound", "binary")
			continue
		}
		h.record("inbound", "event")

		if err := sess.HandleMessage(ctx, data); err != nil {
			if errors.Is(err, session.ErrClosed) {
				conn.close(websocket.CloseNormalClosure, "reader closed")
				break
			}
			var de *dispatch.DecodeError
			if !errors.As(err, &de) {
				log.Warn("Message handling failed", zap.Error(err))
			}
		}
	}

	conn.close(websocket.CloseNormalClosure, "")
	log.Info("Sandbox detached")
}

func (h *Handler) keepAlive(conn *Conn, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				if !errors.Is(err, ErrConnClosed) {
					log.Debug("Ping failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
