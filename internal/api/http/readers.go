package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// openBodyLimit leaves room for an inline base64 source plus options
const openBodyLimit = utils.MaxSourceLength + utils.MaxJSONSize

// OpenReader opens a reading session
func (h *Handlers) OpenReader(c *gin.Context) {
	var req types.OpenRequest
	if !bind(c, openBodyLimit, &req) {
		return
	}

	s, err := h.sessions.Open(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	view := readerView(s)
	c.Header("Location", "/readers/"+view.ID)
	c.JSON(http.StatusCreated, view)
}

// ListReaders lists open readers ordered by creation
func (h *Handlers) ListReaders(c *gin.Context) {
	readers := h.sessions.List()
	views := make([]ReaderView, 0, len(readers))
	for _, s := range readers {
		views = append(views, readerView(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"readers": views,
		"count":   len(views),
	})
}

// GetReader returns a reader's state
func (h *Handlers) GetReader(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, readerView(s))
}

// CloseReader closes a reader
func (h *Handlers) CloseReader(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(s.ID()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDocument serves the bootstrap document the sandbox loads
func (h *Handlers) GetDocument(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	doc := s.Document()
	etag := `"` + doc.ETag + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// GetSource streams a local source file to the sandbox
func (h *Handlers) GetSource(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	src := s.Source()
	if !src.Local() {
		c.JSON(http.StatusNotFound, gin.H{"error": "source is not served by this host"})
		return
	}
	if src.MimeType != "" {
		c.Header("Content-Type", src.MimeType)
	}
	c.File(src.Path)
}
