package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the reader and theme routes. readerMiddleware runs on
// every /readers/:id route, e.g. per-reader rate limiting.
func (h *Handlers) Register(r gin.IRouter, readerMiddleware ...gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/json", h.MetricsJSON)

	r.POST("/readers", h.OpenReader)
	r.GET("/readers", h.ListReaders)

	reader := r.Group("/readers/:id", readerMiddleware...)
	reader.GET("", h.GetReader)
	reader.DELETE("", h.CloseReader)
	reader.GET("/document", h.GetDocument)
	reader.GET("/source", h.GetSource)

	reader.POST("/navigation", h.Navigate)
	reader.PUT("/appearance", h.ChangeAppearance)
	reader.POST("/search", h.Search)
	reader.DELETE("/search", h.ClearSearch)

	reader.POST("/annotations", h.AddAnnotation)
	reader.PATCH("/annotations", h.UpdateAnnotation)
	reader.DELETE("/annotations", h.RemoveAnnotations)

	reader.POST("/bookmarks", h.AddBookmark)
	reader.PATCH("/bookmarks", h.UpdateBookmark)
	reader.DELETE("/bookmarks", h.RemoveBookmarks)

	reader.POST("/selection", h.Selection)
	reader.POST("/script", h.InjectScript)

	r.GET("/themes", h.ListThemes)
	r.GET("/themes/:name", h.GetTheme)
	r.PUT("/themes/:name", h.PutTheme)
	r.DELETE("/themes/:name", h.DeleteTheme)
}
