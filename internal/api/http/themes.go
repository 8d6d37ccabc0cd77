package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// ListThemes lists the named themes
func (h *Handlers) ListThemes(c *gin.Context) {
	if h.themes == nil {
		c.JSON(http.StatusOK, gin.H{"themes": []theme.Definition{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"themes": h.themes.List()})
}

// GetTheme returns one named theme
func (h *Handlers) GetTheme(c *gin.Context) {
	if h.themes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "themes disabled"})
		return
	}
	def, err := h.themes.Get(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// PutTheme registers or replaces a named theme
func (h *Handlers) PutTheme(c *gin.Context) {
	if h.themes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "themes disabled"})
		return
	}
	var def theme.Definition
	if !bind(c, utils.MaxJSONSize, &def) {
		return
	}
	def.ID = c.Param("name")
	if err := h.themes.Register(def); err != nil {
		h.fail(c, err)
		return
	}
	stored, err := h.themes.Get(def.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// DeleteTheme removes a custom theme
func (h *Handlers) DeleteTheme(c *gin.Context) {
	if h.themes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "themes disabled"})
		return
	}
	if err := h.themes.Delete(c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
