package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/session"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// accepted reports the reader's state after a command went out. Results of
// the command itself arrive later through the sandbox's messages.
func accepted(c *gin.Context, s *session.Session) {
	c.JSON(http.StatusAccepted, readerView(s))
}

// Navigate moves to the next or previous page or to a target location
func (h *Handlers) Navigate(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.NavigationRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Action {
	case "next":
		err = s.GoNext(ctx, req.KeepScrollOffset)
	case "previous":
		err = s.GoPrevious(ctx, req.KeepScrollOffset)
	case "goto":
		err = s.GoToLocation(ctx, req.Target, req.KeepScrollOffset)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// ChangeAppearance applies any of theme, font family, font size and flow
func (h *Handlers) ChangeAppearance(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.AppearanceRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var changes []func() error
	if len(req.Theme) > 0 {
		changes = append(changes, func() error { return s.ChangeTheme(ctx, req.Theme) })
	} else if req.ThemeName != "" {
		changes = append(changes, func() error { return s.ChangeThemeByName(ctx, req.ThemeName) })
	}
	if req.FontFamily != "" {
		changes = append(changes, func() error { return s.ChangeFontFamily(ctx, req.FontFamily) })
	}
	if req.FontSize != "" {
		changes = append(changes, func() error { return s.ChangeFontSize(ctx, req.FontSize) })
	}
	if req.Flow != "" {
		changes = append(changes, func() error { return s.ChangeFlow(ctx, req.Flow) })
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no appearance change requested"})
		return
	}

	for _, apply := range changes {
		if err := apply(); err != nil {
			h.fail(c, err)
			return
		}
	}
	accepted(c, s)
}

// Search starts a search; results are published in the reader state
func (h *Handlers) Search(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.SearchRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}
	q := command.SearchQuery{
		Term:      req.Term,
		Page:      req.Page,
		Limit:     req.Limit,
		SectionID: req.SectionID,
	}
	if err := s.Search(c.Request.Context(), q); err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// ClearSearch drops the host-held results
func (h *Handlers) ClearSearch(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	s.ClearSearchResults()
	c.JSON(http.StatusOK, readerView(s))
}

// AddAnnotation adds an annotation by range or by element id
func (h *Handlers) AddAnnotation(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.AnnotationRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.TagID != "":
		err = s.AddAnnotationByTagID(ctx, req.Type, req.TagID, req.Data, req.IconClass, req.Styles)
	case req.Annotation != nil:
		err = s.AddAnnotation(ctx, *req.Annotation)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "annotation or tagId is required"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// UpdateAnnotation replaces the data and styles of an annotation
func (h *Handlers) UpdateAnnotation(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.AnnotationRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.TagID != "":
		err = s.UpdateAnnotationByTagID(ctx, req.TagID, req.Data, req.Styles)
	case req.Annotation != nil:
		err = s.UpdateAnnotation(ctx, *req.Annotation, req.Data, req.Styles)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "annotation or tagId is required"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// RemoveAnnotations removes one annotation, those on a range or element,
// or every annotation of a type
func (h *Handlers) RemoveAnnotations(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.AnnotationRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.Annotation != nil:
		err = s.RemoveAnnotation(ctx, *req.Annotation)
	case req.TagID != "":
		err = s.RemoveAnnotationByTagID(ctx, req.TagID)
	case req.CfiRange != "":
		err = s.RemoveAnnotationByCfi(ctx, req.CfiRange)
	case req.Type != "":
		err = s.RemoveAnnotations(ctx, req.Type)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "annotation, tagId, cfiRange or type is required"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// AddBookmark bookmarks the given or current location
func (h *Handlers) AddBookmark(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.BookmarkRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}
	if err := s.AddBookmark(c.Request.Context(), req.Location, req.Data); err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// UpdateBookmark replaces a bookmark's data
func (h *Handlers) UpdateBookmark(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.BookmarkRequest
	if !bind(c, utils.MaxJSONSize, &req) {
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := s.UpdateBookmark(c.Request.Context(), req.ID, req.Data); err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// RemoveBookmarks removes one bookmark, or all of them when no id is given
func (h *Handlers) RemoveBookmarks(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.BookmarkRequest
	if c.Request.ContentLength != 0 && !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.ID != 0 {
		err = s.RemoveBookmark(ctx, req.ID)
	} else {
		err = s.RemoveBookmarks(ctx)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// Selection runs a custom selection menu item, or clears the selection
// when no label is given
func (h *Handlers) Selection(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.SelectionRequest
	if c.Request.ContentLength != 0 && !bind(c, utils.MaxJSONSize, &req) {
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.Label != "" {
		err = s.SelectMenuItem(ctx, req.Label)
	} else {
		err = s.RemoveSelection(ctx)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	accepted(c, s)
}

// InjectScript evaluates host-supplied JavaScript in the sandbox
func (h *Handlers) InjectScript(c *gin.Context) {
	s, ok := h.reader(c)
	if !ok {
		return
	}
	var req types.ScriptRequest
	if !bind(c, utils.MaxScriptSize+utils.MaxJSONSize, &req) {
		return
	}
	if err := s.InjectJavaScript(c.Request.Context(), req.Script); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
