package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ocrdoc/internal/ingest"
	"ocrdoc/internal/language"
	"ocrdoc/internal/layout"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/pipeline"
	"ocrdoc/internal/render"
	"ocrdoc/internal/session"
	"ocrdoc/pkg/models"
	"ocrdoc/pkg/services"
)

const sessionKey = "session"

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrImageIndex):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNoResults):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, layout.ErrInvalidOptions),
		errors.Is(err, language.ErrUnknownLanguage),
		errors.Is(err, language.ErrNoLanguages),
		errors.Is(err, pipeline.ErrNoImages),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// loadSession resolves :id and stores the session in the context.
func (h *Handler) loadSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (h *Handler) listLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": language.All(),
		"defaults":  language.DefaultCodes,
	})
}

func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Snapshot())
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(current(c).ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadImages accepts many "files" parts. Either every file is accepted or
// none is.
func (h *Handler) uploadImages(c *gin.Context) {
	s := current(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			abortWithError(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "expected multipart form with \"files\""})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	images := make([]models.ImageInput, 0, len(files))
	for _, fh := range files {
		img, err := readUpload(fh)
		if err != nil {
			abortWithError(c, err)
			return
		}
		images = append(images, img)
	}
	if err := s.AddImages(images...); err != nil {
		abortWithError(c, err)
		return
	}

	log := logger.WithSession("api", s.ID)
	log.Info().Int("files", len(images)).Msg("Images uploaded")
	c.JSON(http.StatusOK, s.Snapshot())
}

func readUpload(fh *multipart.FileHeader) (models.ImageInput, error) {
	f, err := fh.Open()
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return ingest.FromReader(fh.Filename, f)
}

func (h *Handler) removeImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "image index must be an integer"})
		return
	}
	s := current(c)
	if err := s.RemoveImage(index); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) clearImages(c *gin.Context) {
	s := current(c)
	if err := s.ClearImages(); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

type languagesRequest struct {
	Languages []string `json:"languages" binding:"required"`
}

func (h *Handler) setLanguages(c *gin.Context) {
	var req languagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := current(c)
	if err := s.SetLanguages(req.Languages); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// setOptions merges the JSON body over the current options, so partial
// updates keep the remaining fields.
func (h *Handler) setOptions(c *gin.Context) {
	s := current(c)
	opts := s.Options()
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.SetOptions(opts); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) process(c *gin.Context) {
	s := current(c)
	if err := s.Start(h.baseCtx); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.Snapshot())
}

// streamProgress sends progress events until the batch finishes or the
// client goes away. Only the latest unread event is delivered.
func (h *Handler) streamProgress(c *gin.Context) {
	events, cancel := current(c).Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", ev)
			return !ev.Done && ev.Error == ""
		case <-ctx.Done():
			return false
		}
	})
}

type resultsResponse struct {
	Results []models.OCRResult  `json:"results"`
	Stats   services.BatchStats `json:"stats"`
}

// results returns the results; source images are omitted unless
// ?images=true is given.
func (h *Handler) results(c *gin.Context) {
	results, err := current(c).Results()
	if err != nil {
		abortWithError(c, err)
		return
	}
	if c.Query("images") != "true" {
		for i := range results {
			results[i].SourceImage = ""
		}
	}
	c.JSON(http.StatusOK, resultsResponse{
		Results: results,
		Stats:   services.ComputeStats(results),
	})
}

func (h *Handler) combinedText(c *gin.Context) {
	text, err := current(c).CombinedText()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (h *Handler) export(c *gin.Context) {
	format, err := render.ParseFormat(c.Param("format"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	base := c.DefaultQuery("name", h.cfg.ExportBaseName)

	artifact, err := current(c).Export(c.Request.Context(), format, base)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *Handler) reset(c *gin.Context) {
	s := current(c)
	if err := s.Reset(); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}
