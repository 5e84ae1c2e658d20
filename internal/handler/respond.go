package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/aishifts/internal/domain"
	"github.com/set-night/aishifts/internal/middleware"
)

// respondError writes the {error} body for err and logs it.
func respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	msg := domain.PublicMessage(err)

	switch {
	case errors.Is(err, domain.ErrAttachmentTooLong):
		status, msg = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrItemNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrEmptyComment):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrCatalogDisabled):
		status, msg = http.StatusServiceUnavailable, err.Error()
	}

	attrs := []any{"op", op, "status", status, "error", err, "request_id", middleware.GetRequestID(c.Request.Context())}
	switch {
	case status < 500:
		slog.Debug("request rejected", attrs...)
	case domain.IsProviderError(err):
		slog.Warn("provider failure", attrs...)
	default:
		slog.Error("request failed", attrs...)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// limitBody caps upload size for multipart endpoints.
func (h *Handler) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
		c.Next()
	}
}

// readAttachment returns the optional "image" upload. Requests that are not
// multipart simply carry no attachment.
func readAttachment(c *gin.Context) (*domain.Attachment, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, domain.ErrAttachmentTooLong
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, err
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{
		Name:      fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}
