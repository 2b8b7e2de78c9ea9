package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/domain"
)

// Resolver turns a source URL into a preview.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*domain.Preview, error)
}

// PreviewHandler serves social preview image lookups.
type PreviewHandler struct {
	resolver Resolver
	log      logrus.FieldLogger
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(resolver Resolver, logger logrus.FieldLogger) *PreviewHandler {
	return &PreviewHandler{
		resolver: resolver,
		log:      logger.WithField("component", "preview_handler"),
	}
}

// SocialImage handles GET /api/social-image?url=...
// It answers 400 when the url parameter is missing or unusable. Every other
// outcome is 200 with {"imageUrl": ...}, where null means no preview.
func (h *PreviewHandler) SocialImage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")

	preview, err := h.resolver.Resolve(r.Context(), rawURL)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, h.log, http.StatusBadRequest, ve.Message)
			return
		}
		h.log.WithError(err).WithField("url", rawURL).Error("Unexpected resolver error")
		preview = nil
	}
	if preview == nil {
		preview = domain.NewPreview("")
	}

	writeJSON(w, h.log, http.StatusOK, preview)
}
