package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"ogresolver/internal/api/handler"
	mw "ogresolver/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(previewHandler *handler.PreviewHandler, healthHandler *handler.HealthHandler, logger logrus.FieldLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS)

	r.Get("/health", healthHandler.Live)
	r.Get("/api/social-image", previewHandler.SocialImage)

	return r
}
