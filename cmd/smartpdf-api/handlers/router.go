package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/smartpdf/smartpdf/cmd/smartpdf-api/middleware"
	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/service"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, svc *service.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	h := New(logger, svc, Options{
		ResponseMode:   cfg.Server.ResponseMode,
		DefaultDPI:     cfg.Transform.DefaultDPI,
		DefaultQuality: cfg.Transform.DefaultQuality,
	})

	r.Get("/", h.Health)
	r.Get("/health", h.Health)

	r.Post("/upload", h.Upload)
	r.Post("/upload/multiple", h.UploadMultiple)

	r.Post("/merge", h.Merge)
	r.Post("/compress", h.Compress)
	r.Post("/convert/pdf-to-image", h.PDFToImage)
	r.Post("/convert/pdf-to-word", h.PDFToWord)

	r.Get("/download/{reference}", h.Download)
	r.Delete("/cleanup", h.Cleanup)

	return r
}
