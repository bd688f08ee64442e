package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/vickyyylii/pixel-haven/internal/platform/httpx"
)

// Handler exposes dashboard stats over HTTP. Concurrent requests for the
// same payload are collapsed into a single computation.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

// NewHandler constructs a dashboard handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	result, err, _ := h.group.Do("stats", func() (any, error) {
		return h.service.Stats(r.Context())
	})
	if err != nil {
		h.logger.Error("compute dashboard stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
