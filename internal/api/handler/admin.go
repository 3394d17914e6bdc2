package handler

import (
	"net/http"

	"github.com/tappay/wallet-api/internal/service"
)

// AdminHandler serves the cross-session operational aggregates.
type AdminHandler struct {
	metrics *service.MetricsService
}

func NewAdminHandler(metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{metrics: metrics}
}

// Metrics returns the point-in-time aggregate snapshot. Routing enforces the
// ADMIN role.
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.metrics.Collect())
}
