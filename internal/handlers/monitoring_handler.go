package handlers

import (
	"context"
	"net/http"
	"time"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/realtime"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/pkg/utils"
)

// ObjectStore is the health surface of the report archive bucket.
type ObjectStore interface {
	Ping(ctx context.Context) error
}

// MonitoringHandler serves the superadmin view of the running instance.
type MonitoringHandler struct {
	Dashboard *services.DashboardService
	Hub       *realtime.Hub
	Storage   ObjectStore
}

func NewMonitoringHandler(dashboard *services.DashboardService, hub *realtime.Hub, storage ObjectStore) *MonitoringHandler {
	return &MonitoringHandler{Dashboard: dashboard, Hub: hub, Storage: storage}
}

type monitoringStatus struct {
	System          *models.SystemHealth `json:"system"`
	RealtimeClients int                  `json:"realtimeClients"`
	Storage         string               `json:"storage"`
}

// GET /v1/analytics/system-health
func (h *MonitoringHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	system, err := h.Dashboard.SystemHealth(r.Context(), actor)
	if err != nil {
		utils.ErrorFrom(w, err)
		return
	}
	utils.Success(w, http.StatusOK, monitoringStatus{
		System:          system,
		RealtimeClients: h.Hub.ClientCount(),
		Storage:         h.storageStatus(r.Context()),
	})
}

func (h *MonitoringHandler) storageStatus(ctx context.Context) string {
	if h.Storage == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := h.Storage.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
