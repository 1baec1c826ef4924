package handlers

import (
	"context"
	"net/http"
	"time"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/readings"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/internal/timeutil"
	"fuelsync-backend/pkg/utils"
)

// ReadingAPI is the part of services.ReadingService the handler needs.
type ReadingAPI interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateReadingRequest) (*models.ReadingCreated, error)
	Preview(ctx context.Context, actor models.Actor, req *models.ReadingPreviewRequest) (*readings.Result, error)
	CanCreate(ctx context.Context, actor models.Actor, nozzleID string) (*models.CanCreateResult, error)
	List(ctx context.Context, actor models.Actor, f models.ReadingFilter) ([]models.NozzleReading, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.NozzleReading, error)
	Void(ctx context.Context, actor models.Actor, id, reason string) error
}

type ReadingHandler struct {
	Service ReadingAPI
	Audit   *services.AuditService
}

func NewReadingHandler(s ReadingAPI) *ReadingHandler {
	return &ReadingHandler{Service: s}
}

// CreateReading records a meter reading and its derived sale. A large
// increase without confirmLargeDelta answers 409 with requiresConfirmation.
// POST /v1/nozzle-readings
func (h *ReadingHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateReadingRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := h.Service.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, created, err)
}

// GET /v1/nozzle-readings?stationId=&pumpId=&nozzleId=&from=&to=&limit=
func (h *ReadingHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var f models.ReadingFilter
	if f.StationID, ok = queryID(w, r, "stationId"); !ok {
		return
	}
	if f.PumpID, ok = queryID(w, r, "pumpId"); !ok {
		return
	}
	if f.NozzleID, ok = queryID(w, r, "nozzleId"); !ok {
		return
	}
	if f.From, ok = queryTime(w, r, "from", false); !ok {
		return
	}
	if f.To, ok = queryTime(w, r, "to", true); !ok {
		return
	}
	f.Limit = queryInt(r, "limit", 0)

	list, err := h.Service.List(r.Context(), actor, f)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/nozzle-readings/{id}
func (h *ReadingHandler) GetReading(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reading, err := h.Service.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, reading, err)
}

// PreviewReading validates a candidate without storing it.
// POST /v1/nozzle-readings/preview
func (h *ReadingHandler) PreviewReading(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.ReadingPreviewRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.Service.Preview(r.Context(), actor, &req)
	respond(w, http.StatusOK, result, err)
}

// GET /v1/nozzle-readings/can-create/{nozzleId}
func (h *ReadingHandler) CanCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	nozzleID, ok := pathID(w, r, "nozzleId")
	if !ok {
		return
	}
	result, err := h.Service.CanCreate(r.Context(), actor, nozzleID)
	respond(w, http.StatusOK, result, err)
}

// POST /v1/nozzle-readings/{id}/void
func (h *ReadingHandler) VoidReading(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.VoidReadingRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.Service.Void(r.Context(), actor, id, req.Reason)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionVoid, TargetType: "nozzle_reading", TargetID: id, Description: req.Reason,
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": "Reading voided"}, err)
}

// queryTime accepts RFC3339 or a plain IST date. A plain date used as an upper
// bound covers the whole day.
func queryTime(w http.ResponseWriter, r *http.Request, name string, endOfDay bool) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, true
	}
	t, err := timeutil.ParseDate(v)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return nil, false
	}
	if endOfDay {
		t = timeutil.EndOfDay(t)
	}
	return &t, true
}
