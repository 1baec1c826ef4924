package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"fuelsync-backend/internal/services"
	"fuelsync-backend/pkg/utils"

	log "github.com/sirupsen/logrus"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(s *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: s}
}

// SalesReport downloads sales for a date range as csv, xlsx or pdf.
// GET /v1/reports/sales?from=&to=&stationId=&format=
func (h *ReportHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	req, err := services.ParseReportRequest(stationID, q.Get("from"), q.Get("to"), q.Get("format"))
	if err != nil {
		utils.ErrorFrom(w, err)
		return
	}

	file, err := h.Service.Sales(r.Context(), actor, req)
	if err != nil {
		utils.ErrorFrom(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if file.ObjectKey != "" {
		w.Header().Set("X-Archive-Key", file.ObjectKey)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Printf("[Reports] write %s: %v", file.Name, err)
	}
}

// GET /v1/reports/archives
func (h *ReportHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Archives(r.Context(), actor)
	respond(w, http.StatusOK, list, err)
}
