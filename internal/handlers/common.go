package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fuelsync-backend/internal/middleware"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body; on failure it has already written a 400.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID returns the {id} route variable when it is a uuid.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := mux.Vars(r)[name]
	if _, err := uuid.Parse(id); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return "", false
	}
	return id, true
}

// queryID reads an optional uuid query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.URL.Query().Get(name)
	if id == "" {
		return "", true
	}
	if _, err := uuid.Parse(id); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return "", false
	}
	return id, true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
	}
	return actor, ok
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

// recordAction adds a successful admin change to the audit trail.
func recordAction(r *http.Request, audit *services.AuditService, actor models.Actor, entry models.AdminActionLog) {
	entry.IPAddress = getIPAddress(r)
	audit.RecordAction(r.Context(), actor, entry)
}

func respond(w http.ResponseWriter, status int, data interface{}, err error) {
	if err != nil {
		utils.ErrorFrom(w, err)
		return
	}
	utils.Success(w, status, data)
}
