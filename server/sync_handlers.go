package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"StationFM/syncer"
)

// SyncStatusHandler GET /api/sync/status
func (h *APIHandler) SyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.runner.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// RunSyncHandler POST /api/sync/{tier}/run
// ?force=true 时绕过并发保护和各任务自身的节流
func (h *APIHandler) RunSyncHandler(w http.ResponseWriter, r *http.Request) {
	tier := syncer.Tier(mux.Vars(r)["tier"])
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if err := h.runner.RunTier(r.Context(), tier, force); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tier": tier, "ran": true})
}
