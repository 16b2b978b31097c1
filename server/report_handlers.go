package server

import (
	"net/http"

	"StationFM/cache"
	"StationFM/core/report"
	"StationFM/logger"
)

// duplicateReportResponse 重复报告的对外视图
type duplicateReportResponse struct {
	StationID int64            `json:"station_id"`
	Cached    bool             `json:"cached"`
	Groups    []duplicateGroup `json:"groups"`
}

type duplicateGroup struct {
	Media []mediaResponse `json:"media"`
}

// GetDuplicatesHandler GET /api/stations/{station_id}/reports/duplicates
// 优先读缓存里的报告，未命中时现场扫描
func (h *APIHandler) GetDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	station, err := h.stationFromRequest(r)
	if err != nil {
		writeErrorStatus(w, http.StatusNotFound, err.Error())
		return
	}

	var groups []report.DuplicateGroup
	cached, err := cache.FetchDuplicateReport(r.Context(), station.ID, &groups)
	if err != nil {
		// 缓存故障时退回现场扫描
		logger.Warn("duplicate report cache unavailable", logger.ErrorField(err))
		cached = false
	}

	if !cached {
		groups, err = h.detector.FindDuplicates(r.Context(), station.ID)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	resp := duplicateReportResponse{
		StationID: station.ID,
		Cached:    cached,
		Groups:    make([]duplicateGroup, 0, len(groups)),
	}
	for _, g := range groups {
		group := duplicateGroup{Media: make([]mediaResponse, 0, len(g.Media))}
		for _, m := range g.Media {
			group.Media = append(group.Media, toMediaResponse(m))
		}
		resp.Groups = append(resp.Groups, group)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResolveDuplicateHandler DELETE /api/stations/{station_id}/reports/duplicates/{media_id}
// 删除报告里选中的一侧记录及其文件
func (h *APIHandler) ResolveDuplicateHandler(w http.ResponseWriter, r *http.Request) {
	station, err := h.stationFromRequest(r)
	if err != nil {
		writeErrorStatus(w, http.StatusNotFound, err.Error())
		return
	}
	record, err := h.mediaFromRequest(r, station)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.synchronizer.Delete(r.Context(), station, record); err != nil {
		writeError(w, err)
		return
	}

	logger.Info("duplicate resolved",
		logger.Int64("stationID", station.ID),
		logger.String("path", record.Path))
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
