package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"StationFM/core/media"
	"StationFM/logger"
	"StationFM/model"
)

// mediaResponse 媒体记录的对外视图
type mediaResponse struct {
	ID           int64   `json:"id"`
	UniqueID     string  `json:"unique_id"`
	SongID       string  `json:"song_id"`
	Path         string  `json:"path"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album"`
	ISRC         string  `json:"isrc,omitempty"`
	Duration     float64 `json:"duration"`
	DurationText string  `json:"duration_text"`
	Mtime        int64   `json:"mtime"`
	HasArt       bool    `json:"has_art"`
}

func toMediaResponse(m *model.StationMedia) mediaResponse {
	return mediaResponse{
		ID:           m.ID,
		UniqueID:     m.UniqueID,
		SongID:       m.SongID,
		Path:         m.Path,
		Title:        m.Title,
		Artist:       m.Artist,
		Album:        m.Album,
		ISRC:         m.ISRC,
		Duration:     m.Duration,
		DurationText: media.FormatDuration(m.Duration),
		Mtime:        m.Mtime,
		HasArt:       m.ArtUpdatedAt > 0,
	}
}

// ListMediaHandler GET /api/stations/{station_id}/media
func (h *APIHandler) ListMediaHandler(w http.ResponseWriter, r *http.Request) {
	station, err := h.stationFromRequest(r)
	if err != nil {
		writeErrorStatus(w, http.StatusNotFound, err.Error())
		return
	}

	records, err := h.mediaRepo.ListByStation(r.Context(), station.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]mediaResponse, 0, len(records))
	for _, m := range records {
		resp = append(resp, toMediaResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadMediaHandler POST /api/stations/{station_id}/media
// multipart 表单：file 为音频内容，path 为目标存储路径（缺省用原始文件名）
func (h *APIHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	station, err := h.stationFromRequest(r)
	if err != nil {
		writeErrorStatus(w, http.StatusNotFound, err.Error())
		return
	}

	// 上传上限 500MB
	if err := r.ParseMultipartForm(500 << 20); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	dest := r.FormValue("path")
	if dest == "" {
		dest = header.Filename
	}
	if !media.IsAudioFile(dest) {
		writeErrorStatus(w, http.StatusUnprocessableEntity, "unsupported file extension")
		return
	}

	tmp, err := os.CreateTemp(h.cfg.TempDir, "media-*"+filepath.Ext(dest))
	if err != nil {
		writeError(w, err)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, err)
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.synchronizer.UploadFile(r.Context(), station, tmpPath, dest)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("media uploaded",
		logger.Int64("stationID", station.ID),
		logger.String("path", record.Path))
	writeJSON(w, http.StatusCreated, toMediaResponse(record))
}

// ReprocessMediaHandler PUT /api/stations/{station_id}/media/{media_id}
// ?force=true 时无视mtime强制重新处理
func (h *APIHandler) ReprocessMediaHandler(w http.ResponseWriter, r *http.Request) {
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

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	processed, err := h.synchronizer.ProcessMedia(r.Context(), station, record, force)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"processed": processed,
		"media":     toMediaResponse(record),
	})
}

// WriteTagsHandler POST /api/stations/{station_id}/media/{media_id}/writetags
func (h *APIHandler) WriteTagsHandler(w http.ResponseWriter, r *http.Request) {
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

	written, err := h.tagWriter.WriteToFile(r.Context(), station, record)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"written": written})
}

// DeleteMediaHandler DELETE /api/stations/{station_id}/media/{media_id}
func (h *APIHandler) DeleteMediaHandler(w http.ResponseWriter, r *http.Request) {
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

	logger.Info("media deleted",
		logger.Int64("stationID", station.ID),
		logger.String("path", record.Path))
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

// GetArtHandler GET /api/stations/{station_id}/media/{media_id}/art
func (h *APIHandler) GetArtHandler(w http.ResponseWriter, r *http.Request) {
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

	data, err := h.synchronizer.ReadAlbumArt(r.Context(), station, record)
	if err != nil {
		writeError(w, err)
		return
	}
	if data == nil {
		writeErrorStatus(w, http.StatusNotFound, "no album art stored")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to serve album art", logger.ErrorField(err))
	}
}

// PutArtHandler PUT /api/stations/{station_id}/media/{media_id}/art
// 请求体为图片原始内容
func (h *APIHandler) PutArtHandler(w http.ResponseWriter, r *http.Request) {
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

	// 图片上限 20MB
	raw, err := io.ReadAll(io.LimitReader(r.Body, 20<<20))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(raw) == 0 {
		writeErrorStatus(w, http.StatusBadRequest, "empty request body")
		return
	}

	if err := h.synchronizer.WriteAlbumArt(r.Context(), station, record, raw); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMediaResponse(record))
}

// DeleteArtHandler DELETE /api/stations/{station_id}/media/{media_id}/art
func (h *APIHandler) DeleteArtHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.synchronizer.RemoveAlbumArt(r.Context(), station, record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
