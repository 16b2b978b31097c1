package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"StationFM/config"
	"StationFM/core/artwork"
	"StationFM/core/media"
	"StationFM/core/report"
	"StationFM/logger"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/syncer"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	stationRepo  repository.StationRepository
	mediaRepo    repository.MediaRepository
	synchronizer *media.Synchronizer
	tagWriter    *media.TagWriter
	detector     *report.Detector
	runner       *syncer.Runner
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	stationRepo repository.StationRepository,
	mediaRepo repository.MediaRepository,
	synchronizer *media.Synchronizer,
	tagWriter *media.TagWriter,
	detector *report.Detector,
	runner *syncer.Runner,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		stationRepo:  stationRepo,
		mediaRepo:    mediaRepo,
		synchronizer: synchronizer,
		tagWriter:    tagWriter,
		detector:     detector,
		runner:       runner,
		cfg:          cfg,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError 按错误类型映射HTTP状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, media.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, media.ErrUnsupportedFormat), errors.Is(err, artwork.ErrUnsupportedImage):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// stationFromRequest 解析路径里的station_id并加载电台
func (h *APIHandler) stationFromRequest(r *http.Request) (*model.Station, error) {
	idStr := mux.Vars(r)["station_id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, errors.New("invalid station id")
	}
	station, err := h.stationRepo.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, errors.New("station not found")
	}
	return station, nil
}

// mediaFromRequest 解析media_id并加载电台下的媒体记录
func (h *APIHandler) mediaFromRequest(r *http.Request, station *model.Station) (*model.StationMedia, error) {
	idStr := mux.Vars(r)["media_id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, errors.New("invalid media id")
	}
	record, err := h.mediaRepo.FindByID(r.Context(), station.ID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, media.ErrNotFound
	}
	return record, nil
}
