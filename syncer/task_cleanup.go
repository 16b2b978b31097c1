package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"StationFM/logger"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
)

// CleanupTask 清理孤儿封面对象和过期的临时文件
type CleanupTask struct {
	stationRepo repository.StationRepository
	mediaRepo   repository.MediaRepository
	provider    storage.Provider
	tempDir     string
	now         func() time.Time
}

// 临时文件超过这个时限视为泄漏
const tempFileMaxAge = 24 * time.Hour

func NewCleanupTask(stationRepo repository.StationRepository, mediaRepo repository.MediaRepository, provider storage.Provider, tempDir string) *CleanupTask {
	return &CleanupTask{
		stationRepo: stationRepo,
		mediaRepo:   mediaRepo,
		provider:    provider,
		tempDir:     tempDir,
		now:         time.Now,
	}
}

func (t *CleanupTask) Name() string { return "cleanup" }

func (t *CleanupTask) Run(ctx context.Context, force bool) error {
	stations, err := t.stationRepo.All(ctx)
	if err != nil {
		return err
	}

	for _, station := range stations {
		if err := t.cleanOrphanArt(ctx, station); err != nil {
			logger.Error("album art cleanup failed",
				logger.Int64("stationID", station.ID),
				logger.ErrorField(err))
		}
	}

	t.cleanTempFiles()
	return nil
}

// cleanOrphanArt 删除没有对应媒体记录的封面对象
func (t *CleanupTask) cleanOrphanArt(ctx context.Context, station *model.Station) error {
	fs := t.provider.ForStation(station)

	entries, err := fs.List(ctx, "albumart/")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		uniqueID := strings.TrimSuffix(filepath.Base(entry.Path), filepath.Ext(entry.Path))
		record, err := t.mediaRepo.FindByUniqueID(ctx, station.ID, uniqueID)
		if err != nil {
			return err
		}
		if record != nil {
			continue
		}
		if err := fs.Delete(ctx, entry.Path); err != nil {
			logger.Warn("failed to delete orphan album art",
				logger.String("path", entry.Path),
				logger.ErrorField(err))
			continue
		}
		logger.Info("deleted orphan album art",
			logger.String("path", entry.Path),
			logger.Int64("stationID", station.ID))
	}
	return nil
}

// cleanTempFiles 删除遗留超过时限的临时媒体副本
func (t *CleanupTask) cleanTempFiles() {
	matches, err := filepath.Glob(filepath.Join(t.tempDir, "media-*"))
	if err != nil {
		logger.Warn("temp file scan failed", logger.ErrorField(err))
		return
	}

	cutoff := t.now().Add(-tempFileMaxAge)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale temp file",
				logger.String("path", path),
				logger.ErrorField(err))
			continue
		}
		logger.Info("removed stale temp file", logger.String("path", path))
	}
}
