package syncer

import (
	"context"
	"strings"
	"sync"

	"StationFM/core/media"
	"StationFM/logger"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
)

// CheckMediaTask 扫描各电台存储，把文件系统与数据库对齐：
// 新文件入库、变更文件重处理、消失的文件清掉记录。
type CheckMediaTask struct {
	stationRepo  repository.StationRepository
	mediaRepo    repository.MediaRepository
	synchronizer *media.Synchronizer
	provider     storage.Provider
	dirty        *storage.DirtyTracker
	workers      int
}

func NewCheckMediaTask(
	stationRepo repository.StationRepository,
	mediaRepo repository.MediaRepository,
	synchronizer *media.Synchronizer,
	provider storage.Provider,
	dirty *storage.DirtyTracker,
	workers int,
) *CheckMediaTask {
	if workers < 1 {
		workers = 1
	}
	return &CheckMediaTask{
		stationRepo:  stationRepo,
		mediaRepo:    mediaRepo,
		synchronizer: synchronizer,
		provider:     provider,
		dirty:        dirty,
		workers:      workers,
	}
}

func (t *CheckMediaTask) Name() string { return "check_media" }

func (t *CheckMediaTask) Run(ctx context.Context, force bool) error {
	stations, err := t.stationRepo.All(ctx)
	if err != nil {
		return err
	}

	for _, station := range stations {
		stationForce := force
		if t.dirty != nil && t.dirty.Consume(station.ID) {
			stationForce = true
		}
		if err := t.syncStation(ctx, station, stationForce); err != nil {
			logger.Error("station media sync failed",
				logger.Int64("stationID", station.ID),
				logger.ErrorField(err))
		}
	}
	return nil
}

func (t *CheckMediaTask) syncStation(ctx context.Context, station *model.Station, force bool) error {
	fs := t.provider.ForStation(station)

	entries, err := fs.List(ctx, "")
	if err != nil {
		return err
	}

	onDisk := map[string]bool{}
	queue := make([]storage.Entry, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Path, "albumart/") || strings.HasPrefix(entry.Path, "backups/") {
			continue
		}
		if !media.IsAudioFile(entry.Path) {
			continue
		}
		onDisk[entry.Path] = true
		queue = append(queue, entry)
	}

	t.processEntries(ctx, station, queue, force)

	// 文件消失的记录直接删除
	records, err := t.mediaRepo.ListByStation(ctx, station.ID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if onDisk[record.Path] {
			continue
		}
		if err := t.synchronizer.Delete(ctx, station, record); err != nil {
			logger.Error("failed to prune vanished media record",
				logger.String("path", record.Path),
				logger.ErrorField(err))
		} else {
			logger.Info("pruned vanished media record",
				logger.String("path", record.Path),
				logger.Int64("stationID", station.ID))
		}
	}
	return nil
}

// processEntries 用固定大小的 worker 池并发处理扫描到的文件
func (t *CheckMediaTask) processEntries(ctx context.Context, station *model.Station, entries []storage.Entry, force bool) {
	jobs := make(chan storage.Entry)
	var wg sync.WaitGroup

	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if err := t.processEntry(ctx, station, entry, force); err != nil {
					logger.Error("failed to process media file",
						logger.String("path", entry.Path),
						logger.Int64("stationID", station.ID),
						logger.ErrorField(err))
				}
			}
		}()
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()
}

func (t *CheckMediaTask) processEntry(ctx context.Context, station *model.Station, entry storage.Entry, force bool) error {
	record, err := t.mediaRepo.FindByPath(ctx, station.ID, entry.Path)
	if err != nil {
		return err
	}
	if record == nil {
		record = model.NewStationMedia(station.ID, entry.Path)
	}
	_, err = t.synchronizer.ProcessMedia(ctx, station, record, force)
	return err
}
