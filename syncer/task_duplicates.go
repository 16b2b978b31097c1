package syncer

import (
	"context"

	"StationFM/cache"
	"StationFM/core/report"
	"StationFM/logger"
	"StationFM/repository"
)

// DuplicateReportTask 为每个电台生成重复报告并写入缓存
type DuplicateReportTask struct {
	stationRepo repository.StationRepository
	detector    *report.Detector
}

func NewDuplicateReportTask(stationRepo repository.StationRepository, detector *report.Detector) *DuplicateReportTask {
	return &DuplicateReportTask{
		stationRepo: stationRepo,
		detector:    detector,
	}
}

func (t *DuplicateReportTask) Name() string { return "duplicate_report" }

func (t *DuplicateReportTask) Run(ctx context.Context, force bool) error {
	stations, err := t.stationRepo.All(ctx)
	if err != nil {
		return err
	}

	for _, station := range stations {
		groups, err := t.detector.FindDuplicates(ctx, station.ID)
		if err != nil {
			logger.Error("duplicate scan failed",
				logger.Int64("stationID", station.ID),
				logger.ErrorField(err))
			continue
		}
		if err := cache.StoreDuplicateReport(ctx, station.ID, groups); err != nil {
			logger.Error("failed to cache duplicate report",
				logger.Int64("stationID", station.ID),
				logger.ErrorField(err))
			continue
		}
		logger.Info("duplicate report refreshed",
			logger.Int64("stationID", station.ID),
			logger.Int("groups", len(groups)))
	}
	return nil
}
