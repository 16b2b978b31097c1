package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"StationFM/cache"
	"StationFM/config"
	"StationFM/core/artwork"
	"StationFM/core/media"
	"StationFM/core/report"
	"StationFM/db"
	"StationFM/logger"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
	"StationFM/syncer"
)

// App 聚合装配完成的依赖，HTTP服务和CLI一次性命令共用
type App struct {
	Cfg          *config.Config
	StationRepo  repository.StationRepository
	MediaRepo    repository.MediaRepository
	Synchronizer *media.Synchronizer
	TagWriter    *media.TagWriter
	Detector     *report.Detector
	Runner       *syncer.Runner
	Provider     storage.Provider
	Dirty        *storage.DirtyTracker
}

// Bootstrap 连接基础设施并装配核心管线和调度器
func Bootstrap(cfg *config.Config) (*App, error) {
	if err := db.ConnectGormDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrateModels(
		&model.Station{},
		&model.StationMedia{},
		&model.Song{},
		&model.CustomField{},
		&model.MediaCustomField{},
	); err != nil {
		db.CloseGormDB()
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		db.CloseGormDB()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	provider, rootFS, err := buildStorageProvider(cfg)
	if err != nil {
		cache.CloseRedis()
		db.CloseGormDB()
		return nil, err
	}

	stationRepo := repository.NewGormStationRepository(db.GormDB)
	mediaRepo := repository.NewGormMediaRepository(db.GormDB)
	songRepo := repository.NewGormSongRepository(db.GormDB)
	fieldRepo := repository.NewGormCustomFieldRepository(db.GormDB)

	extractor := media.NewExtractor(cfg.FFprobePath)
	artworkProcessor := artwork.NewProcessor()
	synchronizer := media.NewSynchronizer(provider, mediaRepo, songRepo, fieldRepo, extractor, artworkProcessor)
	tagWriter := media.NewTagWriter(provider, mediaRepo)
	detector := report.NewDetector(mediaRepo)

	stateStore := cache.NewSyncStateStore(cache.RedisClient)
	runner := syncer.NewRunner(stateStore)

	dirty := storage.NewDirtyTracker()
	runner.Register(syncer.TierMedium, syncer.NewCheckMediaTask(stationRepo, mediaRepo, synchronizer, provider, dirty, cfg.MediaWorkers))
	runner.Register(syncer.TierLong, syncer.NewDuplicateReportTask(stationRepo, detector))
	runner.Register(syncer.TierLong, syncer.NewBackupTask(cfg, stateStore, rootFS))
	runner.Register(syncer.TierLong, syncer.NewCleanupTask(stationRepo, mediaRepo, provider, cfg.TempDir))

	return &App{
		Cfg:          cfg,
		StationRepo:  stationRepo,
		MediaRepo:    mediaRepo,
		Synchronizer: synchronizer,
		TagWriter:    tagWriter,
		Detector:     detector,
		Runner:       runner,
		Provider:     provider,
		Dirty:        dirty,
	}, nil
}

// Close 释放Bootstrap建立的连接
func (a *App) Close() {
	cache.CloseRedis()
	db.CloseGormDB()
}

// Start 初始化全部依赖并启动HTTP服务，阻塞到收到退出信号
func Start(cfg *config.Config) error {
	app, err := Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 本地存储可选开启目录监听，变更的电台下一轮强制重扫
	if cfg.StorageDriver == "local" && cfg.WatchLocalDirs {
		watcher, err := startWatcher(ctx, app.StationRepo, app.Provider, app.Dirty)
		if err != nil {
			logger.Warn("failed to start media directory watcher", logger.ErrorField(err))
		} else if watcher != nil {
			defer watcher.Close()
		}
	}

	if cfg.SyncEnabled {
		app.Runner.StartTickers(ctx)
	}

	apiHandler := NewAPIHandler(app.StationRepo, app.MediaRepo, app.Synchronizer, app.TagWriter, app.Detector, app.Runner, cfg)
	router := newRouter(apiHandler)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildStorageProvider 按配置选择本地或MinIO后端。
// 第二个返回值是不带电台前缀的根文件系统，备份等全局写入使用。
func buildStorageProvider(cfg *config.Config) (storage.Provider, storage.Filesystem, error) {
	switch cfg.StorageDriver {
	case "local":
		provider := storage.NewLocalProvider(cfg.MediaRoot, cfg.TempDir)
		return provider, storage.NewLocalFilesystem(cfg.MediaRoot, cfg.TempDir), nil
	case "minio":
		if err := storage.InitMinio(cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		client := storage.GetMinioClient()
		provider := storage.NewMinioProvider(client, cfg.MinioBucket, cfg.TempDir)
		return provider, storage.NewMinioFilesystem(client, cfg.MinioBucket, "", cfg.TempDir), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// startWatcher 给每个电台的本地媒体目录挂fsnotify监听
func startWatcher(ctx context.Context, stationRepo repository.StationRepository, provider storage.Provider, dirty *storage.DirtyTracker) (*storage.Watcher, error) {
	watcher, err := storage.NewWatcher(dirty)
	if err != nil {
		return nil, err
	}

	stations, err := stationRepo.All(ctx)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	for _, station := range stations {
		fs := provider.ForStation(station)
		root, err := fs.LocalPath("")
		if err != nil {
			continue
		}
		if err := watcher.AddStationDir(station.ID, root); err != nil {
			logger.Warn("failed to watch station directory",
				logger.Int64("stationID", station.ID),
				logger.String("dir", root),
				logger.ErrorField(err))
		}
	}
	return watcher, nil
}

// newRouter 组装路由，所有响应带CORS头
func newRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// 媒体记录
	router.HandleFunc("/api/stations/{station_id}/media", h.ListMediaHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stations/{station_id}/media", h.UploadMediaHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}", h.ReprocessMediaHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}", h.DeleteMediaHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}/writetags", h.WriteTagsHandler).Methods(http.MethodPost)

	// 封面
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}/art", h.GetArtHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}/art", h.PutArtHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/stations/{station_id}/media/{media_id}/art", h.DeleteArtHandler).Methods(http.MethodDelete)

	// 重复报告
	router.HandleFunc("/api/stations/{station_id}/reports/duplicates", h.GetDuplicatesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stations/{station_id}/reports/duplicates/{media_id}", h.ResolveDuplicateHandler).Methods(http.MethodDelete)

	// 同步调度
	router.HandleFunc("/api/sync/status", h.SyncStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sync/{tier}/run", h.RunSyncHandler).Methods(http.MethodPost)

	return router
}
