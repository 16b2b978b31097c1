package syncer

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os/exec"
	"time"

	"StationFM/cache"
	"StationFM/config"
	"StationFM/logger"
	"StationFM/storage"
)

// BackupTask 定时导出数据库并写入存储后端。两个门槛同时满足才执行：
// 距上次备份超过24小时，且当前UTC时间匹配配置的时刻（HHMM）。
type BackupTask struct {
	cfg   *config.Config
	state StateStore
	fs    storage.Filesystem
	now   func() time.Time
	dump  func(ctx context.Context) ([]byte, error)
}

const backupInterval = 24 * time.Hour

func NewBackupTask(cfg *config.Config, state StateStore, fs storage.Filesystem) *BackupTask {
	t := &BackupTask{cfg: cfg, state: state, fs: fs, now: time.Now}
	t.dump = t.runMysqldump
	return t
}

func (t *BackupTask) Name() string { return "backup" }

func (t *BackupTask) Run(ctx context.Context, force bool) error {
	if !t.cfg.BackupEnabled {
		return nil
	}

	now := t.now()

	if !force {
		lastRun, err := t.state.GetTime(ctx, cache.BackupLastRun)
		if err != nil {
			return err
		}
		if now.Unix()-lastRun < int64(backupInterval/time.Second) {
			return nil
		}
		if t.cfg.BackupTimecode != "" && now.UTC().Format("1504") != t.cfg.BackupTimecode {
			return nil
		}
	}

	logger.Info("starting database backup")

	output, err := t.dump(ctx)

	result := "success"
	detail := fmt.Sprintf("backup finished, %d bytes", len(output))
	if err != nil {
		result = "failed"
		detail = err.Error()
	}

	if serr := t.state.SetTime(ctx, cache.BackupLastRun, now.Unix()); serr != nil {
		logger.Error("failed to record backup timestamp", logger.ErrorField(serr))
	}
	if serr := t.state.SetString(ctx, cache.BackupLastResult, result); serr != nil {
		logger.Error("failed to record backup result", logger.ErrorField(serr))
	}
	if serr := t.state.SetString(ctx, cache.BackupLastOutput, detail); serr != nil {
		logger.Error("failed to record backup output", logger.ErrorField(serr))
	}

	if err != nil {
		return fmt.Errorf("database backup failed: %w", err)
	}

	logger.Info("database backup finished",
		logger.Int("bytes", len(output)),
		logger.String("path", t.cfg.BackupPath))
	return nil
}

// runMysqldump 执行mysqldump，gzip压缩后写入存储后端
func (t *BackupTask) runMysqldump(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.cfg.MysqldumpPath,
		"-h", t.cfg.DBHost,
		"-P", t.cfg.DBPort,
		"-u", t.cfg.DBUser,
		fmt.Sprintf("-p%s", t.cfg.DBPassword),
		"--single-transaction",
		t.cfg.DBName,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("mysqldump failed: %w: %s", err, stderr.String())
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress backup: %w", err)
	}

	if err := t.fs.Write(ctx, t.cfg.BackupPath, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to store backup: %w", err)
	}
	return buf.Bytes(), nil
}
