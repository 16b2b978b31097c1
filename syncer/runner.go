package syncer

import (
	"context"
	"fmt"
	"time"

	"StationFM/cache"
	"StationFM/logger"
)

// Tier 同步档位
type Tier string

const (
	TierNowPlaying Tier = "nowplaying"
	TierShort      Tier = "short"
	TierMedium     Tier = "medium"
	TierLong       Tier = "long"
)

// 各档位的触发周期
var tierIntervals = map[Tier]time.Duration{
	TierNowPlaying: 15 * time.Second,
	TierShort:      time.Minute,
	TierMedium:     5 * time.Minute,
	TierLong:       time.Hour,
}

// 各档位单轮运行的时间预算
var tierBudgets = map[Tier]time.Duration{
	TierNowPlaying: 10 * time.Second,
	TierShort:      60 * time.Second,
	TierMedium:     300 * time.Second,
	TierLong:       1800 * time.Second,
}

// nowplaying 档的并发保护窗口：上一轮在窗口内启动且未结束时直接跳过
const nowPlayingGuardWindow = 10 * time.Second

var tierLastRunKeys = map[Tier]string{
	TierNowPlaying: cache.NowPlayingLastRun,
	TierShort:      cache.ShortSyncLastRun,
	TierMedium:     cache.MediumSyncLastRun,
	TierLong:       cache.LongSyncLastRun,
}

// TierStatus 单个档位的运行状况
type TierStatus struct {
	Tier     Tier  `json:"tier"`
	LastRun  int64 `json:"last_run"`
	Interval int64 `json:"interval"`
	Overdue  bool  `json:"overdue"`
}

// Runner 分档调度器。任务按注册顺序在所属档位内串行执行。
type Runner struct {
	state StateStore
	now   func() time.Time
	tasks map[Tier][]Task
}

func NewRunner(state StateStore) *Runner {
	return &Runner{
		state: state,
		now:   time.Now,
		tasks: map[Tier][]Task{},
	}
}

// Register 把任务挂到指定档位
func (r *Runner) Register(tier Tier, task Task) {
	r.tasks[tier] = append(r.tasks[tier], task)
}

// SyncNowPlaying 运行 nowplaying 档。带并发保护：
// 上一轮启动标记落在窗口内且还没有对应的结束标记时跳过本轮。
func (r *Runner) SyncNowPlaying(ctx context.Context, force bool) error {
	now := r.now()

	if !force {
		lastStarted, err := r.state.GetTime(ctx, cache.NowPlayingLastStarted)
		if err != nil {
			return err
		}
		lastRun, err := r.state.GetTime(ctx, cache.NowPlayingLastRun)
		if err != nil {
			return err
		}
		windowStart := now.Add(-nowPlayingGuardWindow).Unix()
		if lastStarted > lastRun && lastStarted >= windowStart {
			logger.Debug("nowplaying sync still running, skipping",
				logger.Int64("lastStarted", lastStarted))
			return nil
		}
	}

	if err := r.state.SetTime(ctx, cache.NowPlayingLastStarted, now.Unix()); err != nil {
		return err
	}

	return r.runTier(ctx, TierNowPlaying, force)
}

// SyncShort 运行 short 档
func (r *Runner) SyncShort(ctx context.Context, force bool) error {
	return r.runTier(ctx, TierShort, force)
}

// SyncMedium 运行 medium 档
func (r *Runner) SyncMedium(ctx context.Context, force bool) error {
	return r.runTier(ctx, TierMedium, force)
}

// SyncLong 运行 long 档
func (r *Runner) SyncLong(ctx context.Context, force bool) error {
	return r.runTier(ctx, TierLong, force)
}

// RunTier 按名字运行一个档位，供 CLI 和 API 手动触发
func (r *Runner) RunTier(ctx context.Context, tier Tier, force bool) error {
	switch tier {
	case TierNowPlaying:
		return r.SyncNowPlaying(ctx, force)
	case TierShort, TierMedium, TierLong:
		return r.runTier(ctx, tier, force)
	default:
		return fmt.Errorf("unknown sync tier %q", tier)
	}
}

// runTier 在档位预算内串行执行任务。单个任务失败或 panic 只记录，
// 不影响同档位的后续任务。
func (r *Runner) runTier(ctx context.Context, tier Tier, force bool) error {
	// 预算只约束任务本身，结束后的状态写入用外层 ctx
	taskCtx, cancel := context.WithTimeout(ctx, tierBudgets[tier])
	defer cancel()

	tierStart := r.now()
	for _, task := range r.tasks[tier] {
		taskStart := r.now()
		if err := r.runTask(taskCtx, task, force); err != nil {
			logger.Error("sync task failed",
				logger.String("tier", string(tier)),
				logger.String("task", task.Name()),
				logger.ErrorField(err))
		}
		logger.Info("sync task finished",
			logger.String("tier", string(tier)),
			logger.String("task", task.Name()),
			logger.Duration("elapsed", r.now().Sub(taskStart)))
	}

	logger.Info("sync tier finished",
		logger.String("tier", string(tier)),
		logger.Duration("elapsed", r.now().Sub(tierStart)))

	return r.state.SetTime(ctx, tierLastRunKeys[tier], r.now().Unix())
}

func (r *Runner) runTask(ctx context.Context, task Task, force bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name(), rec)
		}
	}()
	return task.Run(ctx, force)
}

// Status 各档位的最近运行时间与是否逾期
func (r *Runner) Status(ctx context.Context) ([]TierStatus, error) {
	now := r.now().Unix()
	statuses := make([]TierStatus, 0, len(tierLastRunKeys))
	for _, tier := range []Tier{TierNowPlaying, TierShort, TierMedium, TierLong} {
		lastRun, err := r.state.GetTime(ctx, tierLastRunKeys[tier])
		if err != nil {
			return nil, err
		}
		interval := int64(tierIntervals[tier] / time.Second)
		statuses = append(statuses, TierStatus{
			Tier:     tier,
			LastRun:  lastRun,
			Interval: interval,
			Overdue:  now-lastRun > interval*2,
		})
	}
	return statuses, nil
}

// StartTickers 启动四个档位的定时循环，ctx 取消时退出
func (r *Runner) StartTickers(ctx context.Context) {
	run := map[Tier]func(context.Context, bool) error{
		TierNowPlaying: r.SyncNowPlaying,
		TierShort:      r.SyncShort,
		TierMedium:     r.SyncMedium,
		TierLong:       r.SyncLong,
	}
	for tier, fn := range run {
		go func(tier Tier, fn func(context.Context, bool) error) {
			ticker := time.NewTicker(tierIntervals[tier])
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := fn(ctx, false); err != nil {
						logger.Error("sync tier run failed",
							logger.String("tier", string(tier)),
							logger.ErrorField(err))
					}
				}
			}
		}(tier, fn)
	}
	logger.Info("sync tickers started")
}
