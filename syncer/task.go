package syncer

import (
	"context"
)

// Task 一个可调度的同步任务
type Task interface {
	Name() string
	Run(ctx context.Context, force bool) error
}

// StateStore 调度器的持久化状态（各档位的上次运行时间等），
// 进程重启后调度节奏不中断。时间戳为Unix秒。
type StateStore interface {
	GetTime(ctx context.Context, key string) (int64, error)
	SetTime(ctx context.Context, key string, ts int64) error
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, val string) error
}
