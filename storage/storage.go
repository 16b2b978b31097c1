package storage

import (
	"context"
	"errors"

	"StationFM/model"
)

// ErrNotExist 表示存储后端中不存在该路径
var ErrNotExist = errors.New("storage: path does not exist")

// ErrNotLocal 表示该后端没有本地可寻址的路径
var ErrNotLocal = errors.New("storage: backend is not locally addressable")

// Entry describes one object in a storage listing.
type Entry struct {
	Path  string
	Mtime int64 // unix seconds
	Size  int64
}

// Filesystem is the storage capability surface the pipeline depends on.
// 路径一律是电台作用域内的相对路径，时间戳取秒级unix时间。
type Filesystem interface {
	Exists(ctx context.Context, path string) (bool, error)
	// Stat returns the path's modification time; ErrNotExist when absent.
	Stat(ctx context.Context, path string) (int64, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]Entry, error)

	// IsLocal reports whether paths can be addressed directly on the local
	// filesystem. When false, callers go through CopyToTemp/UpdateFromTemp.
	IsLocal() bool
	LocalPath(path string) (string, error)
	// CopyToTemp materializes a local temporary copy; the caller deletes it.
	CopyToTemp(ctx context.Context, path string) (string, error)
	UpdateFromTemp(ctx context.Context, tmpPath, path string) error
}

// Provider hands out the per-station filesystem view.
type Provider interface {
	ForStation(station *model.Station) Filesystem
}
