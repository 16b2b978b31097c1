package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"StationFM/model"
)

// LocalFilesystem 基于本地磁盘实现存储端口，根目录下按相对路径存放
type LocalFilesystem struct {
	root    string
	tempDir string
}

// NewLocalFilesystem creates a local filesystem rooted at the given directory.
func NewLocalFilesystem(root, tempDir string) *LocalFilesystem {
	return &LocalFilesystem{root: root, tempDir: tempDir}
}

func (fs *LocalFilesystem) fullPath(path string) string {
	return filepath.Join(fs.root, filepath.FromSlash(path))
}

func (fs *LocalFilesystem) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(fs.fullPath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return true, nil
}

func (fs *LocalFilesystem) Stat(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(fs.fullPath(path))
	if os.IsNotExist(err) {
		return 0, ErrNotExist
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return info.ModTime().Unix(), nil
}

func (fs *LocalFilesystem) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(fs.fullPath(path))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

func (fs *LocalFilesystem) Write(_ context.Context, path string, data []byte) error {
	full := fs.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func (fs *LocalFilesystem) Delete(_ context.Context, path string) error {
	err := os.Remove(fs.fullPath(path))
	if os.IsNotExist(err) {
		return ErrNotExist
	}
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

func (fs *LocalFilesystem) List(_ context.Context, prefix string) ([]Entry, error) {
	base := fs.fullPath(prefix)
	entries := make([]Entry, 0)

	err := filepath.Walk(base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(fs.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path:  filepath.ToSlash(rel),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	return entries, nil
}

func (fs *LocalFilesystem) IsLocal() bool {
	return true
}

func (fs *LocalFilesystem) LocalPath(path string) (string, error) {
	return fs.fullPath(path), nil
}

// CopyToTemp 本地后端一般不需要临时副本，但写回场景仍会用到
func (fs *LocalFilesystem) CopyToTemp(_ context.Context, path string) (string, error) {
	src, err := os.Open(fs.fullPath(path))
	if os.IsNotExist(err) {
		return "", ErrNotExist
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(fs.tempDir, "media-*"+filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %q: %w", path, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to copy %q to temp: %w", path, err)
	}
	return tmp.Name(), nil
}

func (fs *LocalFilesystem) UpdateFromTemp(_ context.Context, tmpPath, path string) error {
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to read temp file %q: %w", tmpPath, err)
	}
	return fs.Write(context.Background(), path, data)
}

// localProvider 每个电台一个子目录
type localProvider struct {
	root    string
	tempDir string
}

// NewLocalProvider creates a provider serving per-station local filesystems.
func NewLocalProvider(root, tempDir string) Provider {
	return &localProvider{root: root, tempDir: tempDir}
}

func (p *localProvider) ForStation(station *model.Station) Filesystem {
	dir := station.MediaPath
	if dir == "" {
		dir = fmt.Sprintf("station_%d", station.ID)
	}
	dir = strings.TrimPrefix(dir, "/")
	return NewLocalFilesystem(filepath.Join(p.root, dir), p.tempDir)
}
