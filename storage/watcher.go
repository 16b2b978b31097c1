package storage

import (
	"os"
	"path/filepath"
	"sync"

	"StationFM/logger"

	"github.com/fsnotify/fsnotify"
)

// DirtyTracker 记录被文件系统事件标脏的电台，媒体检查任务消费后清零
type DirtyTracker struct {
	mu    sync.Mutex
	dirty map[int64]bool
}

// NewDirtyTracker creates an empty tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{dirty: make(map[int64]bool)}
}

// Mark 标记电台有待处理的文件变化
func (t *DirtyTracker) Mark(stationID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty[stationID] = true
}

// Consume 返回并清除电台的脏标记
func (t *DirtyTracker) Consume(stationID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.dirty[stationID]
	delete(t.dirty, stationID)
	return was
}

// Watcher 用 fsnotify 监听本地媒体目录，把变更转成电台脏标记。
// 对象存储后端没有变更通知，仍依赖周期性扫描。
type Watcher struct {
	watcher *fsnotify.Watcher
	tracker *DirtyTracker
	mu      sync.RWMutex
	dirs    map[string]int64 // watched dir -> station id
	done    chan struct{}
}

// NewWatcher creates a directory watcher feeding the given tracker.
func NewWatcher(tracker *DirtyTracker) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fsWatcher,
		tracker: tracker,
		dirs:    make(map[string]int64),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// AddStationDir 递归监听电台媒体目录
func (w *Watcher) AddStationDir(stationID int64, dir string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return err
		}
		w.mu.Lock()
		w.dirs[p] = stationID
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dir := filepath.Dir(event.Name)
			w.mu.RLock()
			stationID, found := w.dirs[dir]
			w.mu.RUnlock()
			if found {
				w.tracker.Mark(stationID)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("media watcher error", logger.ErrorField(err))
		case <-w.done:
			return
		}
	}
}

// Close 停止监听
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
