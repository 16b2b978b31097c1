package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherMarksStationOnWrite(t *testing.T) {
	tracker := NewDirtyTracker()
	w, err := NewWatcher(tracker)
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	require.NoError(t, w.AddStationDir(7, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("audio"), 0644))

	assert.Eventually(t, func() bool {
		return tracker.Consume(7)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherAddStationDirDuringEvents(t *testing.T) {
	// 启动后追加监听目录与事件处理并发进行
	tracker := NewDirtyTracker()
	w, err := NewWatcher(tracker)
	require.NoError(t, err)
	defer w.Close()

	first := t.TempDir()
	require.NoError(t, w.AddStationDir(1, first))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			os.WriteFile(filepath.Join(first, fmt.Sprintf("track%d.mp3", i)), []byte("audio"), 0644)
		}
	}()

	for id := int64(2); id <= 10; id++ {
		require.NoError(t, w.AddStationDir(id, t.TempDir()))
	}
	<-done

	assert.Eventually(t, func() bool {
		return tracker.Consume(1)
	}, 2*time.Second, 10*time.Millisecond)
}
