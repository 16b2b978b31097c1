package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StationFM/model"
)

func TestLocalFilesystemLifecycle(t *testing.T) {
	fs := NewLocalFilesystem(t.TempDir(), t.TempDir())
	ctx := context.Background()

	exists, err := fs.Exists(ctx, "music/track.mp3")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = fs.Stat(ctx, "music/track.mp3")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, fs.Write(ctx, "music/track.mp3", []byte("payload")))

	exists, err = fs.Exists(ctx, "music/track.mp3")
	require.NoError(t, err)
	assert.True(t, exists)

	mtime, err := fs.Stat(ctx, "music/track.mp3")
	require.NoError(t, err)
	assert.Greater(t, mtime, int64(0))

	data, err := fs.Read(ctx, "music/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, fs.Delete(ctx, "music/track.mp3"))
	assert.ErrorIs(t, fs.Delete(ctx, "music/track.mp3"), ErrNotExist)
}

func TestLocalFilesystemList(t *testing.T) {
	fs := NewLocalFilesystem(t.TempDir(), t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "a.mp3", []byte("a")))
	require.NoError(t, fs.Write(ctx, "albumart/cover.jpg", []byte("img")))
	require.NoError(t, fs.Write(ctx, "sub/b.flac", []byte("b")))

	entries, err := fs.List(ctx, "")
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"a.mp3", "albumart/cover.jpg", "sub/b.flac"}, paths)

	entries, err = fs.List(ctx, "sub/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sub/b.flac", entries[0].Path)
}

func TestLocalFilesystemListMissingPrefix(t *testing.T) {
	fs := NewLocalFilesystem(t.TempDir(), t.TempDir())
	entries, err := fs.List(context.Background(), "nope/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalFilesystemTempRoundTrip(t *testing.T) {
	fs := NewLocalFilesystem(t.TempDir(), t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "song.mp3", []byte("original")))

	tmpPath, err := fs.CopyToTemp(ctx, "song.mp3")
	require.NoError(t, err)
	defer os.Remove(tmpPath)

	tmpData, err := os.ReadFile(tmpPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), tmpData)

	require.NoError(t, os.WriteFile(tmpPath, []byte("modified"), 0o644))
	require.NoError(t, fs.UpdateFromTemp(ctx, tmpPath, "song.mp3"))

	data, err := fs.Read(ctx, "song.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("modified"), data)
}

func TestLocalProviderStationScoping(t *testing.T) {
	root := t.TempDir()
	provider := NewLocalProvider(root, t.TempDir())
	ctx := context.Background()

	named := provider.ForStation(&model.Station{ID: 1, MediaPath: "custom"})
	fallback := provider.ForStation(&model.Station{ID: 2})

	require.NoError(t, named.Write(ctx, "x.mp3", []byte("x")))
	require.NoError(t, fallback.Write(ctx, "y.mp3", []byte("y")))

	assert.FileExists(t, filepath.Join(root, "custom", "x.mp3"))
	assert.FileExists(t, filepath.Join(root, "station_2", "y.mp3"))

	// 各电台互相不可见
	exists, err := named.Exists(ctx, "y.mp3")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDirtyTracker(t *testing.T) {
	tracker := NewDirtyTracker()

	assert.False(t, tracker.Consume(1))

	tracker.Mark(1)
	assert.True(t, tracker.Consume(1))
	assert.False(t, tracker.Consume(1), "consume resets the flag")
	assert.False(t, tracker.Consume(2))
}
