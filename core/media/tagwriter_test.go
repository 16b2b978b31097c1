package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhowden/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StationFM/model"
	"StationFM/storage"
)

func TestWriteID3TagsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.mp3")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m := &model.StationMedia{
		Title:  "Round Trip",
		Artist: "Writer",
		Album:  "Test Album",
		Lyrics: "la la la",
	}
	require.NoError(t, writeID3Tags(path, m, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	require.NoError(t, err)
	assert.Equal(t, "Round Trip", meta.Title())
	assert.Equal(t, "Writer", meta.Artist())
	assert.Equal(t, "Test Album", meta.Album())
}

func TestWriteID3v1Trailer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trailer.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio-data-placeholder"), 0o644))

	m := &model.StationMedia{Title: "Trailer Song", Artist: "Someone", Album: "Somewhere"}
	require.NoError(t, writeID3v1Trailer(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 128)

	block := data[len(data)-128:]
	assert.Equal(t, "TAG", string(block[0:3]))
	assert.Contains(t, string(block[3:33]), "Trailer Song")

	// 再写一次应覆盖已有尾块而不是追加
	sizeBefore := len(data)
	require.NoError(t, writeID3v1Trailer(path, m))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, len(data))
}

func TestCopyID3v1Field(t *testing.T) {
	dst := make([]byte, 10)
	copyID3v1Field(dst, "Short")
	assert.Equal(t, "Short", string(dst[:5]))
	assert.Equal(t, byte(0), dst[5])

	dst = make([]byte, 4)
	copyID3v1Field(dst, "Way Too Long Value")
	assert.Equal(t, "Way ", string(dst))

	dst = make([]byte, 4)
	copyID3v1Field(dst, "日本語")
	assert.Equal(t, "???", string(dst[:3]))
}

func TestWriteToFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	provider := storage.NewLocalProvider(dir, t.TempDir())
	w := NewTagWriter(provider, newFakeMediaRepo())

	station := &model.Station{ID: 1, MediaPath: "st1"}
	m := &model.StationMedia{Path: "notes.ogg"}

	written, err := w.WriteToFile(context.Background(), station, m)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestWriteToFileUpdatesRecordMtime(t *testing.T) {
	root := t.TempDir()
	station := &model.Station{ID: 1, MediaPath: "st1"}
	mediaDir := filepath.Join(root, "st1")
	require.NoError(t, os.MkdirAll(mediaDir, 0o755))

	path := filepath.Join(mediaDir, "tagged.mp3")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	repo := newFakeMediaRepo()
	provider := storage.NewLocalProvider(root, t.TempDir())
	w := NewTagWriter(provider, repo)

	m := model.NewStationMedia(station.ID, "tagged.mp3")
	m.Title = "New Title"
	m.Artist = "New Artist"
	require.NoError(t, repo.Save(context.Background(), m))

	written, err := w.WriteToFile(context.Background(), station, m)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Greater(t, m.Mtime, int64(0), "stored mtime advances so the next scan does not reprocess")
}
