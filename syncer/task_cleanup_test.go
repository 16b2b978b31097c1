package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StationFM/model"
	"StationFM/storage"
)

type fakeStationRepo struct {
	stations []*model.Station
}

func (r *fakeStationRepo) All(context.Context) ([]*model.Station, error) { return r.stations, nil }

func (r *fakeStationRepo) FindByID(_ context.Context, id int64) (*model.Station, error) {
	for _, s := range r.stations {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeStationRepo) Save(context.Context, *model.Station) error { return nil }

type uniqueIDRepo struct {
	known map[string]*model.StationMedia
}

func (r *uniqueIDRepo) FindByID(context.Context, int64, int64) (*model.StationMedia, error) {
	return nil, nil
}

func (r *uniqueIDRepo) FindByPath(context.Context, int64, string) (*model.StationMedia, error) {
	return nil, nil
}

func (r *uniqueIDRepo) FindByUniqueID(_ context.Context, _ int64, uniqueID string) (*model.StationMedia, error) {
	return r.known[uniqueID], nil
}

func (r *uniqueIDRepo) ListByStation(context.Context, int64) ([]*model.StationMedia, error) {
	return nil, nil
}

func (r *uniqueIDRepo) Save(context.Context, *model.StationMedia) error   { return nil }
func (r *uniqueIDRepo) Delete(context.Context, *model.StationMedia) error { return nil }
func (r *uniqueIDRepo) ClearAutoAssignedFields(context.Context, int64) error {
	return nil
}
func (r *uniqueIDRepo) AddCustomFieldValue(context.Context, *model.MediaCustomField) error {
	return nil
}
func (r *uniqueIDRepo) ListCustomFieldValues(context.Context, int64) ([]*model.MediaCustomField, error) {
	return nil, nil
}

func TestCleanupRemovesOrphanAlbumArt(t *testing.T) {
	root := t.TempDir()
	provider := storage.NewLocalProvider(root, t.TempDir())
	station := &model.Station{ID: 1, MediaPath: "st1"}
	ctx := context.Background()

	fs := provider.ForStation(station)
	require.NoError(t, fs.Write(ctx, "albumart/known.jpg", []byte("keep")))
	require.NoError(t, fs.Write(ctx, "albumart/orphan.jpg", []byte("drop")))

	mediaRepo := &uniqueIDRepo{known: map[string]*model.StationMedia{
		"known": {ID: 1, UniqueID: "known"},
	}}
	task := NewCleanupTask(&fakeStationRepo{stations: []*model.Station{station}}, mediaRepo, provider, t.TempDir())

	require.NoError(t, task.Run(ctx, false))

	exists, err := fs.Exists(ctx, "albumart/known.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.Exists(ctx, "albumart/orphan.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCleanupRemovesStaleTempFiles(t *testing.T) {
	tempDir := t.TempDir()

	stale := filepath.Join(tempDir, "media-stale.mp3")
	fresh := filepath.Join(tempDir, "media-fresh.mp3")
	other := filepath.Join(tempDir, "unrelated.txt")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	task := NewCleanupTask(&fakeStationRepo{}, &uniqueIDRepo{}, storage.NewLocalProvider(t.TempDir(), tempDir), tempDir)
	require.NoError(t, task.Run(context.Background(), false))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other, "files outside the media-* pattern are untouched")
}
