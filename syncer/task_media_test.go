package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"StationFM/core/artwork"
	"StationFM/core/media"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
)

type mediaTaskFixture struct {
	task      *CheckMediaTask
	mediaRepo repository.MediaRepository
	station   *model.Station
	mediaDir  string
}

func newMediaTaskFixture(t *testing.T) *mediaTaskFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库在每个连接上是独立的，收紧连接池避免worker看到空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Station{},
		&model.StationMedia{},
		&model.Song{},
		&model.CustomField{},
		&model.MediaCustomField{},
	))

	station := &model.Station{Name: "Test FM", MediaPath: "st1"}
	stationRepo := repository.NewGormStationRepository(db)
	require.NoError(t, stationRepo.Save(context.Background(), station))

	root := t.TempDir()
	mediaDir := filepath.Join(root, "st1")
	require.NoError(t, os.MkdirAll(mediaDir, 0o755))

	mediaRepo := repository.NewGormMediaRepository(db)
	songRepo := repository.NewGormSongRepository(db)
	fieldRepo := repository.NewGormCustomFieldRepository(db)
	provider := storage.NewLocalProvider(root, t.TempDir())
	synchronizer := media.NewSynchronizer(provider, mediaRepo, songRepo, fieldRepo,
		media.NewExtractor("ffprobe"), artwork.NewProcessor())

	task := NewCheckMediaTask(stationRepo, mediaRepo, synchronizer, provider, nil, 2)
	return &mediaTaskFixture{task: task, mediaRepo: mediaRepo, station: station, mediaDir: mediaDir}
}

func writeTaggedMP3(t *testing.T, dir, name, title, artist string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	require.NoError(t, err)
	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(title)
	tag.SetArtist(artist)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())
	return path
}

func TestCheckMediaDiscoversNewFiles(t *testing.T) {
	f := newMediaTaskFixture(t)
	ctx := context.Background()

	writeTaggedMP3(t, f.mediaDir, "one.mp3", "Song One", "Artist A")
	writeTaggedMP3(t, f.mediaDir, "two.mp3", "Song Two", "Artist B")
	require.NoError(t, os.WriteFile(filepath.Join(f.mediaDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.mediaDir, "albumart"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.mediaDir, "albumart", "x.jpg"), []byte("img"), 0o644))

	require.NoError(t, f.task.Run(ctx, false))

	records, err := f.mediaRepo.ListByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.Len(t, records, 2, "non-audio files and the albumart prefix are ignored")

	byPath := map[string]*model.StationMedia{}
	for _, r := range records {
		byPath[r.Path] = r
	}
	require.Contains(t, byPath, "one.mp3")
	assert.Equal(t, "Song One", byPath["one.mp3"].Title)
	assert.Equal(t, "Artist A", byPath["one.mp3"].Artist)
	assert.NotEmpty(t, byPath["one.mp3"].SongID)
}

func TestCheckMediaPrunesVanishedFiles(t *testing.T) {
	f := newMediaTaskFixture(t)
	ctx := context.Background()

	path := writeTaggedMP3(t, f.mediaDir, "gone.mp3", "Gone", "Nobody")
	require.NoError(t, f.task.Run(ctx, false))

	records, err := f.mediaRepo.ListByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, os.Remove(path))
	require.NoError(t, f.task.Run(ctx, false))

	records, err = f.mediaRepo.ListByStation(ctx, f.station.ID)
	require.NoError(t, err)
	assert.Empty(t, records, "records for vanished files are pruned")
}

func TestCheckMediaSecondRunSkipsUnchanged(t *testing.T) {
	f := newMediaTaskFixture(t)
	ctx := context.Background()

	writeTaggedMP3(t, f.mediaDir, "steady.mp3", "Steady", "Artist")
	require.NoError(t, f.task.Run(ctx, false))

	records, err := f.mediaRepo.ListByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	firstMtime := records[0].Mtime

	require.NoError(t, f.task.Run(ctx, false))

	records, err = f.mediaRepo.ListByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, firstMtime, records[0].Mtime, "unchanged file keeps its stored mtime")
}
