package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StationFM/model"
)

// listOnlyRepo 只提供检测器需要的列表能力
type listOnlyRepo struct {
	media []*model.StationMedia
}

func (r *listOnlyRepo) FindByID(context.Context, int64, int64) (*model.StationMedia, error) {
	return nil, nil
}

func (r *listOnlyRepo) FindByPath(context.Context, int64, string) (*model.StationMedia, error) {
	return nil, nil
}

func (r *listOnlyRepo) FindByUniqueID(context.Context, int64, string) (*model.StationMedia, error) {
	return nil, nil
}

func (r *listOnlyRepo) ListByStation(context.Context, int64) ([]*model.StationMedia, error) {
	return r.media, nil
}

func (r *listOnlyRepo) Save(context.Context, *model.StationMedia) error   { return nil }
func (r *listOnlyRepo) Delete(context.Context, *model.StationMedia) error { return nil }
func (r *listOnlyRepo) ClearAutoAssignedFields(context.Context, int64) error {
	return nil
}
func (r *listOnlyRepo) AddCustomFieldValue(context.Context, *model.MediaCustomField) error {
	return nil
}
func (r *listOnlyRepo) ListCustomFieldValues(context.Context, int64) ([]*model.MediaCustomField, error) {
	return nil, nil
}

// track 按 mtime 升序构造一条记录，模拟仓储的排序约定
func track(id int64, artist, title string, mtime int64) *model.StationMedia {
	return &model.StationMedia{
		ID:     id,
		Artist: artist,
		Title:  title,
		SongID: model.SongID(artist, title),
		Mtime:  mtime,
	}
}

func TestFindDuplicatesExactPair(t *testing.T) {
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "Daft Punk", "One More Time", 100),
		track(2, "Daft Punk", "One More Time", 200),
		track(3, "Other Artist", "Completely Different Song Name", 300),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Media, 2)
	assert.Equal(t, int64(1), groups[0].Media[0].ID, "oldest record leads the group")
	assert.Equal(t, int64(2), groups[0].Media[1].ID)
}

func TestFindDuplicatesExactPairPicksFirstTwo(t *testing.T) {
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "Queen", "Bohemian Rhapsody", 100),
		track(2, "Queen", "Bohemian Rhapsody", 200),
		track(3, "Queen", "Bohemian Rhapsody", 300),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1, "exact pass pairs only the first two records per identity")
	assert.Len(t, groups[0].Media, 2)
}

func TestFindDuplicatesExactLeadStaysInFuzzyPool(t *testing.T) {
	// 1和2精确配对后，1作为该标识的最早记录仍参与模糊匹配
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "Artist", "Song Name", 100),
		track(2, "Artist", "Song Name", 200),
		track(3, "Artist", "Song Namee", 300),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(1), groups[0].Media[0].ID)
	assert.Equal(t, int64(2), groups[0].Media[1].ID)
	require.Len(t, groups[1].Media, 2)
	assert.Equal(t, int64(3), groups[1].Media[0].ID)
	assert.Equal(t, int64(1), groups[1].Media[1].ID, "pool anchor is appended last")
}

func TestFindDuplicatesNonASCIITitlesGroupTogether(t *testing.T) {
	// 归一化只保留 ASCII 字母数字，纯中文标题都归一化为空串，距离为 0
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "邓丽君", "月亮代表我的心啊", 100),
		track(2, "周杰伦", "千里之外的等待呀", 200),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Media, 2)
}

func TestFindDuplicatesFuzzy(t *testing.T) {
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "The Beatles", "Let It Be", 100),
		track(2, "The Beatles", "Let It Be!", 200),
		track(3, "Unrelated Band", "Something Else Entirely Different", 300),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Media, 2)
	assert.Equal(t, int64(1), groups[0].Media[len(groups[0].Media)-1].ID, "anchor record is appended last")
}

func TestFindDuplicatesFuzzyDistanceLimit(t *testing.T) {
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "Artist", "abcdefghij", 100),
		track(2, "Artist", "abcdefghijklmnop", 200), // distance 6, beyond the limit
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFindDuplicatesMatchedRecordsLeaveThePool(t *testing.T) {
	// 2和3都与1相近；1收走它们之后，2和3之间不再单独成组
	repo := &listOnlyRepo{media: []*model.StationMedia{
		track(1, "Artist", "Song Name", 100),
		track(2, "Artist", "Song Namee", 200),
		track(3, "Artist", "Song Nam", 300),
	}}
	d := NewDetector(repo)

	groups, err := d.FindDuplicates(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Media, 3)
}

func TestNormalizeSongText(t *testing.T) {
	m := &model.StationMedia{Artist: "Daft Punk", Title: "One More Time!"}
	assert.Equal(t, "daftpunkonemoretime", normalizeSongText(m))

	m = &model.StationMedia{Title: "Solo Track"}
	assert.Equal(t, "solotrack", normalizeSongText(m))

	m = &model.StationMedia{Artist: "邓丽君", Title: "甜蜜蜜 2.0"}
	assert.Equal(t, "20", normalizeSongText(m), "non-ASCII runes are stripped")
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
