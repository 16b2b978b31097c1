package report

import (
	"context"
	"strings"

	"StationFM/model"
	"StationFM/repository"
)

// 模糊匹配允许的最大编辑距离
const maxEditDistance = 5

// DuplicateGroup 一组疑似重复的媒体记录，锚记录排在最后
type DuplicateGroup struct {
	Media []*model.StationMedia `json:"media"`
}

// Detector 扫描电台曲库产出重复报告
type Detector struct {
	mediaRepo repository.MediaRepository
}

func NewDetector(mediaRepo repository.MediaRepository) *Detector {
	return &Detector{mediaRepo: mediaRepo}
}

// FindDuplicates 两趟检测：先按 song_id 精确配对，再对剩余记录做模糊匹配。
// 记录按 mtime 升序参与，保证老文件充当组内的保留基准。
func (d *Detector) FindDuplicates(ctx context.Context, stationID int64) ([]DuplicateGroup, error) {
	all, err := d.mediaRepo.ListByStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	var groups []DuplicateGroup

	// 第一趟：song_id 完全相同的，每个标识只配最早的两条
	seen := map[string]*model.StationMedia{}
	paired := map[int64]bool{}
	for _, m := range all {
		if m.SongID == "" {
			continue
		}
		first, ok := seen[m.SongID]
		if !ok {
			seen[m.SongID] = m
			continue
		}
		if paired[first.ID] {
			continue
		}
		groups = append(groups, DuplicateGroup{Media: []*model.StationMedia{first, m}})
		paired[first.ID] = true
		paired[m.ID] = true
	}

	// 第二趟：对剩余记录做编辑距离匹配，命中的移出池子。
	// 每个 song_id 只有最早的记录进池，精确配对的头部记录仍可参与模糊匹配
	pool := make([]*model.StationMedia, 0, len(all))
	for _, m := range all {
		if m.SongID != "" && seen[m.SongID] != m {
			continue
		}
		pool = append(pool, m)
	}

	for i := 0; i < len(pool); i++ {
		anchor := pool[i]
		if anchor == nil {
			continue
		}
		anchorText := normalizeSongText(anchor)

		var matches []*model.StationMedia
		for j := i + 1; j < len(pool); j++ {
			candidate := pool[j]
			if candidate == nil {
				continue
			}
			if levenshtein(anchorText, normalizeSongText(candidate)) <= maxEditDistance {
				matches = append(matches, candidate)
				pool[j] = nil
			}
		}

		if len(matches) > 0 {
			groups = append(groups, DuplicateGroup{Media: append(matches, anchor)})
			pool[i] = nil
		}
	}

	return groups, nil
}

// normalizeSongText 小写并只保留 ASCII 字母数字后比较
func normalizeSongText(m *model.StationMedia) string {
	text := model.SongText(m.Artist, m.Title)
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// levenshtein 双行动态规划求编辑距离
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
