package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StationFM/core/artwork"
	"StationFM/logger"
	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
)

// Synchronizer 驱动单条媒体记录的元数据同步：
// 变更检测 → 提取 → 规整 → 封面处理 → 持久化。
type Synchronizer struct {
	provider  storage.Provider
	mediaRepo repository.MediaRepository
	songRepo  repository.SongRepository
	fieldRepo repository.CustomFieldRepository
	extractor *Extractor
	artwork   *artwork.Processor
}

// NewSynchronizer creates the media synchronizer.
func NewSynchronizer(
	provider storage.Provider,
	mediaRepo repository.MediaRepository,
	songRepo repository.SongRepository,
	fieldRepo repository.CustomFieldRepository,
	extractor *Extractor,
	artworkProcessor *artwork.Processor,
) *Synchronizer {
	return &Synchronizer{
		provider:  provider,
		mediaRepo: mediaRepo,
		songRepo:  songRepo,
		fieldRepo: fieldRepo,
		extractor: extractor,
		artwork:   artworkProcessor,
	}
}

// ProcessMedia 对一条记录执行处理步骤，返回是否实际重新处理。
// 跳过规则：非强制且存储时间戳未超过记录的 mtime 时不处理。
func (s *Synchronizer) ProcessMedia(ctx context.Context, station *model.Station, media *model.StationMedia, force bool) (bool, error) {
	fs := s.provider.ForStation(station)

	exists, err := fs.Exists(ctx, media.Path)
	if err != nil {
		return false, fmt.Errorf("failed to check media %q: %w", media.Path, err)
	}
	if !exists {
		return false, fmt.Errorf("%w: %q", ErrNotFound, media.Path)
	}

	storageMtime, err := fs.Stat(ctx, media.Path)
	if err != nil {
		return false, fmt.Errorf("failed to stat media %q: %w", media.Path, err)
	}

	if !force && !media.NeedsReprocessing(storageMtime) {
		return false, nil
	}

	localPath, tmpPath, err := s.localize(ctx, fs, media.Path)
	if err != nil {
		return false, err
	}

	loadErr := s.LoadFromFile(ctx, station, media, localPath)

	// 临时副本无论成败都要清理；清理失败只告警，不能盖过处理结果
	if tmpPath != "" {
		if err := os.Remove(tmpPath); err != nil {
			logger.Warn("failed to remove temp media copy",
				logger.String("tmpPath", tmpPath),
				logger.ErrorField(err))
		}
	}

	if loadErr != nil {
		return false, loadErr
	}

	// mtime 取本次调用开始时观察到的存储时间戳
	media.Mtime = storageMtime
	if err := s.mediaRepo.Save(ctx, media); err != nil {
		return false, err
	}

	return true, nil
}

// localize 取得文件的本地可读路径；远端后端时物化临时副本（第二个返回值非空）
func (s *Synchronizer) localize(ctx context.Context, fs storage.Filesystem, path string) (string, string, error) {
	if fs.IsLocal() {
		localPath, err := fs.LocalPath(path)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve local path for %q: %w", path, err)
		}
		return localPath, "", nil
	}

	tmpPath, err := fs.CopyToTemp(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("failed to materialize %q: %w", path, err)
	}
	return tmpPath, tmpPath, nil
}

// GetOrCreate 按路径查找或新建媒体记录并执行处理
func (s *Synchronizer) GetOrCreate(ctx context.Context, station *model.Station, path string) (*model.StationMedia, error) {
	path = normalizePath(path)

	media, err := s.mediaRepo.FindByPath(ctx, station.ID, path)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = model.NewStationMedia(station.ID, path)
	}

	if _, err := s.ProcessMedia(ctx, station, media, false); err != nil {
		return nil, err
	}
	return media, nil
}

// UploadFile 接收上传的临时文件：复用或新建记录，直接对临时路径跑提取管线
// （绕过 mtime 检查），写入存储并把 mtime 置为当前时间。
func (s *Synchronizer) UploadFile(ctx context.Context, station *model.Station, tmpPath, dest string) (*model.StationMedia, error) {
	dest = normalizePath(dest)

	media, err := s.mediaRepo.FindByPath(ctx, station.ID, dest)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = model.NewStationMedia(station.ID, dest)
	}

	if err := s.LoadFromFile(ctx, station, media, tmpPath); err != nil {
		return nil, err
	}

	fs := s.provider.ForStation(station)
	if err := fs.UpdateFromTemp(ctx, tmpPath, dest); err != nil {
		return nil, fmt.Errorf("failed to store uploaded file %q: %w", dest, err)
	}

	media.Mtime = time.Now().Unix()
	if err := s.mediaRepo.Save(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// LoadFromFile 对一个本地文件执行提取和规整，并把结果写到记录上
func (s *Synchronizer) LoadFromFile(ctx context.Context, station *model.Station, media *model.StationMedia, localPath string) error {
	raw, err := s.extractor.Extract(localPath)
	if err != nil {
		return err
	}

	for _, warning := range raw.Warnings {
		logger.Warn("media file parse warning",
			logger.String("path", media.Path),
			logger.String("warning", warning))
	}

	if raw.Duration > 0 {
		media.Duration = raw.Duration
	}

	// 自定义字段需要记录主键，新记录先落库
	if media.ID == 0 {
		if err := s.mediaRepo.Save(ctx, media); err != nil {
			return err
		}
	}

	// 上一轮自动赋值的字段先整体失效
	if err := s.mediaRepo.ClearAutoAssignedFields(ctx, media.ID); err != nil {
		return err
	}

	autoFields, err := s.fieldRepo.AutoAssignableFields(ctx)
	if err != nil {
		return err
	}

	s.applyTagBlocks(ctx, media, raw.Blocks, autoFields)

	if len(raw.Artwork) > 0 {
		if err := s.WriteAlbumArt(ctx, station, media, raw.Artwork); err != nil {
			// 封面失败不中断管线
			logger.Warn("failed to process album art",
				logger.String("path", media.Path),
				logger.ErrorField(err))
		}
	}

	s.applyTitleFallback(media)

	song, err := s.songRepo.GetOrCreate(ctx, media.Artist, media.Title)
	if err != nil {
		return err
	}
	media.SongID = song.ID

	return nil
}

// applyTagBlocks 把标签块映射到标准字段和自定义字段。
// 标准字段按"跨块第一个非空值生效"处理，本轮已赋的值不被后续块覆盖。
func (s *Synchronizer) applyTagBlocks(ctx context.Context, media *model.StationMedia, blocks []TagBlock, autoFields map[string]*model.CustomField) {
	assigned := map[string]bool{}
	setters := map[string]func(string){
		TagKeyTitle:  func(v string) { media.Title = v },
		TagKeyArtist: func(v string) { media.Artist = v },
		TagKeyAlbum:  func(v string) { media.Album = v },
		TagKeyLyrics: func(v string) { media.Lyrics = v },
		TagKeyISRC:   func(v string) { media.ISRC = v },
	}

	for _, block := range blocks {
		for key, set := range setters {
			if assigned[key] {
				continue
			}
			if value := block.First(key); value != "" {
				set(CleanTagString(value))
				assigned[key] = true
			}
		}

		// 同一字段跨块出现多次时全部保留为独立关联
		for key, values := range block.Fields {
			field, ok := autoFields[key]
			if !ok {
				continue
			}
			for _, value := range values {
				if value == "" {
					continue
				}
				row := &model.MediaCustomField{
					MediaID:      media.ID,
					FieldID:      field.ID,
					Value:        CleanTagString(value),
					AutoAssigned: true,
				}
				if err := s.mediaRepo.AddCustomFieldValue(ctx, row); err != nil {
					logger.Warn("failed to store custom field value",
						logger.String("field", field.ShortName),
						logger.ErrorField(err))
				}
			}
		}
	}
}

// applyTitleFallback 标签里没有标题时从文件名推导标题和艺术家
func (s *Synchronizer) applyTitleFallback(media *model.StationMedia) {
	if media.Title != "" {
		return
	}

	filename := filepath.Base(media.Path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")

	// 只按最后一个连字符切：前半是艺术家，后半是标题
	idx := strings.LastIndex(filename, "-")
	if idx < 0 {
		media.Title = strings.TrimSpace(filename)
		media.Artist = ""
		return
	}

	media.Title = strings.TrimSpace(filename[idx+1:])
	media.Artist = strings.TrimSpace(filename[:idx])
}

// WriteAlbumArt 归一化并立即写入封面。写入即时落盘，后续失败不会丢掉已存的封面。
func (s *Synchronizer) WriteAlbumArt(ctx context.Context, station *model.Station, media *model.StationMedia, raw []byte) error {
	processed, err := s.artwork.Process(raw)
	if err != nil {
		return err
	}

	fs := s.provider.ForStation(station)
	if err := fs.Write(ctx, media.ArtPath(), processed); err != nil {
		return fmt.Errorf("failed to store album art for %q: %w", media.Path, err)
	}

	media.ArtUpdatedAt = time.Now().Unix()
	return s.mediaRepo.Save(ctx, media)
}

// ReadAlbumArt 读取已存的封面，不存在时返回 nil
func (s *Synchronizer) ReadAlbumArt(ctx context.Context, station *model.Station, media *model.StationMedia) ([]byte, error) {
	fs := s.provider.ForStation(station)
	data, err := fs.Read(ctx, media.ArtPath())
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// RemoveAlbumArt 删除封面并清零时间戳
func (s *Synchronizer) RemoveAlbumArt(ctx context.Context, station *model.Station, media *model.StationMedia) error {
	fs := s.provider.ForStation(station)
	if err := fs.Delete(ctx, media.ArtPath()); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return err
	}

	media.ArtUpdatedAt = 0
	return s.mediaRepo.Save(ctx, media)
}

// Delete 删除存储对象、封面和记录
func (s *Synchronizer) Delete(ctx context.Context, station *model.Station, media *model.StationMedia) error {
	fs := s.provider.ForStation(station)

	if err := fs.Delete(ctx, media.Path); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return fmt.Errorf("failed to delete media file %q: %w", media.Path, err)
	}
	if err := fs.Delete(ctx, media.ArtPath()); err != nil && !errors.Is(err, storage.ErrNotExist) {
		logger.Warn("failed to delete album art",
			logger.String("path", media.ArtPath()),
			logger.ErrorField(err))
	}

	return s.mediaRepo.Delete(ctx, media)
}

// normalizePath 去掉 "scheme://" 前缀和多余的斜杠
func normalizePath(path string) string {
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
	}
	return strings.TrimPrefix(path, "/")
}

// FormatDuration renders a fractional duration in seconds as mm:ss.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return strconv.Itoa(total/60) + ":" + fmt.Sprintf("%02d", total%60)
}
