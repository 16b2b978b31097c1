package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"StationFM/model"
	"StationFM/repository"
	"StationFM/storage"
)

// TagWriter 把数据库里的规范元数据回写进音频文件本身
type TagWriter struct {
	provider  storage.Provider
	mediaRepo repository.MediaRepository
}

func NewTagWriter(provider storage.Provider, mediaRepo repository.MediaRepository) *TagWriter {
	return &TagWriter{provider: provider, mediaRepo: mediaRepo}
}

// WriteToFile 将记录的元数据写回文件，返回是否实际写入。
// 只支持 mp3 和 flac，其余格式返回 (false, nil)。
// 任何失败都不会改动数据库状态。
func (w *TagWriter) WriteToFile(ctx context.Context, station *model.Station, media *model.StationMedia) (bool, error) {
	ext := strings.ToLower(filepath.Ext(media.Path))
	if ext != ".mp3" && ext != ".flac" {
		return false, nil
	}

	fs := w.provider.ForStation(station)

	var localPath, tmpPath string
	if fs.IsLocal() {
		p, err := fs.LocalPath(media.Path)
		if err != nil {
			return false, err
		}
		localPath = p
	} else {
		p, err := fs.CopyToTemp(ctx, media.Path)
		if err != nil {
			return false, fmt.Errorf("failed to materialize %q: %w", media.Path, err)
		}
		localPath = p
		tmpPath = p
		defer os.Remove(tmpPath)
	}

	art, err := fs.Read(ctx, media.ArtPath())
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		return false, err
	}

	switch ext {
	case ".mp3":
		err = writeID3Tags(localPath, media, art)
	case ".flac":
		err = writeFlacTags(localPath, media, art)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrWriteFailure, media.Path, err)
	}

	if tmpPath != "" {
		if err := fs.UpdateFromTemp(ctx, tmpPath, media.Path); err != nil {
			return false, fmt.Errorf("failed to upload tagged file %q: %w", media.Path, err)
		}
	}

	// 回写后文件时间戳前移，记录同步更新避免下一轮误判为外部改动
	media.Mtime = time.Now().Unix()
	if err := w.mediaRepo.Save(ctx, media); err != nil {
		return false, err
	}
	return true, nil
}

// writeID3Tags 写 ID3v2.3 帧，同时维护文件尾部的 ID3v1 块以兼容老播放器
func writeID3Tags(path string, media *model.StationMedia, art []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return err
	}

	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(media.Title)
	tag.SetArtist(media.Artist)
	tag.SetAlbum(media.Album)

	if media.Lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            media.Lyrics,
		})
	}

	if len(art) > 0 {
		picture := id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "cover art",
			Picture:     art,
		}
		tag.AddAttachedPicture(picture)
		// 第二份 "other" 类型图片，部分旧客户端只认这一种
		picture.PictureType = id3v2.PTOther
		tag.AddAttachedPicture(picture)
	}

	if err := tag.Save(); err != nil {
		tag.Close()
		return err
	}
	if err := tag.Close(); err != nil {
		return err
	}

	return writeID3v1Trailer(path, media)
}

// writeID3v1Trailer 维护 128 字节的 ID3v1 尾块。已有则覆盖，没有则追加。
func writeID3v1Trailer(path string, media *model.StationMedia) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	offset := info.Size()
	if info.Size() >= 128 {
		header := make([]byte, 3)
		if _, err := f.ReadAt(header, info.Size()-128); err != nil {
			return err
		}
		if string(header) == "TAG" {
			offset = info.Size() - 128
		}
	}

	block := make([]byte, 128)
	copy(block[0:3], "TAG")
	copyID3v1Field(block[3:33], media.Title)
	copyID3v1Field(block[33:63], media.Artist)
	copyID3v1Field(block[63:93], media.Album)
	block[127] = 0xFF // genre: none

	_, err = f.WriteAt(block, offset)
	return err
}

// copyID3v1Field ID3v1 只接受 Latin-1 定长字段，超长截断，非 ASCII 用 ? 代替
func copyID3v1Field(dst []byte, value string) {
	i := 0
	for _, r := range value {
		if i >= len(dst) {
			break
		}
		if r < 0x20 || r > 0xFF {
			dst[i] = '?'
		} else {
			dst[i] = byte(r)
		}
		i++
	}
}

// writeFlacTags 整体替换 Vorbis 注释块和图片块
func writeFlacTags(path string, media *model.StationMedia, art []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return err
	}

	comment := flacvorbis.New()
	if err := comment.Add(flacvorbis.FIELD_TITLE, media.Title); err != nil {
		return err
	}
	if err := comment.Add(flacvorbis.FIELD_ARTIST, media.Artist); err != nil {
		return err
	}
	if err := comment.Add(flacvorbis.FIELD_ALBUM, media.Album); err != nil {
		return err
	}
	if media.Lyrics != "" {
		if err := comment.Add("LYRICS", media.Lyrics); err != nil {
			return err
		}
	}
	if len(art) > 0 {
		// 老式封面字段，供不支持 picture 块的客户端读取
		if err := comment.Add("COVERART", base64.StdEncoding.EncodeToString(art)); err != nil {
			return err
		}
		if err := comment.Add("COVERARTMIME", "image/jpeg"); err != nil {
			return err
		}
	}

	// 旧的注释块和图片块全部丢弃
	blocks := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		blocks = append(blocks, block)
	}
	f.Meta = blocks

	commentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &commentBlock)

	if len(art) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "cover art", art, "image/jpeg")
		if err != nil {
			return err
		}
		pictureBlock := picture.Marshal()
		f.Meta = append(f.Meta, &pictureBlock)
	}

	return f.Save(path)
}
