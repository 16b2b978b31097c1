package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// 标准字段在标签块中使用的键
const (
	TagKeyTitle  = "title"
	TagKeyArtist = "artist"
	TagKeyAlbum  = "album"
	TagKeyLyrics = "unsynchronized_lyric"
	TagKeyISRC   = "isrc"
)

// AudioFileExtensions 管线处理的音频文件格式
var AudioFileExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".aac":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
	".aiff": true,
}

// IsAudioFile checks if a file is a supported audio format.
func IsAudioFile(filename string) bool {
	return AudioFileExtensions[strings.ToLower(filepath.Ext(filename))]
}

// TagBlock 一个标签容器里的全部字段，键统一为小写
type TagBlock struct {
	Format string
	Fields map[string][]string
}

// First returns the first non-empty value for a key within the block.
func (b TagBlock) First(key string) string {
	for _, v := range b.Fields[key] {
		if v != "" {
			return v
		}
	}
	return ""
}

// RawMetadata is the result of parsing one local audio file.
type RawMetadata struct {
	Blocks   []TagBlock
	Duration float64 // seconds; 0 when the probe could not determine it
	Artwork  []byte  // embedded picture data, nil when absent
	Warnings []string
}

// Extractor parses local audio files into raw tag data.
type Extractor struct {
	ffprobePath string
}

// NewExtractor creates a metadata extractor.
func NewExtractor(ffprobePath string) *Extractor {
	return &Extractor{ffprobePath: ffprobePath}
}

// Extract 解析本地音频文件。无法按音频解析是致命错误；
// 可选字段的解析问题只收集为警告。
func (e *Extractor) Extract(localPath string) (*RawMetadata, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", localPath, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	result := &RawMetadata{}

	// 第一块：规范访问器给出的标准字段
	canonical := TagBlock{
		Format: string(meta.Format()),
		Fields: map[string][]string{},
	}
	addField(canonical.Fields, TagKeyTitle, meta.Title())
	addField(canonical.Fields, TagKeyArtist, meta.Artist())
	addField(canonical.Fields, TagKeyAlbum, meta.Album())
	addField(canonical.Fields, TagKeyLyrics, meta.Lyrics())

	// 第二块：原始帧，供自定义字段匹配使用
	raw := TagBlock{
		Format: string(meta.FileType()),
		Fields: map[string][]string{},
	}

	var attachedPicture, commentPicture []byte
	if pic := meta.Picture(); pic != nil {
		attachedPicture = pic.Data
	}

	for key, value := range meta.Raw() {
		key = strings.ToLower(key)
		switch v := value.(type) {
		case string:
			addField(raw.Fields, key, v)
		case int:
			addField(raw.Fields, key, strconv.Itoa(v))
		case *tag.Comm:
			if v != nil {
				addField(raw.Fields, key, v.Text)
			}
		case *tag.Picture:
			// 附图帧之外的图片按注释图处理
			if v != nil && commentPicture == nil && !bytes.Equal(v.Data, attachedPicture) {
				commentPicture = v.Data
			}
		default:
			// Unhandled frame types are dropped, not fatal.
		}
	}

	// ISRC 在 ID3 里是 TSRC 帧，在 vorbis 注释里是 isrc 字段
	if isrc := raw.First("tsrc"); isrc != "" {
		addField(raw.Fields, TagKeyISRC, isrc)
	}
	if canonical.First(TagKeyISRC) == "" && raw.First(TagKeyISRC) != "" {
		addField(canonical.Fields, TagKeyISRC, raw.First(TagKeyISRC))
	}

	result.Blocks = []TagBlock{canonical, raw}

	// 附图优先，注释图兜底
	if attachedPicture != nil {
		result.Artwork = attachedPicture
	} else if commentPicture != nil {
		result.Artwork = commentPicture
	}

	duration, err := e.probeDuration(localPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("duration probe failed: %v", err))
	} else {
		result.Duration = duration
	}

	return result, nil
}

func addField(fields map[string][]string, key, value string) {
	if value == "" {
		return
	}
	fields[key] = append(fields[key], value)
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDuration uses ffprobe to get the duration of an audio file in seconds.
func (e *Extractor) probeDuration(inputFile string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.Command(e.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", inputFile, err, stderr.String())
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w", inputFile, err)
	}

	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output for %s", inputFile)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string %q for %s: %w", probeData.Format.Duration, inputFile, err)
	}

	return duration, nil
}
