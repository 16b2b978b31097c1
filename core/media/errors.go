package media

import "errors"

var (
	// ErrNotFound 媒体路径在存储后端中不存在
	ErrNotFound = errors.New("media path not found in storage")
	// ErrUnsupportedFormat 文件无法按音频解析
	ErrUnsupportedFormat = errors.New("file is not a supported audio format")
	// ErrWriteFailure 标签回写失败，存储状态未改动
	ErrWriteFailure = errors.New("failed to write tags to media file")
)
