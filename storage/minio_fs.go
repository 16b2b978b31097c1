package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"StationFM/model"

	"github.com/minio/minio-go/v7"
)

// MinioFilesystem 基于 MinIO 对象存储实现存储端口，每个电台一个对象前缀
type MinioFilesystem struct {
	client  *minio.Client
	bucket  string
	prefix  string
	tempDir string
}

// NewMinioFilesystem creates an object-storage backed filesystem for one prefix.
func NewMinioFilesystem(client *minio.Client, bucket, prefix, tempDir string) *MinioFilesystem {
	return &MinioFilesystem{client: client, bucket: bucket, prefix: prefix, tempDir: tempDir}
}

func (fs *MinioFilesystem) objectName(p string) string {
	return path.Join(fs.prefix, p)
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject"
}

func (fs *MinioFilesystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := fs.client.StatObject(ctx, fs.bucket, fs.objectName(p), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %q: %w", p, err)
	}
	return true, nil
}

func (fs *MinioFilesystem) Stat(ctx context.Context, p string) (int64, error) {
	info, err := fs.client.StatObject(ctx, fs.bucket, fs.objectName(p), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, ErrNotExist
		}
		return 0, fmt.Errorf("failed to stat object %q: %w", p, err)
	}
	return info.LastModified.Unix(), nil
}

func (fs *MinioFilesystem) Read(ctx context.Context, p string) ([]byte, error) {
	object, err := fs.client.GetObject(ctx, fs.bucket, fs.objectName(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", p, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read object %q: %w", p, err)
	}
	return data, nil
}

func (fs *MinioFilesystem) Write(ctx context.Context, p string, data []byte) error {
	_, err := fs.client.PutObject(ctx, fs.bucket, fs.objectName(p),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(p)})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", p, err)
	}
	return nil
}

func (fs *MinioFilesystem) Delete(ctx context.Context, p string) error {
	exists, err := fs.Exists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotExist
	}
	if err := fs.client.RemoveObject(ctx, fs.bucket, fs.objectName(p), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q: %w", p, err)
	}
	return nil
}

func (fs *MinioFilesystem) List(ctx context.Context, prefix string) ([]Entry, error) {
	fullPrefix := fs.objectName(prefix)
	if fullPrefix != "" && !strings.HasSuffix(fullPrefix, "/") {
		fullPrefix += "/"
	}

	entries := make([]Entry, 0)
	for object := range fs.client.ListObjects(ctx, fs.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, object.Err)
		}
		rel := strings.TrimPrefix(object.Key, fs.prefix)
		rel = strings.TrimPrefix(rel, "/")
		entries = append(entries, Entry{
			Path:  rel,
			Mtime: object.LastModified.Unix(),
			Size:  object.Size,
		})
	}
	return entries, nil
}

func (fs *MinioFilesystem) IsLocal() bool {
	return false
}

func (fs *MinioFilesystem) LocalPath(string) (string, error) {
	return "", ErrNotLocal
}

func (fs *MinioFilesystem) CopyToTemp(ctx context.Context, p string) (string, error) {
	object, err := fs.client.GetObject(ctx, fs.bucket, fs.objectName(p), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get object %q: %w", p, err)
	}
	defer object.Close()

	tmp, err := os.CreateTemp(fs.tempDir, "media-*"+filepath.Ext(p))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %q: %w", p, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, object); err != nil {
		os.Remove(tmp.Name())
		if isNoSuchKey(err) {
			return "", ErrNotExist
		}
		return "", fmt.Errorf("failed to copy object %q to temp: %w", p, err)
	}
	return tmp.Name(), nil
}

func (fs *MinioFilesystem) UpdateFromTemp(ctx context.Context, tmpPath, p string) error {
	file, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to open temp file %q: %w", tmpPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat temp file %q: %w", tmpPath, err)
	}

	_, err = fs.client.PutObject(ctx, fs.bucket, fs.objectName(p), file, info.Size(),
		minio.PutObjectOptions{ContentType: contentTypeFor(p)})
	if err != nil {
		return fmt.Errorf("failed to put object %q from temp: %w", p, err)
	}
	return nil
}

func contentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gz":
		return "application/gzip"
	default:
		return "application/octet-stream"
	}
}

// minioProvider 每个电台一个对象前缀
type minioProvider struct {
	client  *minio.Client
	bucket  string
	tempDir string
}

// NewMinioProvider creates a provider serving per-station MinIO filesystems.
func NewMinioProvider(client *minio.Client, bucket, tempDir string) Provider {
	return &minioProvider{client: client, bucket: bucket, tempDir: tempDir}
}

func (p *minioProvider) ForStation(station *model.Station) Filesystem {
	prefix := station.MediaPath
	if prefix == "" {
		prefix = fmt.Sprintf("station_%d", station.ID)
	}
	prefix = strings.Trim(prefix, "/")
	return NewMinioFilesystem(p.client, p.bucket, prefix, p.tempDir)
}
