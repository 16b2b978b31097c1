package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"  // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage 图片无法解码；调用方跳过封面处理，不中断管线
var ErrUnsupportedImage = errors.New("artwork: unsupported image format")

// 封面归一化的目标边界
const (
	maxWidth  = 1200
	maxHeight = 1200
)

const jpegQuality = 90

// Processor normalizes raw embedded artwork into a bounded-size JPEG.
type Processor struct{}

// NewProcessor creates an artwork processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process 把原始图片字节归一化为不超过 1200x1200 的 JPEG。
// 已经符合要求的 JPEG 原样透传，避免二次有损编码。
func (p *Processor) Process(raw []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	sourceInsideDest := cfg.Width <= maxWidth && cfg.Height <= maxHeight

	if format == "jpeg" && sourceInsideDest {
		return raw, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if !sourceInsideDest {
		destWidth, destHeight := scaleToFit(cfg.Width, cfg.Height)
		img = imaging.Resize(img, destWidth, destHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode artwork as JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleToFit 计算等比缩放到 1200x1200 画板内的目标尺寸。
// 用画板与原图的宽高比决定哪条边贴住边界。
func scaleToFit(width, height int) (int, int) {
	sourceRatio := float64(width) / float64(height)
	destRatio := float64(maxWidth) / float64(maxHeight)

	if destRatio > sourceRatio {
		return int(float64(maxHeight) * sourceRatio), maxHeight
	}
	return maxWidth, int(float64(maxWidth) / sourceRatio)
}
