package artwork

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestProcessDownscalesWideImage(t *testing.T) {
	p := NewProcessor()

	out, err := p.Process(encodePNG(t, 2000, 1000))
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 600, h)
}

func TestProcessDownscalesTallImage(t *testing.T) {
	p := NewProcessor()

	out, err := p.Process(encodePNG(t, 1000, 2400))
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 500, w)
	assert.Equal(t, 1200, h)
}

func TestProcessJPEGWithinBoundsIsPassedThrough(t *testing.T) {
	p := NewProcessor()
	in := encodeJPEG(t, 800, 600)

	out, err := p.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out, "conforming JPEG input must not be re-encoded")
}

func TestProcessPNGWithinBoundsIsConverted(t *testing.T) {
	p := NewProcessor()

	out, err := p.Process(encodePNG(t, 300, 300))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestProcessRejectsNonImageData(t *testing.T) {
	p := NewProcessor()

	_, err := p.Process([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
