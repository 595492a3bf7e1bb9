// Package codec decodes, crops, resamples and re-encodes poster images.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// DefaultJPEGQuality is the quality used for every cached image.
const DefaultJPEGQuality = 90

// ErrDecode is returned when source bytes cannot be decoded.
var ErrDecode = errors.New("decode failed")

// Codec is the image codec used by the transform cache.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Crop(img image.Image, rect image.Rectangle) image.Image
	Resize(img image.Image, width, height int) image.Image
	Encode(img image.Image) ([]byte, error)
}

// ImagingCodec implements Codec on top of disintegration/imaging. Resampling
// always uses the Lanczos filter and output is always baseline JPEG.
type ImagingCodec struct {
	Quality    int
	Background color.Color // alpha is flattened onto this colour
}

// New creates a codec with the default JPEG quality and a white background.
func New() *ImagingCodec {
	return &ImagingCodec{
		Quality:    DefaultJPEGQuality,
		Background: color.White,
	}
}

// Decode decodes any supported format. WebP goes through chai2010/webp, the
// rest through the image formats registered with the standard library.
func (c *ImagingCodec) Decode(data []byte) (image.Image, error) {
	if IsWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: webp: %v", ErrDecode, err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Crop returns the part of img inside rect.
func (c *ImagingCodec) Crop(img image.Image, rect image.Rectangle) image.Image {
	// rect is relative to the image origin, imaging.Crop wants it in bounds space
	return imaging.Crop(img, rect.Add(img.Bounds().Min))
}

// Resize resamples img to exactly width×height with a Lanczos filter.
func (c *ImagingCodec) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Encode flattens any alpha channel and encodes img as JPEG.
func (c *ImagingCodec) Encode(img image.Image) ([]byte, error) {
	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.flatten(img), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten composites img onto an opaque background since JPEG has no alpha.
func (c *ImagingCodec) flatten(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}

	background := c.Background
	if background == nil {
		background = color.White
	}
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), background)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// ReadHeader returns the pixel dimensions of an encoded image without
// decoding the pixels.
func ReadHeader(data []byte) (width, height int, err error) {
	if IsWebP(data) {
		width, height, _, err = webp.GetInfo(data)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: webp header: %v", ErrDecode, err)
		}
		return width, height, nil
	}

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return config.Width, config.Height, nil
}

// IsWebP reports whether data starts with a RIFF/WEBP signature.
func IsWebP(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

// Placeholder generates a neutral grey JPEG used in place of images that fail
// to decode.
func Placeholder(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid placeholder size %dx%d", width, height)
	}

	img := imaging.New(width, height, color.NRGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// SourceImage is one portrait read from the input archive. Width and Height
// come from the image header and are zero when the header is unreadable.
type SourceImage struct {
	Identity string
	Data     []byte
	Width    int
	Height   int
}

// NewSourceImage reads the header of data once. A header error is returned
// alongside a usable SourceImage so callers can defer the failure to layout.
func NewSourceImage(identity string, data []byte) (*SourceImage, error) {
	img := &SourceImage{Identity: identity, Data: data}
	width, height, err := ReadHeader(data)
	if err != nil {
		return img, fmt.Errorf("%s: %w", identity, err)
	}
	img.Width = width
	img.Height = height
	return img, nil
}

// Decodable reports whether the header yielded usable dimensions.
func (s *SourceImage) Decodable() bool {
	return s.Width > 0 && s.Height > 0
}
