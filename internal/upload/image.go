// Package upload validates business images and stores them as resized JPEGs.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"bizpilot/internal/common/config"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/models"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxBytes  = 5 << 20
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 600
	DefaultQuality   = 80

	// Limits on the dimensions a source image may declare. Decoding
	// allocates the full pixel buffer up front.
	MaxSourceSide   = 10000
	MaxSourcePixels = 40_000_000
)

var (
	ErrTooLarge    = errors.New("IMAGE_TOO_LARGE")
	ErrNotAnImage  = errors.New("ONLY_IMAGES_ALLOWED")
	ErrUndecodable = errors.New("IMAGE_DECODE_FAILED")
)

// Processor resizes uploads to fit within the configured box and writes
// them under Directory.
type Processor struct {
	dir       string
	publicURL string
	maxBytes  int64
	maxWidth  int
	maxHeight int
	quality   int
	log       logger.Logger
	now       func() time.Time
}

func NewProcessor(cfg config.UploadConfig, log logger.Logger) *Processor {
	p := &Processor{
		dir:       cfg.Directory,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		maxBytes:  cfg.MaxBytes,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		quality:   cfg.Quality,
		log:       log,
		now:       time.Now,
	}
	if p.dir == "" {
		p.dir = "uploads"
	}
	if p.publicURL == "" {
		p.publicURL = "/api/upload"
	}
	if p.maxBytes <= 0 {
		p.maxBytes = DefaultMaxBytes
	}
	if p.maxWidth <= 0 {
		p.maxWidth = DefaultMaxWidth
	}
	if p.maxHeight <= 0 {
		p.maxHeight = DefaultMaxHeight
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = DefaultQuality
	}
	if p.log == nil {
		p.log = logger.NewNoOpLogger()
	}
	return p
}

func (p *Processor) MaxBytes() int64 { return p.maxBytes }

func (p *Processor) Dir() string { return p.dir }

// Check validates the declared type and size before any bytes are decoded.
func (p *Processor) Check(mimetype string, size int64) error {
	if !strings.HasPrefix(mimetype, "image/") {
		return fmt.Errorf("%w: got %q", ErrNotAnImage, mimetype)
	}
	if size > p.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, p.maxBytes)
	}
	return nil
}

// Save decodes r, shrinks it to fit the box without enlarging and stores
// it as a JPEG.
func (p *Processor) Save(r io.Reader, originalName, mimetype string, size int64) (*models.ImageInfo, error) {
	if err := p.Check(mimetype, size); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, p.maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	out := Fit(src, p.maxWidth, p.maxHeight)

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	filename := fmt.Sprintf("business-%d-%s.jpg", p.now().UnixMilli(), uuid.NewString()[:8])
	f, err := os.Create(filepath.Join(p.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filename, err)
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: p.quality}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("encoding %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing %s: %w", filename, err)
	}

	b := out.Bounds()
	p.log.Info("image stored", map[string]interface{}{
		"filename": filename,
		"source":   format,
		"width":    b.Dx(),
		"height":   b.Dy(),
	})

	return &models.ImageInfo{
		Filename:     filename,
		OriginalName: originalName,
		Mimetype:     "image/jpeg",
		Size:         int64(len(data)),
		URL:          p.publicURL + "/" + filename,
	}, nil
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrUndecodable, w, h)
	}
	if w > MaxSourceSide || h > MaxSourceSide || int64(w)*int64(h) > MaxSourcePixels {
		return fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, w, h)
	}
	return nil
}

// Path resolves a stored filename. Names with path elements are rejected.
func (p *Processor) Path(filename string) (string, bool) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", false
	}
	return filepath.Join(p.dir, filename), true
}

// Fit scales src down to fit within maxW x maxH keeping its aspect ratio.
// Images already inside the box are returned unchanged.
func Fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
