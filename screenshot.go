package morph

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// ScreenshotFormat selects the file encoding for captured frames.
type ScreenshotFormat string

const (
	ScreenshotPNG  ScreenshotFormat = "png"
	ScreenshotWebP ScreenshotFormat = "webp"
)

// Valid reports whether f is a supported format.
func (f ScreenshotFormat) Valid() bool {
	return f == ScreenshotPNG || f == ScreenshotWebP
}

// screenshotter queues labeled captures and writes them after Draw.
type screenshotter struct {
	Dir    string
	Format ScreenshotFormat

	queue   []string
	written []string
	log     *zap.Logger
	now     func() time.Time
}

func newScreenshotter(dir string, format ScreenshotFormat, log *zap.Logger) *screenshotter {
	if !format.Valid() {
		format = ScreenshotPNG
	}
	return &screenshotter{Dir: dir, Format: format, log: log, now: time.Now}
}

// Queue records a capture to be taken at the end of the current frame.
func (s *screenshotter) Queue(label string) {
	s.queue = append(s.queue, label)
}

// Pending returns the number of queued captures.
func (s *screenshotter) Pending() int {
	return len(s.queue)
}

// flush captures screen once for every queued label. Failures are logged and
// the frame continues.
func (s *screenshotter) flush(screen *ebiten.Image) {
	if len(s.queue) == 0 {
		return
	}
	defer func() { s.queue = s.queue[:0] }()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.log.Error("screenshot dir", zap.String("dir", s.Dir), zap.Error(err))
		return
	}

	bounds := screen.Bounds()
	pixels := make([]byte, 4*bounds.Dx()*bounds.Dy())
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, bounds.Dx(), bounds.Dy())

	stamp := s.now().Format("20060102_150405")
	for _, label := range s.queue {
		path := s.path(stamp, label)
		if err := writeImage(path, img, s.Format); err != nil {
			s.log.Error("screenshot write", zap.String("label", label), zap.Error(err))
			continue
		}
		s.written = append(s.written, path)
		s.log.Info("screenshot saved", zap.String("path", path))
	}
}

func (s *screenshotter) path(stamp, label string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.%s", stamp, sanitizeLabel(label), s.Format))
}

// unpremultiply converts premultiplied RGBA pixels to a straight-alpha image.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writeImage encodes img to path in the given format.
func writeImage(path string, img image.Image, format ScreenshotFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	switch format {
	case ScreenshotWebP:
		err = nativewebp.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
