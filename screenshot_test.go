package morph

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"robot", "robot"},
		{"after-takeoff", "after-takeoff"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"MixedCase123", "MixedCase123"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotFormatValid(t *testing.T) {
	if !ScreenshotPNG.Valid() || !ScreenshotWebP.Valid() {
		t.Error("built-in formats reported invalid")
	}
	if ScreenshotFormat("gif").Valid() {
		t.Error("gif reported valid")
	}
	if s := newScreenshotter("x", "gif", zap.NewNop()); s.Format != ScreenshotPNG {
		t.Errorf("invalid format fell back to %q, want png", s.Format)
	}
}

func TestScreenshotQueue(t *testing.T) {
	s := newScreenshotter(t.TempDir(), ScreenshotPNG, zap.NewNop())
	s.Queue("a")
	s.Queue("b")
	if s.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", s.Pending())
	}
}

func TestScreenshotPath(t *testing.T) {
	s := newScreenshotter("shots", ScreenshotWebP, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	stamp := s.now().Format("20060102_150405")
	want := filepath.Join("shots", "20240309_140507_door_open.webp")
	if got := s.path(stamp, "door open"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255, // opaque red
		64, 32, 0, 128, // half-transparent orange
		0, 0, 0, 0, // transparent
	}
	img := unpremultiply(pixels, 3, 1)
	want := []color.NRGBA{
		{255, 0, 0, 255},
		{127, 63, 0, 128},
		{0, 0, 0, 0},
	}
	for x, w := range want {
		if got := img.NRGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 60), uint8(y * 80), 200, 255})
		}
	}
	return img
}

func TestWriteImagePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	src := testImage()
	if err := writeImage(path, src, ScreenshotPNG); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	r, g, b, a := got.At(3, 2).RGBA()
	wr, wg, wb, wa := src.At(3, 2).RGBA()
	if r != wr || g != wg || b != wb || a != wa {
		t.Errorf("pixel (3,2) = %v %v %v %v, want %v %v %v %v", r, g, b, a, wr, wg, wb, wa)
	}
}

func TestWriteImageWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.webp")
	if err := writeImage(path, testImage(), ScreenshotWebP); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		t.Errorf("file does not start with a RIFF/WEBP header: % x", data[:min(len(data), 12)])
	}
}

func TestWriteImageBadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "shot.png")
	if err := writeImage(path, testImage(), ScreenshotPNG); err == nil {
		t.Error("writeImage into a missing directory succeeded")
	}
}
