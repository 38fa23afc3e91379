package vista

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-scroll", "after-scroll"},
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
		got := sanitizeLabel(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueueAppend(t *testing.T) {
	h, _ := newTestHost(t)
	h.Screenshot("a")
	h.Screenshot("b")
	h.Screenshot("c")
	if len(h.screenshotQueue) != 3 {
		t.Fatalf("queue len = %d, want 3", len(h.screenshotQueue))
	}
	if h.screenshotQueue[0] != "a" || h.screenshotQueue[1] != "b" || h.screenshotQueue[2] != "c" {
		t.Errorf("queue = %v, want [a b c]", h.screenshotQueue)
	}
}

func TestNRGBAFromPremultiplied(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255, // opaque red
		64, 32, 0, 128, // half-alpha premultiplied
		0, 0, 0, 0, // transparent
	}
	img := nrgbaFromPremultiplied(pixels, 3, 1)
	if c := img.NRGBAAt(0, 0); c.R != 255 || c.A != 255 {
		t.Errorf("pixel 0 = %v", c)
	}
	if c := img.NRGBAAt(1, 0); c.R != 127 || c.G != 63 || c.A != 128 {
		t.Errorf("pixel 1 = %v, want unpremultiplied (127, 63, 0, 128)", c)
	}
	if c := img.NRGBAAt(2, 0); c.A != 0 {
		t.Errorf("pixel 2 = %v, want transparent", c)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if err := writePNG(path, img); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds().Dx() != 2 {
		t.Errorf("width = %d, want 2", got.Bounds().Dx())
	}
}
