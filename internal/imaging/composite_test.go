package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
)

func TestEncode(t *testing.T) {
	img := solidImage(40, 20, color.RGBA{10, 20, 30, 255})

	result, err := Encode(img, 1.0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Width != 40 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 40x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 40 {
		t.Errorf("decoded width: got %d, want 40", decoded.Bounds().Dx())
	}
}

func TestEncode_WithScale(t *testing.T) {
	img := solidImage(100, 50, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		scale float64
		w, h  int
	}{
		{2.0, 200, 100},
		{0.5, 50, 25},
		{0, 100, 50},
		{-1, 100, 50},
	}
	for _, tt := range tests {
		result, err := Encode(img, tt.scale)
		if err != nil {
			t.Fatalf("Encode(scale=%v) failed: %v", tt.scale, err)
		}
		if result.Width != tt.w || result.Height != tt.h {
			t.Errorf("scale %v: got %dx%d, want %dx%d", tt.scale, result.Width, result.Height, tt.w, tt.h)
		}
	}
}

func TestSideBySide(t *testing.T) {
	left := solidImage(10, 8, color.RGBA{0, 0, 0, 255})
	right := solidImage(6, 12, color.RGBA{255, 0, 0, 255})

	canvas, err := SideBySide(4, left, right)
	if err != nil {
		t.Fatalf("SideBySide failed: %v", err)
	}
	if canvas.Bounds().Dx() != 20 || canvas.Bounds().Dy() != 12 {
		t.Fatalf("canvas: got %v, want 20x12", canvas.Bounds())
	}

	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{0, 0, 0, 255}},
		{9, 7, color.NRGBA{0, 0, 0, 255}},
		{12, 0, color.NRGBA{255, 255, 255, 255}}, // gap
		{5, 10, color.NRGBA{255, 255, 255, 255}}, // below the short panel
		{14, 11, color.NRGBA{255, 0, 0, 255}},
	}
	for _, c := range checks {
		if got := canvas.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestSideBySide_NoPanels(t *testing.T) {
	if _, err := SideBySide(2); err == nil {
		t.Error("SideBySide should fail without panels")
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := image.NewGray(image.Rect(0, 0, 7, 3))
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	cache := NewImageCache()
	dims, err := GetDimensions(cache, path)
	if err != nil {
		t.Fatalf("reloading saved image: %v", err)
	}
	if dims.Width != 7 || dims.Height != 3 {
		t.Errorf("dimensions: got %dx%d, want 7x3", dims.Width, dims.Height)
	}

	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "out.png"), img); err == nil {
		t.Error("SavePNG should fail for a missing directory")
	}
}
