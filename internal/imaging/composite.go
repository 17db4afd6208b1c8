package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// EncodedImage is a PNG image ready to hand to an MCP client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode PNG-encodes img, first resizing it by scale when scale is positive
// and not 1.
func Encode(img image.Image, scale float64) (*EncodedImage, error) {
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(img.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(img.Bounds().Dy())*scale))
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SideBySide places panels left to right, top-aligned, separated by gap
// white pixels, on a white canvas.
func SideBySide(gap int, panels ...image.Image) (*image.NRGBA, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("side by side: no panels")
	}
	gap = max(gap, 0)
	width, height := gap*(len(panels)-1), 0
	for _, p := range panels {
		width += p.Bounds().Dx()
		height = max(height, p.Bounds().Dy())
	}

	canvas := imaging.New(width, height, color.White)
	x := 0
	for _, p := range panels {
		canvas = imaging.Paste(canvas, p, image.Pt(x, 0))
		x += p.Bounds().Dx() + gap
	}
	return canvas, nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
