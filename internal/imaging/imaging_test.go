package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	info, err := Probe(pngBytes(t, 40, 30))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Width != 40 || info.Height != 30 || info.Format != "png" {
		t.Errorf("Probe() = %+v", info)
	}
}

func TestNormalizeDownscales(t *testing.T) {
	data, mime, err := Normalize(pngBytes(t, MaxWidth*2, MaxHeight/2))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}
	info, err := Probe(data)
	if err != nil {
		t.Fatalf("Probe(normalized) error = %v", err)
	}
	if info.Width > MaxWidth || info.Height > MaxHeight {
		t.Errorf("normalized image %dx%d exceeds cap", info.Width, info.Height)
	}
}

func TestNormalizePassesThroughNonImages(t *testing.T) {
	payload := []byte("%PDF-1.4 not an image")
	data, mime, err := Normalize(payload)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if mime != "application/octet-stream" || !bytes.Equal(data, payload) {
		t.Errorf("non-image payload should pass through untouched")
	}
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		w, h, boxW, boxH int
		wantW, wantH     int
	}{
		{100, 50, 200, 200, 100, 50},   // no upscale
		{400, 200, 200, 200, 200, 100}, // width-bound
		{200, 400, 200, 200, 100, 200}, // height-bound
		{0, 0, 200, 100, 200, 100},     // unknown dims fall back to box
	}
	for _, tt := range tests {
		gotW, gotH := FitBox(tt.w, tt.h, tt.boxW, tt.boxH)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("FitBox(%d,%d,%d,%d) = (%d,%d), want (%d,%d)",
				tt.w, tt.h, tt.boxW, tt.boxH, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
