// Package imaging decodes, downscales, and re-encodes raster images so that
// uploads and embedded report images stay within bounded dimensions and size.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// MaxWidth and MaxHeight cap stored and embedded rasters, matching the
// evidence-compression limits used on upload.
const (
	MaxWidth  = 1920
	MaxHeight = 1080
)

const jpegQuality = 70

// Info describes a decoded raster without holding its pixels.
type Info struct {
	Width  int
	Height int
	Format string // "jpeg", "png", ...
}

// Probe reads image dimensions and format without a full decode.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image config: %w", err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Normalize re-encodes data as JPEG, downscaling to the global cap when the
// image exceeds it. Non-image payloads (PDFs, videos) are returned untouched
// so callers can store them as-is.
func Normalize(data []byte) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, "application/octet-stream", nil
	}

	scaled := Fit(src, MaxWidth, MaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// Fit scales src down to fit within maxW x maxH, preserving aspect ratio.
// Images already inside the bounds are returned unchanged.
func Fit(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// FitBox computes display dimensions for an image constrained to a layout
// cell, preserving aspect ratio and never upscaling.
func FitBox(w, h, boxW, boxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := 1.0
	if w > boxW {
		scale = float64(boxW) / float64(w)
	}
	if s := float64(boxH) / float64(h); h > boxH && s < scale {
		scale = s
	}
	return int(float64(w) * scale), int(float64(h) * scale)
}
