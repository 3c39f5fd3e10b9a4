// Package signature renders freehand signature strokes into the raster
// format the document filler embeds: a 400x150 PNG, white background,
// black 2px round strokes, carried as a data URL.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"
)

const (
	// CanvasWidth and CanvasHeight fix the capture surface in pixels.
	CanvasWidth  = 400
	CanvasHeight = 150

	strokeRadius = 1.0 // 2px line width

	dataURLPrefix = "data:image/png;base64,"
)

var ErrNotSignatureData = errors.New("not a PNG signature data URL")

// Point is one sampled pen position on the capture surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen-down movement.
type Stroke []Point

// Pad accumulates strokes and renders the final raster.
type Pad struct {
	strokes []Stroke
}

// NewPad returns an empty capture surface.
func NewPad() *Pad {
	return &Pad{}
}

// Add appends a stroke. Strokes with fewer than two points are dots and are
// still rendered.
func (p *Pad) Add(s Stroke) {
	if len(s) == 0 {
		return
	}
	p.strokes = append(p.strokes, s)
}

// Clear discards all captured strokes.
func (p *Pad) Clear() {
	p.strokes = nil
}

// Empty reports whether nothing was drawn.
func (p *Pad) Empty() bool {
	return len(p.strokes) == 0
}

// Render rasterizes the strokes to PNG bytes.
func (p *Pad) Render() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for _, s := range p.strokes {
		if len(s) == 1 {
			drawDot(img, s[0])
			continue
		}
		for i := 1; i < len(s); i++ {
			drawSegment(img, s[i-1], s[i])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL renders the strokes and returns them in the embedded form the
// filler consumes.
func (p *Pad) DataURL() (string, error) {
	raw, err := p.Render()
	if err != nil {
		return "", err
	}
	return Encode(raw), nil
}

// Encode wraps raw PNG bytes as a data URL.
func Encode(pngBytes []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}

// Decode extracts the raw PNG bytes from a signature data URL and verifies
// that the payload really decodes as a PNG image.
func Decode(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, ErrNotSignatureData
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode signature payload: %w", err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("invalid signature image: %w", err)
	}
	return raw, nil
}

func drawDot(img *image.RGBA, pt Point) {
	setDisc(img, pt.X, pt.Y)
}

// drawSegment rasterizes a round-capped line by stamping discs along it.
func drawSegment(img *image.RGBA, a, b Point) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dist := math.Hypot(dx, dy)
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setDisc(img, a.X+dx*t, a.Y+dy*t)
	}
}

func setDisc(img *image.RGBA, cx, cy float64) {
	for y := int(cy - strokeRadius); y <= int(cy+strokeRadius+1); y++ {
		for x := int(cx - strokeRadius); x <= int(cx+strokeRadius+1); x++ {
			if x < 0 || y < 0 || x >= CanvasWidth || y >= CanvasHeight {
				continue
			}
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= strokeRadius+0.5 {
				img.Set(x, y, color.Black)
			}
		}
	}
}
