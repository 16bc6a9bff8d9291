package scene

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
)

// maxTextureWidth caps the resampled texture. A terminal never shows more.
const maxTextureWidth = 512

// maxImageBytes caps a texture download.
const maxImageBytes = 16 << 20

// Texture is an equirectangular map sampled by (u, v) in [0, 1), u east
// from the antimeridian and v south from the north pole.
type Texture interface {
	Sample(u, v float64) Color
}

// ImageTexture is a decoded image resampled into a flat RGB grid.
type ImageTexture struct {
	w, h int
	px   []Color
}

// NewImageTexture resamples img (nearest neighbour) to at most
// maxTextureWidth columns.
func NewImageTexture(img image.Image) *ImageTexture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxTextureWidth {
		h = h * maxTextureWidth / w
		w = maxTextureWidth
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	t := &ImageTexture{w: w, h: h, px: make([]Color, w*h)}
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			r, g, bl, _ := img.At(sx, sy).RGBA()
			t.px[y*w+x] = Color{float64(r) / 0xffff, float64(g) / 0xffff, float64(bl) / 0xffff}
		}
	}
	return t
}

// Size returns the resampled dimensions.
func (t *ImageTexture) Size() (int, int) { return t.w, t.h }

// Sample returns the texel at (u, v), wrapping u and clamping v.
func (t *ImageTexture) Sample(u, v float64) Color {
	u -= math.Floor(u)
	x := int(u * float64(t.w))
	y := int(clamp(v, 0, 1) * float64(t.h))
	if x >= t.w {
		x = t.w - 1
	}
	if y >= t.h {
		y = t.h - 1
	}
	return t.px[y*t.w+x]
}

// LoadTexture downloads and decodes a JPEG or PNG texture.
func LoadTexture(ctx context.Context, client *http.Client, url string) (*ImageTexture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch texture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture: %w", err)
	}
	return NewImageTexture(img), nil
}

// ProceduralEarth stands in for the day map when none could be loaded: a few
// soft continents over ocean, with polar caps.
type ProceduralEarth struct{}

// continents are (lon, lat, radius) blobs in radians.
var continents = [][3]float64{
	{-1.75, 0.70, 0.55}, {-1.10, 0.25, 0.30}, // North America
	{-1.00, -0.30, 0.45}, {-1.15, -0.65, 0.25}, // South America
	{0.30, 0.90, 0.40}, {0.35, 0.20, 0.45}, {0.45, -0.35, 0.35}, // Europe, Africa
	{1.40, 0.80, 0.70}, {1.80, 0.40, 0.45}, {1.35, 0.35, 0.25}, // Asia
	{2.35, -0.45, 0.35}, // Australia
}

// landness returns > 0 over land.
func landness(lon, lat float64) float64 {
	best := -1.0
	for _, c := range continents {
		dLon := math.Remainder(lon-c[0], 2*math.Pi) * math.Cos(lat)
		dLat := lat - c[1]
		d := math.Sqrt(dLon*dLon+dLat*dLat) / c[2]
		// Wobble the coastline so blobs do not look like circles.
		d += 0.15 * math.Sin(5*lon+3*lat) * math.Cos(4*lat-2*lon)
		if v := 1 - d; v > best {
			best = v
		}
	}
	return best
}

func uvToLonLat(u, v float64) (lon, lat float64) {
	return (u-0.5)*2*math.Pi, (0.5 - v) * math.Pi
}

// Sample implements Texture.
func (ProceduralEarth) Sample(u, v float64) Color {
	lon, lat := uvToLonLat(u, v)
	if math.Abs(lat) > 1.30 {
		return Color{0.92, 0.94, 0.96}
	}
	if l := landness(lon, lat); l > 0 {
		dry := 0.5 + 0.5*math.Sin(3*lon)*math.Cos(2*lat)
		return Color{0.20 + 0.35*dry, 0.40 + 0.10*dry, 0.15}
	}
	return Color{0.05, 0.18, 0.45}
}

// ProceduralLights stands in for the night lights map: scattered points on land.
type ProceduralLights struct{}

// Sample implements Texture.
func (ProceduralLights) Sample(u, v float64) Color {
	lon, lat := uvToLonLat(u, v)
	if math.Abs(lat) > 1.1 || landness(lon, lat) <= 0.05 {
		return Color{}
	}
	h := math.Sin(u*12.9898*97+v*78.233*53) * 43758.5453
	if h-math.Floor(h) > 0.8 {
		return Color{1.0, 0.85, 0.55}
	}
	return Color{}
}
