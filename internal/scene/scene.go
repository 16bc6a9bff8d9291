// Package scene draws a lit, rotating Earth into a grid of terminal cells.
//
// It mirrors a small 3D rig: a perspective camera with orbit controls, an
// ambient light, a directional sun, and a textured sphere whose material has
// an emissive (city lights) map. Rendering is plain ray casting per cell.
package scene

import (
	"math"
	"time"
)

// RotationPerFrame is the globe spin per 1/60 s frame, in radians.
const RotationPerFrame = 0.0004

// Sun and emissive intensities per phase.
const (
	SunDay        = 1.2
	SunNight      = 0.2
	EmissiveDay   = 0.2
	EmissiveNight = 0.9
)

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     Color
	Intensity float64
}

// DirectionalLight shines from Position toward the origin.
type DirectionalLight struct {
	Color     Color
	Intensity float64
	Position  Vec3
}

// Material is a textured surface with an optional glow map.
type Material struct {
	Map               Texture
	EmissiveMap       Texture
	Emissive          Color
	EmissiveIntensity float64
}

// Globe is a textured sphere at the origin.
type Globe struct {
	Radius    float64
	RotationY float64
	Material  *Material
}

// Cell is one rendered terminal cell.
type Cell struct {
	Rune  rune
	Color Color
	Hit   bool // false for background
}

// Frame is a rendered viewport, row-major.
type Frame struct {
	Width, Height int
	Cells         []Cell
}

// At returns the cell at column x, row y.
func (f Frame) At(x, y int) Cell {
	return f.Cells[y*f.Width+x]
}

// Scene is the whole rig. Not safe for concurrent use; the UI owns it.
type Scene struct {
	Camera   *Camera
	Controls *OrbitControls
	Ambient  AmbientLight
	Sun      DirectionalLight
	Earth    *Globe

	width, height int
}

// New builds the default rig: camera at distance 3, damped orbit clamped to
// [2, 6], ambient 0.4, sun 1.2 at (5, 0, 5), and a unit globe using the
// procedural textures until real ones are loaded.
func New() *Scene {
	cam := NewPerspectiveCamera(45, 1, 0.1, 1000)
	cam.Position = Vec3{0, 0, 3}
	cam.Target = Vec3{}

	controls := NewOrbitControls(cam)
	controls.EnableDamping = true
	controls.EnablePan = false
	controls.MinDistance = 2
	controls.MaxDistance = 6

	return &Scene{
		Camera:   cam,
		Controls: controls,
		Ambient:  AmbientLight{Color: White, Intensity: 0.4},
		Sun:      DirectionalLight{Color: White, Intensity: SunDay, Position: Vec3{5, 0, 5}},
		Earth: &Globe{
			Radius: 1,
			Material: &Material{
				Map:               ProceduralEarth{},
				EmissiveMap:       ProceduralLights{},
				Emissive:          White,
				EmissiveIntensity: 0.5,
			},
		},
	}
}

// Resize adapts the camera to a viewport of cols × rows cells.
func (s *Scene) Resize(cols, rows int) {
	s.width, s.height = cols, rows
	s.Camera.SetViewport(cols, rows)
}

// Size returns the last viewport passed to Resize.
func (s *Scene) Size() (int, int) { return s.width, s.height }

// Advance spins the globe for dt of wall time and steps the controls.
func (s *Scene) Advance(dt time.Duration) {
	frames := dt.Seconds() * 60
	s.Earth.RotationY = math.Mod(s.Earth.RotationY+RotationPerFrame*frames, 2*math.Pi)
	s.Controls.Update()
}

// ApplyCycle sets sun and city-light intensity for the phase.
func (s *Scene) ApplyCycle(isDay bool) {
	if isDay {
		s.Sun.Intensity = SunDay
		s.Earth.Material.EmissiveIntensity = EmissiveDay
	} else {
		s.Sun.Intensity = SunNight
		s.Earth.Material.EmissiveIntensity = EmissiveNight
	}
}

// SetTextures swaps in loaded maps; nil keeps the current one.
func (s *Scene) SetTextures(dayMap, lightsMap Texture) {
	if dayMap != nil {
		s.Earth.Material.Map = dayMap
	}
	if lightsMap != nil {
		s.Earth.Material.EmissiveMap = lightsMap
	}
}

// shadeRamp orders glyphs from dim to bright.
const shadeRamp = ".:-=+*#%@"

// Render draws the viewport set by Resize.
func (s *Scene) Render() Frame {
	return s.RenderSize(s.width, s.height)
}

// RenderSize draws a cols × rows frame.
func (s *Scene) RenderSize(cols, rows int) Frame {
	if cols <= 0 || rows <= 0 {
		return Frame{}
	}
	f := Frame{Width: cols, Height: rows, Cells: make([]Cell, cols*rows)}

	lightDir := s.Sun.Position.Norm()
	ambient := s.Ambient.Color.Scale(s.Ambient.Intensity)
	sun := s.Sun.Color.Scale(s.Sun.Intensity)
	mat := s.Earth.Material
	r := s.Earth.Radius

	for y := 0; y < rows; y++ {
		ndcY := 1 - 2*(float64(y)+0.5)/float64(rows)
		for x := 0; x < cols; x++ {
			ndcX := 2*(float64(x)+0.5)/float64(cols) - 1
			origin, dir := s.Camera.Ray(ndcX, ndcY)

			t, ok := s.Camera.intersectSphere(origin, dir, r)
			if !ok {
				f.Cells[y*cols+x] = background(x, y)
				continue
			}

			hit := origin.Add(dir.Scale(t))
			normal := hit.Scale(1 / r)
			u, v := sphereUV(normal.RotateY(-s.Earth.RotationY))

			lambert := math.Max(0, normal.Dot(lightDir))
			c := mat.Map.Sample(u, v).Mul(ambient.Add(sun.Scale(lambert)))
			if mat.EmissiveMap != nil && mat.EmissiveIntensity > 0 {
				// City lights fade out where the sun reaches.
				glow := mat.EmissiveMap.Sample(u, v).Mul(mat.Emissive).Scale(mat.EmissiveIntensity * (1 - lambert))
				c = c.Add(glow)
			}
			c = c.Clamp()

			f.Cells[y*cols+x] = Cell{Rune: glyph(c.Luminance()), Color: c, Hit: true}
		}
	}
	return f
}

// sphereUV maps a unit normal in the globe's own frame to equirectangular
// texture coordinates: u = 0.5 (longitude 0) faces +Z, v = 0 is the north pole.
func sphereUV(n Vec3) (u, v float64) {
	theta := math.Acos(clamp(n.Y, -1, 1))
	phi := math.Atan2(n.Z, -n.X)
	u = phi / (2 * math.Pi)
	if u < 0 {
		u++
	}
	u = math.Mod(u+0.25, 1)
	return u, theta / math.Pi
}

func glyph(lum float64) rune {
	i := int(lum * float64(len(shadeRamp)))
	if i >= len(shadeRamp) {
		i = len(shadeRamp) - 1
	}
	if i < 0 {
		i = 0
	}
	return rune(shadeRamp[i])
}

// background draws a sparse, fixed starfield.
func background(x, y int) Cell {
	h := uint32(x)*73856093 ^ uint32(y)*19349663
	h ^= h >> 13
	h *= 0x5bd1e995
	if h%97 == 0 {
		return Cell{Rune: '.', Color: Color{0.6, 0.6, 0.7}}
	}
	return Cell{Rune: ' '}
}
