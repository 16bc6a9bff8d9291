package scene

import "math"

// CellAspect is how much taller a terminal cell is than it is wide.
const CellAspect = 2.0

// Camera is a perspective camera looking at Target.
type Camera struct {
	FOV      float64 // vertical, degrees
	Aspect   float64 // width / height of the viewport in square units
	Near     float64
	Far      float64
	Position Vec3
	Target   Vec3
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *Camera {
	return &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: Vec3{0, 0, -1},
	}
}

// SetViewport updates the aspect for a viewport of cols × rows terminal cells.
func (c *Camera) SetViewport(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	c.Aspect = float64(cols) / (float64(rows) * CellAspect)
}

// Ray returns the world-space ray through normalised device coordinates
// (x right, y up, both in [-1, 1]).
func (c *Camera) Ray(x, y float64) (origin, dir Vec3) {
	forward := c.Target.Sub(c.Position).Norm()
	up := Vec3{0, 1, 0}
	right := forward.Cross(up)
	if right.Len() < 1e-9 {
		// Looking straight up or down; pick any perpendicular.
		right = Vec3{1, 0, 0}
	}
	right = right.Norm()
	camUp := right.Cross(forward)

	halfH := math.Tan(c.FOV * math.Pi / 360)
	halfW := halfH * c.Aspect

	dir = forward.
		Add(right.Scale(x * halfW)).
		Add(camUp.Scale(y * halfH)).
		Norm()
	return c.Position, dir
}

// intersectSphere returns the nearest t > near where origin+t*dir hits a
// sphere of radius r at the origin, or false on a miss or beyond far.
func (c *Camera) intersectSphere(origin, dir Vec3, r float64) (float64, bool) {
	b := origin.Dot(dir)
	cc := origin.Dot(origin) - r*r
	disc := b*b - cc
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < c.Near {
		t = -b + sq
	}
	if t < c.Near || t > c.Far {
		return 0, false
	}
	return t, true
}
