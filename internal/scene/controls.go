package scene

import "math"

// OrbitControls orbits a camera around its target on a sphere. Input adds to
// pending deltas; Update moves the camera and, with damping, bleeds the
// deltas off over several frames.
type OrbitControls struct {
	camera *Camera

	EnableDamping bool
	DampingFactor float64
	EnablePan     bool // accepted for parity; panning is never applied
	MinDistance   float64
	MaxDistance   float64

	radius float64
	theta  float64 // azimuth around +Y, 0 = +Z
	phi    float64 // polar angle from +Y

	dTheta float64
	dPhi   float64
	scale  float64
}

// minPolar keeps the camera off the poles, where the up vector degenerates.
const minPolar = 1e-3

// NewOrbitControls derives the orbit from the camera's current position.
func NewOrbitControls(cam *Camera) *OrbitControls {
	off := cam.Position.Sub(cam.Target)
	r := off.Len()
	oc := &OrbitControls{
		camera:        cam,
		DampingFactor: 0.05,
		MinDistance:   0,
		MaxDistance:   math.Inf(1),
		radius:        r,
		scale:         1,
	}
	if r > 0 {
		oc.theta = math.Atan2(off.X, off.Z)
		oc.phi = math.Acos(clamp(off.Y/r, -1, 1))
	}
	return oc
}

// RotateLeft orbits around the target by angle radians.
func (o *OrbitControls) RotateLeft(angle float64) { o.dTheta -= angle }

// RotateUp tilts the orbit by angle radians.
func (o *OrbitControls) RotateUp(angle float64) { o.dPhi -= angle }

// DollyIn moves toward the target by factor (> 1).
func (o *OrbitControls) DollyIn(factor float64) { o.scale /= factor }

// DollyOut moves away from the target by factor (> 1).
func (o *OrbitControls) DollyOut(factor float64) { o.scale *= factor }

// Distance is the current camera distance from the target.
func (o *OrbitControls) Distance() float64 { return o.radius }

// Update applies pending input and repositions the camera. Call once a frame.
// Reports whether the camera moved.
func (o *OrbitControls) Update() bool {
	oldR, oldT, oldP := o.radius, o.theta, o.phi

	if o.EnableDamping {
		o.theta += o.dTheta * o.DampingFactor
		o.phi += o.dPhi * o.DampingFactor
	} else {
		o.theta += o.dTheta
		o.phi += o.dPhi
	}
	o.phi = clamp(o.phi, minPolar, math.Pi-minPolar)

	o.radius = clamp(o.radius*o.scale, o.MinDistance, o.MaxDistance)
	o.scale = 1

	sinPhi := math.Sin(o.phi)
	o.camera.Position = o.camera.Target.Add(Vec3{
		X: o.radius * sinPhi * math.Sin(o.theta),
		Y: o.radius * math.Cos(o.phi),
		Z: o.radius * sinPhi * math.Cos(o.theta),
	})

	if o.EnableDamping {
		o.dTheta *= 1 - o.DampingFactor
		o.dPhi *= 1 - o.DampingFactor
	} else {
		o.dTheta, o.dPhi = 0, 0
	}

	const eps = 1e-6
	return math.Abs(o.radius-oldR) > eps || math.Abs(o.theta-oldT) > eps || math.Abs(o.phi-oldP) > eps
}
