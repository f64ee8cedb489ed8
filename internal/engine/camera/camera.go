// Package camera provides the orbit camera used to inspect a scene.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/pkg/scene"
)

// Camera limits and defaults.
const (
	PolarEpsilon = 0.001
	MinDistance  = 0.1
	FovY         = 45.0 // degrees
	Near         = 0.1
	Far          = 100.0

	defaultDistance = 5.0
	defaultPhi      = math32.Pi / 4
	fitMargin       = 1.5
	panFactor       = 0.001
)

// The polar angle is kept strictly inside (PolarEpsilon, Pi-PolarEpsilon).
var (
	minPhi = math32.Nextafter(PolarEpsilon, math32.Pi)
	maxPhi = math32.Nextafter(math32.Pi-PolarEpsilon, 0)
)

var worldUp = mgl32.Vec3{0, 1, 0}

// OrbitCamera orbits a target point on a sphere. Theta is the azimuth
// around +Y measured from +Z, phi the polar angle from +Y.
type OrbitCamera struct {
	width, height int

	target   mgl32.Vec3
	distance float32
	theta    float32
	phi      float32

	position mgl32.Vec3
	forward  mgl32.Vec3
	right    mgl32.Vec3
	up       mgl32.Vec3
}

// NewOrbitCamera returns a camera 5 units from the origin, 45 degrees
// above the horizon, with an 800x600 viewport.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		width:    800,
		height:   600,
		distance: defaultDistance,
		phi:      defaultPhi,
	}
	c.update()
	return c
}

// SetViewportSize sets the dimensions used for the projection aspect ratio.
func (c *OrbitCamera) SetViewportSize(width, height int) {
	c.width, c.height = width, height
}

// SetTarget moves the orbit center.
func (c *OrbitCamera) SetTarget(p mgl32.Vec3) {
	c.target = p
	c.update()
}

// SetDistance sets the orbit radius, never below MinDistance.
func (c *OrbitCamera) SetDistance(d float32) {
	c.distance = math32.Max(d, MinDistance)
	c.update()
}

// Rotate adds to the azimuth and subtracts from the polar angle.
func (c *OrbitCamera) Rotate(dTheta, dPhi float32) {
	c.theta += dTheta
	c.phi -= dPhi
	c.update()
}

// Pan slides the target in the view plane. Speed scales with distance.
func (c *OrbitCamera) Pan(dx, dy float32) {
	speed := c.distance * panFactor
	move := c.right.Mul(-dx * speed).Add(c.up.Mul(dy * speed))
	c.target = c.target.Add(move)
	c.update()
}

// Zoom moves the camera towards the target by amount.
func (c *OrbitCamera) Zoom(amount float32) {
	c.SetDistance(c.distance - amount)
}

// FitBounds centers the target on b and backs off to see all of it.
// Empty bounds leave the camera unchanged.
func (c *OrbitCamera) FitBounds(b scene.Bounds) {
	if !b.Valid() {
		return
	}
	c.target = b.Center()
	c.SetDistance(b.Size() * fitMargin)
}

// ViewMatrix returns the world-to-view transform.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.target, c.up)
}

// ProjectionMatrix returns the perspective projection for the viewport.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	aspect := float32(1)
	if c.width > 0 && c.height > 0 {
		aspect = float32(c.width) / float32(c.height)
	}
	return mgl32.Perspective(mgl32.DegToRad(FovY), aspect, Near, Far)
}

func (c *OrbitCamera) Position() mgl32.Vec3 { return c.position }
func (c *OrbitCamera) Target() mgl32.Vec3   { return c.target }
func (c *OrbitCamera) Forward() mgl32.Vec3  { return c.forward }
func (c *OrbitCamera) Right() mgl32.Vec3    { return c.right }
func (c *OrbitCamera) Up() mgl32.Vec3       { return c.up }
func (c *OrbitCamera) Distance() float32    { return c.distance }
func (c *OrbitCamera) Theta() float32       { return c.theta }
func (c *OrbitCamera) Phi() float32         { return c.phi }

// update clamps the spherical state and recomputes the derived vectors.
func (c *OrbitCamera) update() {
	c.phi = math32.Max(minPhi, math32.Min(maxPhi, c.phi))
	c.distance = math32.Max(c.distance, MinDistance)

	sinPhi, cosPhi := math32.Sincos(c.phi)
	sinTheta, cosTheta := math32.Sincos(c.theta)
	c.position = c.target.Add(mgl32.Vec3{
		c.distance * sinPhi * sinTheta,
		c.distance * cosPhi,
		c.distance * sinPhi * cosTheta,
	})

	c.forward = c.target.Sub(c.position).Normalize()
	c.right = c.forward.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.forward).Normalize()
}
