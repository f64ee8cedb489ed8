// Package lighting describes the directional key light used by the
// lighting pass.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a directional light placed by azimuth and elevation in degrees.
// Azimuth turns around +Y starting at +Z; elevation is measured from the
// horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
	Color     mgl32.Vec3
	Intensity float32
	Ambient   float32
}

// DefaultSun is a white light high in the north-east quadrant.
func DefaultSun() Sun {
	return Sun{
		Azimuth:   45,
		Elevation: 50,
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 3,
		Ambient:   1,
	}
}

// Direction returns the unit vector pointing from the scene towards the sun.
func (s Sun) Direction() mgl32.Vec3 {
	return SunDirection(s.Azimuth, s.Elevation)
}

// Radiance returns the light color scaled by intensity.
func (s Sun) Radiance() mgl32.Vec3 {
	return s.Color.Mul(s.Intensity)
}

// SunDirection converts azimuth/elevation degrees to a unit direction.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)

	cosEl := math32.Cos(el)
	return mgl32.Vec3{
		cosEl * math32.Sin(az),
		math32.Sin(el),
		cosEl * math32.Cos(az),
	}
}
