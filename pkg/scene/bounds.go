package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns bounds with Min at +Inf and Max at -Inf so that the
// first Extend sets both corners.
func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// Extend grows the box to include p. Points with a NaN or infinite
// coordinate are ignored.
func (b *Bounds) Extend(p [3]float32) {
	if !Finite(p) {
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Valid reports whether at least one point has been added.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return mgl32.Vec3(b.Min).Add(mgl32.Vec3(b.Max)).Mul(0.5)
}

// Size returns the length of the box diagonal.
func (b Bounds) Size() float32 {
	return mgl32.Vec3(b.Max).Sub(mgl32.Vec3(b.Min)).Len()
}

// Finite reports whether every coordinate of p is a finite number.
func Finite(p [3]float32) bool {
	for _, c := range p {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
