package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshspy/pkg/scene"
)

const eps = 1e-4

func near(a, b float32) bool { return math.Abs(float64(a-b)) < eps }

func nearVec(a, b mgl32.Vec3) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

func TestDefaults(t *testing.T) {
	c := NewOrbitCamera()

	if c.Distance() != 5 {
		t.Errorf("expected distance 5, got %f", c.Distance())
	}
	if !near(c.Phi(), math.Pi/4) || c.Theta() != 0 {
		t.Errorf("expected theta 0 phi pi/4, got %f %f", c.Theta(), c.Phi())
	}
	s := float32(5 * math.Sqrt2 / 2)
	if want := (mgl32.Vec3{0, s, s}); !nearVec(c.Position(), want) {
		t.Errorf("expected position %v, got %v", want, c.Position())
	}
}

func TestBasisIsOrthonormal(t *testing.T) {
	c := NewOrbitCamera()
	c.Rotate(1.3, -0.4)
	c.SetTarget(mgl32.Vec3{2, -1, 3})

	f, r, u := c.Forward(), c.Right(), c.Up()
	for name, v := range map[string]mgl32.Vec3{"forward": f, "right": r, "up": u} {
		if !near(v.Len(), 1) {
			t.Errorf("%s not unit length: %f", name, v.Len())
		}
	}
	if !near(f.Dot(r), 0) || !near(f.Dot(u), 0) || !near(r.Dot(u), 0) {
		t.Error("basis vectors should be orthogonal")
	}
	if !nearVec(c.Target().Sub(c.Position()).Normalize(), f) {
		t.Error("forward should point at the target")
	}
}

func TestPolarAngleClamp(t *testing.T) {
	tests := []struct {
		name string
		dPhi float32
	}{
		{"past north pole", -100},
		{"past south pole", 100},
		{"small step", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			for i := 0; i < 10; i++ {
				c.Rotate(0.3, tt.dPhi)
				if !(c.Phi() > PolarEpsilon && c.Phi() < math.Pi-PolarEpsilon) {
					t.Fatalf("phi %v escaped (%v, pi-%v)", c.Phi(), PolarEpsilon, PolarEpsilon)
				}
			}
		})
	}
}

func TestRotateDirection(t *testing.T) {
	c := NewOrbitCamera()
	before := c.Phi()
	c.Rotate(0, 0.1)
	if !near(c.Phi(), before-0.1) {
		t.Errorf("positive dPhi should decrease phi: %f -> %f", before, c.Phi())
	}
	c.Rotate(10, 0)
	if !near(c.Theta(), 10) {
		t.Errorf("theta should not be clamped, got %f", c.Theta())
	}
}

func TestDistanceFloor(t *testing.T) {
	c := NewOrbitCamera()
	c.Zoom(1000)
	if c.Distance() < MinDistance {
		t.Errorf("distance %f below floor", c.Distance())
	}
	c.SetDistance(-3)
	if c.Distance() != MinDistance {
		t.Errorf("expected floor %f, got %f", float32(MinDistance), c.Distance())
	}
	c.Zoom(-2)
	if !near(c.Distance(), MinDistance+2) {
		t.Errorf("negative zoom should back off, got %f", c.Distance())
	}
}

func TestPanScalesWithDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Pan(100, 0)
	// right is +X at theta 0; speed is 5 * 0.001.
	if want := (mgl32.Vec3{-0.5, 0, 0}); !nearVec(c.Target(), want) {
		t.Errorf("expected target %v, got %v", want, c.Target())
	}

	far := NewOrbitCamera()
	far.SetDistance(50)
	far.Pan(100, 0)
	if !near(far.Target()[0], -5) {
		t.Errorf("pan should scale with distance, got %v", far.Target())
	}

	up := NewOrbitCamera()
	up.Pan(0, 100)
	if !near(up.Target().Len(), 0.5) || up.Target()[1] <= 0 {
		t.Errorf("vertical pan should move along camera up, got %v", up.Target())
	}
}

func TestViewMatrixCentersTarget(t *testing.T) {
	c := NewOrbitCamera()
	c.SetTarget(mgl32.Vec3{1, 2, 3})
	c.Rotate(0.7, 0.2)

	p := c.ViewMatrix().Mul4x1(c.Target().Vec4(1))
	if !nearVec(p.Vec3(), mgl32.Vec3{0, 0, -c.Distance()}) {
		t.Errorf("target should sit on the view axis, got %v", p)
	}
}

func TestProjectionAspect(t *testing.T) {
	c := NewOrbitCamera()
	c.SetViewportSize(1600, 800)
	p := c.ProjectionMatrix()
	if !near(p[5]/p[0], 2) {
		t.Errorf("expected aspect 2, got %f", p[5]/p[0])
	}

	c.SetViewportSize(100, 0)
	p = c.ProjectionMatrix()
	if !near(p[5]/p[0], 1) {
		t.Errorf("zero height should fall back to aspect 1, got %f", p[5]/p[0])
	}
}

func TestFitBounds(t *testing.T) {
	c := NewOrbitCamera()
	b := scene.EmptyBounds()
	b.Extend([3]float32{-1, 0, -1})
	b.Extend([3]float32{1, 2, 1})

	c.FitBounds(b)
	if !nearVec(c.Target(), mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected target at center, got %v", c.Target())
	}
	if want := float32(math.Sqrt(12) * 1.5); !near(c.Distance(), want) {
		t.Errorf("expected distance %f, got %f", want, c.Distance())
	}

	before := c.Target()
	c.FitBounds(scene.EmptyBounds())
	if c.Target() != before {
		t.Error("empty bounds should not move the camera")
	}
}
