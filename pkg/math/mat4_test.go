package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestComposeOrder(t *testing.T) {
	// 90 degrees around Y, then translate: (1,0,0) scaled by 2 -> (2,0,0) -> (0,0,-2) -> (5,0,-2)
	r := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/2))
	m := Compose(Vec3{5, 0, 0}, r, Vec3{2, 2, 2})
	got := m.TransformPoint([3]float32{1, 0, 0})

	want := [3]float32{5, 0, -2}
	for i := range want {
		if abs(got[i]-want[i]) > 0.001 {
			t.Fatalf("Compose: got %v, want %v", got, want)
		}
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		t    Vec3
		r    Quat
		s    Vec3
	}{
		{"identity", Vec3{}, QuatIdentity(), One()},
		{"translate only", Vec3{1, 2, 3}, QuatIdentity(), One()},
		{"rotate y", Vec3{0, 1, 0}, QuatFromAxisAngle(Vec3{0, 1, 0}, 1.2), One()},
		{"rotate x scaled", Vec3{-4, 0, 2}, QuatFromAxisAngle(Vec3{1, 0, 0}, 2.8), Vec3{0.5, 2, 3}},
		{"rotate z", Vec3{}, QuatFromAxisAngle(Vec3{0, 0, 1}, -2.9), Vec3{1, 1, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compose(tt.t, tt.r, tt.s)
			gt, gr, gs := m.Decompose()

			if !Compose(gt, gr, gs).ApproxEqual(m, 0.001) {
				t.Errorf("recomposed matrix differs: got %v, want %v", Compose(gt, gr, gs), m)
			}
			if abs(gs.X-tt.s.X) > 0.001 || abs(gs.Y-tt.s.Y) > 0.001 || abs(gs.Z-tt.s.Z) > 0.001 {
				t.Errorf("expected scale %v, got %v", tt.s, gs)
			}
		})
	}
}

func TestInverse(t *testing.T) {
	m := Compose(Vec3{1, -2, 3}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7), Vec3{2, 2, 2})
	if !m.Mul(m.Inverse()).ApproxEqual(Identity(), 0.0001) {
		t.Errorf("M * M^-1 should be identity, got %v", m.Mul(m.Inverse()))
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(0, 1, 1).Inverse(); got != Identity() {
		t.Errorf("singular inverse should be identity, got %v", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
