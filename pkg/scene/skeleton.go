package scene

import "github.com/Faultbox/midgard-avatar/pkg/math"

// Skeleton is an ordered set of bones. The order is the index space used by
// skin joint indices; Bones[0] is the root bone by convention.
type Skeleton struct {
	Bones []*Node

	// BoneInverses holds one inverse bind matrix per bone.
	BoneInverses []math.Mat4
}

// NewSkeleton creates a skeleton over bones. When inverses is nil they are
// computed from the bones' current world matrices.
func NewSkeleton(bones []*Node, inverses []math.Mat4) *Skeleton {
	s := &Skeleton{Bones: bones, BoneInverses: inverses}
	if inverses == nil {
		s.CalculateInverses()
	}
	return s
}

// CalculateInverses resets BoneInverses from the bones' world matrices.
func (s *Skeleton) CalculateInverses() {
	s.BoneInverses = make([]math.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		s.BoneInverses[i] = b.WorldMatrix().Inverse()
	}
}

// Root returns Bones[0], or nil for an empty skeleton.
func (s *Skeleton) Root() *Node {
	if len(s.Bones) == 0 {
		return nil
	}
	return s.Bones[0]
}

// Index returns the position of bone in the skeleton, or -1.
func (s *Skeleton) Index(bone *Node) int {
	for i, b := range s.Bones {
		if b == bone {
			return i
		}
	}
	return -1
}

// BoneNames returns the bone names in skeleton order.
func (s *Skeleton) BoneNames() []string {
	names := make([]string, len(s.Bones))
	for i, b := range s.Bones {
		names[i] = b.Name
	}
	return names
}
