package compose

import (
	"fmt"

	"github.com/Faultbox/midgard-avatar/pkg/math"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// CloneSkeleton rebuilds the skeleton bound to mesh as an independent bone
// tree. Bone order is preserved so skin joint indices stay valid, and the
// parent-child links are read from the source tree only.
func CloneSkeleton(mesh *scene.Node) (*scene.Skeleton, error) {
	if mesh == nil || mesh.Skeleton == nil {
		return nil, ErrMissingSkeletonSource
	}
	src := mesh.Skeleton
	if err := checkSkeleton(src); err != nil {
		return nil, err
	}

	clones := make(map[*scene.Node]*scene.Node, len(src.Bones))
	for _, bone := range src.Bones {
		clones[bone] = bone.Clone()
	}

	src.Root().Traverse(func(n *scene.Node) {
		if n.Kind != scene.KindBone {
			return
		}
		parent := clones[n]
		if parent == nil {
			return
		}
		for _, child := range n.Children() {
			if c := clones[child]; c != nil {
				parent.Add(c)
			}
		}
	})

	bones := make([]*scene.Node, len(src.Bones))
	for i, bone := range src.Bones {
		bones[i] = clones[bone]
	}
	return scene.NewSkeleton(bones, append([]math.Mat4(nil), src.BoneInverses...)), nil
}

// checkSkeleton validates that bones is non-empty and duplicate-free, that
// bones[0] has no parent inside the set, and that every other bone is
// reachable from bones[0] through bone parents in the set.
func checkSkeleton(s *scene.Skeleton) error {
	if len(s.Bones) == 0 {
		return fmt.Errorf("%w: skeleton has no bones", ErrStructuralPrecondition)
	}

	set := make(map[*scene.Node]int, len(s.Bones))
	for i, b := range s.Bones {
		if b == nil {
			return fmt.Errorf("%w: bone %d is nil", ErrStructuralPrecondition, i)
		}
		if j, dup := set[b]; dup {
			return fmt.Errorf("%w: bone %q appears at %d and %d", ErrStructuralPrecondition, b.Name, j, i)
		}
		set[b] = i
	}

	root := s.Bones[0]
	if _, inSet := set[root.Parent()]; inSet {
		return fmt.Errorf("%w: bones[0] %q has parent %q inside the skeleton", ErrStructuralPrecondition, root.Name, root.Parent().Name)
	}
	for _, b := range s.Bones[1:] {
		if !root.IsAncestorOf(b) {
			return fmt.Errorf("%w: bone %q is not under root bone %q", ErrStructuralPrecondition, b.Name, root.Name)
		}
		if _, ok := set[b.Parent()]; !ok {
			return fmt.Errorf("%w: parent of bone %q is not in the skeleton", ErrStructuralPrecondition, b.Name)
		}
	}
	if len(s.BoneInverses) != 0 && len(s.BoneInverses) != len(s.Bones) {
		return fmt.Errorf("%w: %d inverse bind matrices for %d bones", ErrStructuralPrecondition, len(s.BoneInverses), len(s.Bones))
	}
	return nil
}
