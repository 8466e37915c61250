// Package scene provides the scene graph that avatar parts are loaded into
// and composed from: named nodes with local transforms, bones, skinned meshes
// bound to skeletons, and animation clips.
package scene

import (
	"fmt"

	"github.com/Faultbox/midgard-avatar/pkg/math"
	"github.com/Faultbox/midgard-avatar/pkg/meta"
)

// Kind is the node specialization.
type Kind int

const (
	KindGroup       Kind = iota // plain transform node
	KindBone                    // skeleton joint
	KindMesh                    // static mesh
	KindSkinnedMesh             // mesh deformed by a bound skeleton
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindBone:
		return "Bone"
	case KindMesh:
		return "Mesh"
	case KindSkinnedMesh:
		return "SkinnedMesh"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Transform is a local translation, rotation and scale.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTransform returns the transform that leaves a node in place.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.One(),
	}
}

// Matrix returns the local matrix T * R * S.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Translation, t.Rotation, t.Scale)
}

// Node is a scene graph node. A node has at most one parent; attaching it
// elsewhere detaches it from the previous one.
type Node struct {
	Name      string
	Kind      Kind
	Transform Transform

	// UserData is the node's open-ended metadata. Extension objects live
	// under the "gltfExtensions" key.
	UserData *meta.Map

	// Animations are clips carried by this node. Clips are shared, not owned.
	Animations []*AnimationClip

	// Mesh is the geometry of a mesh node. It is shared between clones.
	Mesh *Mesh

	// Skeleton is the skeleton a skinned mesh is bound to (a reference, not
	// ownership).
	Skeleton *Skeleton

	parent   *Node
	children []*Node
}

// NewNode creates a detached node with an identity transform.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: IdentityTransform(),
		UserData:  meta.NewMap(),
	}
}

// NewGroup creates a plain transform node.
func NewGroup(name string) *Node {
	return NewNode(name, KindGroup)
}

// NewBone creates a skeleton joint node.
func NewBone(name string) *Node {
	return NewNode(name, KindBone)
}

// NewSkinnedMesh creates a skinned mesh node drawing mesh.
func NewSkinnedMesh(name string, mesh *Mesh) *Node {
	n := NewNode(name, KindSkinnedMesh)
	n.Mesh = mesh
	return n
}

// Parent returns the node's parent, or nil for a detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// Add appends children in order, detaching each from its previous parent.
// Adding a node to itself or to one of its own descendants panics.
func (n *Node) Add(children ...*Node) {
	for _, child := range children {
		if child == nil {
			continue
		}
		if child == n || child.IsAncestorOf(n) {
			panic(fmt.Sprintf("scene: adding %q under %q would create a cycle", child.Name, n.Name))
		}
		if child.parent != nil {
			child.parent.Remove(child)
		}
		child.parent = n
		n.children = append(n.children, child)
	}
}

// Remove detaches child. It reports whether child was a child of n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in pre-order. Returning false
// from fn stops the walk; Walk then returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Traverse visits n and every descendant in pre-order.
func (n *Node) Traverse(fn func(*Node)) {
	n.Walk(func(o *Node) bool {
		fn(o)
		return true
	})
}

// FindByName returns the first node named name in a depth-first pre-order
// search that includes n itself, or nil.
func (n *Node) FindByName(name string) *Node {
	var found *Node
	n.Walk(func(o *Node) bool {
		if o.Name == name {
			found = o
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node of the given kind in pre-order.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.Traverse(func(o *Node) {
		if o.Kind == kind {
			out = append(out, o)
		}
	})
	return out
}

// Clone returns a detached shallow copy: scalar state and a deep copy of
// UserData, the same Mesh, Skeleton and clips, and no children.
func (n *Node) Clone() *Node {
	return &Node{
		Name:       n.Name,
		Kind:       n.Kind,
		Transform:  n.Transform,
		UserData:   n.UserData.Clone(),
		Animations: append([]*AnimationClip(nil), n.Animations...),
		Mesh:       n.Mesh,
		Skeleton:   n.Skeleton,
	}
}

// Bind attaches a skinned mesh to skeleton.
func (n *Node) Bind(skeleton *Skeleton) {
	n.Skeleton = skeleton
}

// WorldMatrix returns the product of the local matrices from the root down to n.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul(m)
	}
	return m
}
