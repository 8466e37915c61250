package compose

import "github.com/Faultbox/midgard-avatar/pkg/scene"

// Merge anchor names every part is expected to carry.
const (
	SceneNodeName      = "Scene"
	AvatarRootNodeName = "AvatarRoot"
)

// Located holds the merge anchors found in a set of parts. Parts lacking an
// anchor are absent from the corresponding slice.
type Located struct {
	Scenes      []*scene.Node
	AvatarRoots []*scene.Node
	Meshes      []*scene.Node
}

// Locate finds the first "Scene" and "AvatarRoot" node in each part by
// depth-first pre-order search, and every skinned mesh across all parts in
// part order.
func Locate(parts []*scene.Node) Located {
	var loc Located
	for _, part := range parts {
		if part == nil {
			continue
		}
		if n := part.FindByName(SceneNodeName); n != nil {
			loc.Scenes = append(loc.Scenes, n)
		}
		if n := part.FindByName(AvatarRootNodeName); n != nil {
			loc.AvatarRoots = append(loc.AvatarRoots, n)
		}
		loc.Meshes = append(loc.Meshes, part.FindAll(scene.KindSkinnedMesh)...)
	}
	return loc
}
