// Package fixture builds deterministic avatar parts for tests.
package fixture

import (
	"github.com/Faultbox/midgard-avatar/pkg/math"
	"github.com/Faultbox/midgard-avatar/pkg/meta"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// Bone describes one joint. An empty Parent marks the root bone.
type Bone struct {
	Name   string
	Parent string
	Offset math.Vec3
}

// Chain returns bones linked root to leaf, each one unit above its parent.
func Chain(names ...string) []Bone {
	bones := make([]Bone, len(names))
	for i, name := range names {
		bones[i] = Bone{Name: name, Offset: math.Vec3{Y: 1}}
		if i > 0 {
			bones[i].Parent = names[i-1]
		}
	}
	return bones
}

// Part configures an avatar part.
type Part struct {
	// Meshes names the skinned meshes. Each is a triangle weighted to the
	// last bone. Defaults to one mesh named after the part.
	Meshes []string
	Bones  []Bone
	Clips  []string

	// SceneUserData is merged into the Scene node's userData.
	SceneUserData map[string]any

	// Hubs becomes the AvatarRoot's MOZ_hubs_components object when non-nil.
	Hubs map[string]any
}

// Build creates the part tree: Scene > AvatarRoot > (root bone, meshes...),
// the shape a glTF loader produces for an avatar asset.
func (p Part) Build(name string) *scene.Node {
	root := scene.NewGroup("Scene")
	root.UserData.Set("part", meta.String(name))
	if p.SceneUserData != nil {
		root.UserData.Merge(mustMap(p.SceneUserData))
	}
	for _, clip := range p.Clips {
		root.Animations = append(root.Animations, Clip(clip, firstBone(p.Bones)))
	}

	avatarRoot := scene.NewGroup("AvatarRoot")
	if p.Hubs != nil {
		ext := meta.NewMap()
		ext.Set("MOZ_hubs_components", meta.Object(mustMap(p.Hubs)))
		avatarRoot.UserData.Set("gltfExtensions", meta.Object(ext))
	}
	root.Add(avatarRoot)

	bones := make([]*scene.Node, 0, len(p.Bones))
	byName := make(map[string]*scene.Node, len(p.Bones))
	for _, b := range p.Bones {
		n := scene.NewBone(b.Name)
		n.Transform.Translation = b.Offset
		if parent := byName[b.Parent]; parent != nil {
			parent.Add(n)
		} else {
			avatarRoot.Add(n)
		}
		byName[b.Name] = n
		bones = append(bones, n)
	}
	skeleton := scene.NewSkeleton(bones, nil)

	meshes := p.Meshes
	if meshes == nil {
		meshes = []string{name}
	}
	for _, m := range meshes {
		sm := scene.NewSkinnedMesh(m, Triangle(m, len(bones)-1))
		sm.Bind(skeleton)
		avatarRoot.Add(sm)
	}
	return root
}

// Triangle returns a one-triangle mesh fully weighted to joint.
func Triangle(name string, joint int) *scene.Mesh {
	j := uint16(max(joint, 0))
	return &scene.Mesh{
		Name:      name,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Joints:    [][4]uint16{{j, 0, 0, 0}, {j, 0, 0, 0}, {j, 0, 0, 0}},
		Weights:   [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}},
		Indices:   []uint32{0, 1, 2},
		Material:  &scene.Material{Name: name, BaseColor: [4]float32{1, 1, 1, 1}, Roughness: 1},
	}
}

// Clip returns a two-key translation clip on bone.
func Clip(name, bone string) *scene.AnimationClip {
	return &scene.AnimationClip{
		Name: name,
		Tracks: []scene.Track{{
			Node:   bone,
			Path:   scene.PathTranslation,
			Times:  []float32{0, 1},
			Values: []float32{0, 1, 0, 0, 1.5, 0},
		}},
	}
}

func firstBone(bones []Bone) string {
	if len(bones) == 0 {
		return ""
	}
	return bones[0].Name
}

func mustMap(m map[string]any) *meta.Map {
	v, err := meta.FromAny(m)
	if err != nil {
		panic(err)
	}
	out, _ := v.AsMap()
	return out
}
