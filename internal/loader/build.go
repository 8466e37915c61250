package loader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-avatar/pkg/gltfio"
	"github.com/Faultbox/midgard-avatar/pkg/math"
	"github.com/Faultbox/midgard-avatar/pkg/meta"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// Build errors.
var (
	ErrNoScene              = errors.New("glTF document has no scene")
	ErrInvalidHierarchy     = errors.New("invalid node hierarchy")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
)

// DefaultSceneName names the part root when the glTF scene is unnamed.
const DefaultSceneName = "Scene"

// userData key for node extensions.
const extensionsKey = "gltfExtensions"

// builder turns one document into a scene graph.
type builder struct {
	doc       *gltf.Document
	nodes     []*scene.Node
	joints    map[int]bool
	meshes    map[[2]int]*scene.Mesh
	materials map[int]*scene.Material
}

// Build creates an avatar part from a decoded document whose buffers are
// loaded. The part root is a group named after the document's default
// scene, holding that scene's nodes and every animation clip.
func Build(doc *gltf.Document) (*scene.Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	si := 0
	if doc.Scene != nil {
		si = *doc.Scene
	}
	if si < 0 || si >= len(doc.Scenes) || doc.Scenes[si] == nil {
		return nil, fmt.Errorf("%w: default scene %d of %d", ErrNoScene, si, len(doc.Scenes))
	}
	if err := checkHierarchy(doc); err != nil {
		return nil, err
	}

	b := &builder{
		doc:       doc,
		nodes:     make([]*scene.Node, len(doc.Nodes)),
		joints:    make(map[int]bool),
		meshes:    make(map[[2]int]*scene.Mesh),
		materials: make(map[int]*scene.Material),
	}
	for i, skin := range doc.Skins {
		if skin == nil {
			return nil, fmt.Errorf("%w: skin %d is null", ErrInvalidHierarchy, i)
		}
		for _, j := range skin.Joints {
			if j < 0 || j >= len(doc.Nodes) {
				return nil, fmt.Errorf("%w: skin joint %d out of range", ErrInvalidHierarchy, j)
			}
			b.joints[j] = true
		}
	}

	for i := range doc.Nodes {
		n, err := b.node(i)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		b.nodes[i] = n
	}
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			b.nodes[i].Add(b.nodes[c])
		}
	}

	sc := doc.Scenes[si]
	root := scene.NewGroup(sc.Name)
	if root.Name == "" {
		root.Name = DefaultSceneName
	}
	userData, err := toUserData(sc.Extras, nil)
	if err != nil {
		return nil, fmt.Errorf("scene %d: %w", si, err)
	}
	root.UserData = userData
	for _, ni := range sc.Nodes {
		if ni < 0 || ni >= len(b.nodes) {
			return nil, fmt.Errorf("%w: scene node %d out of range", ErrInvalidHierarchy, ni)
		}
		if b.nodes[ni].Parent() != nil {
			return nil, fmt.Errorf("%w: scene root %d has a parent", ErrInvalidHierarchy, ni)
		}
		root.Add(b.nodes[ni])
	}

	// Skins are resolved once the hierarchy is in place, so computed
	// inverse bind matrices see world transforms.
	skeletons := make([]*scene.Skeleton, len(doc.Skins))
	for i := range doc.Skins {
		s, err := b.skeleton(i)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", i, err)
		}
		skeletons[i] = s
	}
	for i, gn := range doc.Nodes {
		if gn.Skin == nil || gn.Mesh == nil {
			continue
		}
		if *gn.Skin < 0 || *gn.Skin >= len(skeletons) {
			return nil, fmt.Errorf("node %d: skin %d out of range", i, *gn.Skin)
		}
		bindMeshes(b.nodes[i], skeletons[*gn.Skin])
	}

	for i := range doc.Animations {
		clip, err := b.animation(i)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		root.Animations = append(root.Animations, clip)
	}
	return root, nil
}

// checkHierarchy verifies children indices are in range, that no node has
// two parents and that the graph is acyclic.
func checkHierarchy(doc *gltf.Document) error {
	parent := make([]int, len(doc.Nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range doc.Nodes {
		if n == nil {
			return fmt.Errorf("%w: node %d is null", ErrInvalidHierarchy, i)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return fmt.Errorf("%w: node %d has child %d out of range", ErrInvalidHierarchy, i, c)
			}
			if parent[c] != -1 {
				return fmt.Errorf("%w: node %d has parents %d and %d", ErrInvalidHierarchy, c, parent[c], i)
			}
			parent[c] = i
		}
	}
	for i := range doc.Nodes {
		steps := 0
		for p := parent[i]; p != -1; p = parent[p] {
			if steps++; steps > len(doc.Nodes) || p == i {
				return fmt.Errorf("%w: node %d is its own ancestor", ErrInvalidHierarchy, i)
			}
		}
	}
	return nil
}

// bindMeshes binds n, or its primitive children for multi-primitive meshes.
func bindMeshes(n *scene.Node, s *scene.Skeleton) {
	if n.Kind == scene.KindSkinnedMesh {
		n.Bind(s)
		return
	}
	for _, c := range n.Children() {
		if c.Kind == scene.KindSkinnedMesh && c.Skeleton == nil {
			c.Bind(s)
		}
	}
}

func (b *builder) node(i int) (*scene.Node, error) {
	gn := b.doc.Nodes[i]

	kind := scene.KindGroup
	if b.joints[i] {
		kind = scene.KindBone
	}
	n := scene.NewNode(gn.Name, kind)
	n.Transform = transform(gn)
	userData, err := toUserData(gn.Extras, gn.Extensions)
	if err != nil {
		return nil, err
	}
	n.UserData = userData

	if gn.Mesh == nil {
		return n, nil
	}
	mi := *gn.Mesh
	if mi < 0 || mi >= len(b.doc.Meshes) || b.doc.Meshes[mi] == nil {
		return nil, fmt.Errorf("mesh %d out of range", mi)
	}
	gm := b.doc.Meshes[mi]

	meshKind := scene.KindMesh
	if gn.Skin != nil {
		meshKind = scene.KindSkinnedMesh
	}
	if len(gm.Primitives) == 1 && kind != scene.KindBone {
		mesh, err := b.mesh(mi, 0)
		if err != nil {
			return nil, err
		}
		n.Kind = meshKind
		n.Mesh = mesh
		return n, nil
	}
	for pi := range gm.Primitives {
		mesh, err := b.mesh(mi, pi)
		if err != nil {
			return nil, err
		}
		child := scene.NewNode(fmt.Sprintf("%s_%d", gn.Name, pi), meshKind)
		child.Mesh = mesh
		n.Add(child)
	}
	return n, nil
}

// transform reads a node's matrix when it is not the identity, its TRS
// properties otherwise.
func transform(gn *gltf.Node) scene.Transform {
	if m := gn.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var mat math.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		t, r, s := mat.Decompose()
		return scene.Transform{Translation: t, Rotation: r, Scale: s}
	}
	tr, r, s := gn.TranslationOrDefault(), gn.RotationOrDefault(), gn.ScaleOrDefault()
	return scene.Transform{
		Translation: math.Vec3FromArray(narrow3(tr)),
		Rotation:    math.QuatFromArray([4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])}),
		Scale:       math.Vec3FromArray(narrow3(s)),
	}
}

func narrow3(v [3]float64) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

// toUserData maps object-valued extras onto userData and places extensions
// under the gltfExtensions key, sorted by name.
func toUserData(extras any, extensions gltf.Extensions) (*meta.Map, error) {
	out := meta.NewMap()
	if extras != nil {
		v, err := meta.FromAny(extras)
		if err != nil {
			return nil, fmt.Errorf("extras: %w", err)
		}
		if m, ok := v.AsMap(); ok {
			out.Merge(m)
		}
	}
	if len(extensions) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	slices.Sort(names)
	ext := meta.NewMap()
	for _, name := range names {
		v, err := meta.FromAny(extensions[name])
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", name, err)
		}
		ext.Set(name, v)
	}
	out.Set(extensionsKey, meta.Object(ext))
	return out, nil
}

func (b *builder) material(i int) (*scene.Material, error) {
	if m, ok := b.materials[i]; ok {
		return m, nil
	}
	if i < 0 || i >= len(b.doc.Materials) || b.doc.Materials[i] == nil {
		return nil, fmt.Errorf("material %d out of range", i)
	}
	gm := b.doc.Materials[i]
	m := &scene.Material{
		Name:        gm.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		DoubleSided: gm.DoubleSided,
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.BaseColor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		m.Metallic = float32(pbr.MetallicFactorOrDefault())
		m.Roughness = float32(pbr.RoughnessFactorOrDefault())
	}
	b.materials[i] = m
	return m, nil
}

func (b *builder) mesh(mi, pi int) (*scene.Mesh, error) {
	key := [2]int{mi, pi}
	if m, ok := b.meshes[key]; ok {
		return m, nil
	}
	gm := b.doc.Meshes[mi]
	prim := gm.Primitives[pi]
	if prim == nil {
		return nil, fmt.Errorf("%w: mesh %d primitive %d is null", ErrUnsupportedPrimitive, mi, pi)
	}
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("%w: mesh %d primitive %d mode %s", ErrUnsupportedPrimitive, mi, pi, prim.Mode)
	}
	pos, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: mesh %d primitive %d has no POSITION", ErrUnsupportedPrimitive, mi, pi)
	}

	name := gm.Name
	if len(gm.Primitives) > 1 {
		name = fmt.Sprintf("%s_%d", gm.Name, pi)
	}
	m := &scene.Mesh{Name: name}
	var err error
	if m.Positions, err = gltfio.Positions(b.doc, pos); err != nil {
		return nil, err
	}
	if a, ok := prim.Attributes[gltf.NORMAL]; ok {
		if m.Normals, err = gltfio.Normals(b.doc, a); err != nil {
			return nil, err
		}
	}
	if a, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if m.TexCoords, err = gltfio.TexCoords(b.doc, a); err != nil {
			return nil, err
		}
	}
	if a, ok := prim.Attributes[gltf.JOINTS_0]; ok {
		if m.Joints, err = gltfio.Joints(b.doc, a); err != nil {
			return nil, err
		}
	}
	if a, ok := prim.Attributes[gltf.WEIGHTS_0]; ok {
		if m.Weights, err = gltfio.Weights(b.doc, a); err != nil {
			return nil, err
		}
	}
	if prim.Indices != nil {
		if m.Indices, err = gltfio.Indices(b.doc, *prim.Indices); err != nil {
			return nil, err
		}
	}
	if prim.Material != nil {
		if m.Material, err = b.material(*prim.Material); err != nil {
			return nil, err
		}
	}
	b.meshes[key] = m
	return m, nil
}

func (b *builder) skeleton(i int) (*scene.Skeleton, error) {
	skin := b.doc.Skins[i]
	bones := make([]*scene.Node, len(skin.Joints))
	for k, j := range skin.Joints {
		bones[k] = b.nodes[j]
	}

	var inverses []math.Mat4
	if skin.InverseBindMatrices != nil {
		mats, err := gltfio.Matrices(b.doc, *skin.InverseBindMatrices)
		if err != nil {
			return nil, err
		}
		if len(mats) != len(bones) {
			return nil, fmt.Errorf("%d inverse bind matrices for %d joints", len(mats), len(bones))
		}
		inverses = make([]math.Mat4, len(mats))
		for k, m := range mats {
			inverses[k] = m
		}
	}
	return scene.NewSkeleton(bones, inverses), nil
}

func (b *builder) animation(i int) (*scene.AnimationClip, error) {
	ga := b.doc.Animations[i]
	if ga == nil {
		return nil, fmt.Errorf("%w: animation is null", gltfio.ErrInvalidDocument)
	}
	clip := &scene.AnimationClip{Name: ga.Name}
	if clip.Name == "" {
		clip.Name = fmt.Sprintf("animation_%d", i)
	}

	for ci, ch := range ga.Channels {
		if ch == nil || ch.Target.Node == nil {
			continue
		}
		ni := *ch.Target.Node
		if ni < 0 || ni >= len(b.nodes) {
			return nil, fmt.Errorf("channel %d: node %d out of range", ci, ni)
		}
		var path scene.TrackPath
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			path = scene.PathTranslation
		case gltf.TRSRotation:
			path = scene.PathRotation
		case gltf.TRSScale:
			path = scene.PathScale
		default:
			// Morph target weights are not carried.
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(ga.Samplers) || ga.Samplers[ch.Sampler] == nil {
			return nil, fmt.Errorf("channel %d: sampler %d out of range", ci, ch.Sampler)
		}
		s := ga.Samplers[ch.Sampler]

		times, err := gltfio.Floats(b.doc, s.Input)
		if err != nil {
			return nil, fmt.Errorf("channel %d input: %w", ci, err)
		}
		values, err := gltfio.Floats(b.doc, s.Output)
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}

		interp := scene.InterpolationLinear
		switch s.Interpolation {
		case gltf.InterpolationStep:
			interp = scene.InterpolationStep
		case gltf.InterpolationCubicSpline:
			interp = scene.InterpolationCubicSpline
		}
		clip.Tracks = append(clip.Tracks, scene.Track{
			Node:          b.nodes[ni].Name,
			Path:          path,
			Interpolation: interp,
			Times:         times,
			Values:        values,
		})
	}
	return clip, nil
}
