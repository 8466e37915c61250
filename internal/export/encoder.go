package export

import (
	"fmt"
	stdmath "math"
	"slices"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/pkg/gltfio"
	"github.com/Faultbox/midgard-avatar/pkg/math"
	"github.com/Faultbox/midgard-avatar/pkg/meta"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// userData key holding node extensions.
const extensionsKey = "gltfExtensions"

// encoder holds the per-export lookup tables. Tables are reset, not
// reallocated, between exports.
type encoder struct {
	log *zap.Logger

	doc       *gltf.Document
	nodes     map[*scene.Node]int
	byName    map[string]int
	meshes    map[*scene.Mesh]int
	materials map[*scene.Material]int
	skins     map[*scene.Skeleton]int
	extUsed   map[string]bool
}

func newEncoder(log *zap.Logger) *encoder {
	return &encoder{
		log:       log,
		nodes:     make(map[*scene.Node]int),
		byName:    make(map[string]int),
		meshes:    make(map[*scene.Mesh]int),
		materials: make(map[*scene.Material]int),
		skins:     make(map[*scene.Skeleton]int),
		extUsed:   make(map[string]bool),
	}
}

func (e *encoder) reset() {
	clear(e.nodes)
	clear(e.byName)
	clear(e.meshes)
	clear(e.materials)
	clear(e.skins)
	clear(e.extUsed)
	e.doc = &gltf.Document{
		Asset: gltf.Asset{Version: gltfio.Version, Generator: Generator},
	}
}

// encode builds the document. Nodes are indexed in pre-order so a parent
// always precedes its children. All binary data lands in one buffer; in
// text mode it is embedded as a data URI.
func (e *encoder) encode(root *scene.Node, opts Options) (*gltf.Document, error) {
	e.reset()
	doc := e.doc

	var err error
	root.Walk(func(n *scene.Node) bool {
		if err = checkTransform(n); err != nil {
			return false
		}
		idx := len(doc.Nodes)
		e.nodes[n] = idx
		if _, seen := e.byName[n.Name]; !seen {
			e.byName[n.Name] = idx
		}
		doc.Nodes = append(doc.Nodes, e.node(n))
		return true
	})
	if err != nil {
		return nil, err
	}

	root.Traverse(func(n *scene.Node) {
		node := doc.Nodes[e.nodes[n]]
		for _, c := range n.Children() {
			node.Children = append(node.Children, e.nodes[c])
		}
	})

	// Meshes and skins are added in node order for stable output.
	for _, n := range orderedNodes(e.nodes) {
		if n.Mesh == nil {
			continue
		}
		if err := e.addMesh(n); err != nil {
			return nil, err
		}
	}

	for _, clip := range opts.Animations {
		if clip == nil {
			continue
		}
		if err := e.addAnimation(clip); err != nil {
			return nil, err
		}
	}

	doc.Scenes = []*gltf.Scene{{Name: root.Name, Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	for name := range e.extUsed {
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, name)
	}
	slices.Sort(doc.ExtensionsUsed)

	if !opts.Binary {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
	}
	return doc, nil
}

// orderedNodes returns the indexed nodes by index.
func orderedNodes(index map[*scene.Node]int) []*scene.Node {
	out := make([]*scene.Node, len(index))
	for n, i := range index {
		out[i] = n
	}
	return out
}

// node converts n's transform and metadata. Defaults are left for the
// codec to omit.
func (e *encoder) node(n *scene.Node) *gltf.Node {
	t := n.Transform
	out := &gltf.Node{
		Name:        n.Name,
		Translation: widen3(t.Translation.Array()),
		Rotation:    widen4(t.Rotation.Array()),
		Scale:       widen3(t.Scale.Array()),
	}

	extras := n.UserData.Without(extensionsKey)
	if n.UserData.Has(extensionsKey) {
		if ext, ok := n.UserData.Map(extensionsKey); ok {
			if ext.Len() > 0 {
				out.Extensions = make(gltf.Extensions, ext.Len())
				ext.Range(func(name string, v meta.Value) bool {
					out.Extensions[name] = v.Clone()
					e.extUsed[name] = true
					return true
				})
			}
		} else {
			v, _ := n.UserData.Get(extensionsKey)
			e.log.Warn("keeping non-object node extensions as extras",
				zap.String("node", n.Name),
				zap.Stringer("kind", v.Kind()),
			)
			extras = n.UserData.Clone()
		}
	}
	if extras.Len() > 0 {
		out.Extras = extras
	}
	return out
}

func widen3(v [3]float32) [3]float64 {
	return [3]float64{float64(v[0]), float64(v[1]), float64(v[2])}
}

func widen4(v [4]float32) [4]float64 {
	return [4]float64{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}
}

func checkTransform(n *scene.Node) error {
	t := n.Transform
	tr, r, sc := t.Translation.Array(), t.Rotation.Array(), t.Scale.Array()
	values := make([]float32, 0, 10)
	values = append(values, tr[:]...)
	values = append(values, r[:]...)
	values = append(values, sc[:]...)
	for _, v := range values {
		f := float64(v)
		if stdmath.IsNaN(f) || stdmath.IsInf(f, 0) {
			return fmt.Errorf("%w: node %q has a non-finite transform", ErrEncode, n.Name)
		}
	}
	return nil
}

func (e *encoder) addMesh(n *scene.Node) error {
	doc := e.doc
	node := doc.Nodes[e.nodes[n]]

	mi, ok := e.meshes[n.Mesh]
	if !ok {
		mesh, err := e.mesh(n)
		if err != nil {
			return err
		}
		mi = len(doc.Meshes)
		doc.Meshes = append(doc.Meshes, mesh)
		e.meshes[n.Mesh] = mi
	}
	node.Mesh = gltf.Index(mi)

	if n.Kind != scene.KindSkinnedMesh {
		return nil
	}
	si, err := e.skin(n)
	if err != nil {
		return err
	}
	node.Skin = gltf.Index(si)
	return nil
}

func (e *encoder) mesh(n *scene.Node) (*gltf.Mesh, error) {
	m := n.Mesh
	count := m.VertexCount()
	if count == 0 {
		return nil, fmt.Errorf("%w: mesh of %q has no vertices", ErrEncode, n.Name)
	}
	for _, attr := range []struct {
		name string
		n    int
	}{
		{gltf.NORMAL, len(m.Normals)},
		{gltf.TEXCOORD_0, len(m.TexCoords)},
		{gltf.JOINTS_0, len(m.Joints)},
		{gltf.WEIGHTS_0, len(m.Weights)},
	} {
		if attr.n != 0 && attr.n != count {
			return nil, fmt.Errorf("%w: mesh of %q has %d %s values for %d vertices", ErrEncode, n.Name, attr.n, attr.name, count)
		}
	}
	for _, i := range m.Indices {
		if int(i) >= count {
			return nil, fmt.Errorf("%w: mesh of %q indexes vertex %d of %d", ErrEncode, n.Name, i, count)
		}
	}

	doc := e.doc
	prim := &gltf.Primitive{Attributes: gltf.PrimitiveAttributes{
		gltf.POSITION: modeler.WritePosition(doc, m.Positions),
	}}
	if len(m.Normals) > 0 {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, m.Normals)
	}
	if len(m.TexCoords) > 0 {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, m.TexCoords)
	}
	if n.Kind == scene.KindSkinnedMesh && len(m.Joints) > 0 {
		prim.Attributes[gltf.JOINTS_0] = modeler.WriteJoints(doc, m.Joints)
		weights := m.Weights
		if len(weights) == 0 {
			weights = make([][4]float32, count)
			for i := range weights {
				weights[i][0] = 1
			}
		}
		prim.Attributes[gltf.WEIGHTS_0] = modeler.WriteWeights(doc, weights)
	}
	if len(m.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, narrowIndices(m.Indices)))
	}
	if m.Material != nil {
		prim.Material = gltf.Index(e.material(m.Material))
	}

	name := m.Name
	if name == "" {
		name = n.Name
	}
	return &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}}, nil
}

// narrowIndices returns 16-bit indices when every index fits.
func narrowIndices(v []uint32) any {
	if slices.Max(v) > stdmath.MaxUint16 {
		return v
	}
	out := make([]uint16, len(v))
	for i, x := range v {
		out[i] = uint16(x)
	}
	return out
}

func (e *encoder) material(mat *scene.Material) int {
	if i, ok := e.materials[mat]; ok {
		return i
	}
	doc := e.doc
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{
				float64(mat.BaseColor[0]), float64(mat.BaseColor[1]),
				float64(mat.BaseColor[2]), float64(mat.BaseColor[3]),
			},
			MetallicFactor:  gltf.Float(float64(mat.Metallic)),
			RoughnessFactor: gltf.Float(float64(mat.Roughness)),
		},
		DoubleSided: mat.DoubleSided,
	})
	e.materials[mat] = len(doc.Materials) - 1
	return len(doc.Materials) - 1
}

// skin returns the skin index for n's skeleton. Every bone must be part of
// the exported tree.
func (e *encoder) skin(n *scene.Node) (int, error) {
	sk := n.Skeleton
	if sk == nil || len(sk.Bones) == 0 {
		return 0, fmt.Errorf("%w: skinned mesh %q has no skeleton", ErrEncode, n.Name)
	}
	if n.Mesh != nil {
		if j := n.Mesh.MaxJoint(); j >= len(sk.Bones) {
			return 0, fmt.Errorf("%w: skinned mesh %q references joint %d of %d", ErrEncode, n.Name, j, len(sk.Bones))
		}
	}
	if i, ok := e.skins[sk]; ok {
		return i, nil
	}

	joints := make([]int, len(sk.Bones))
	for i, bone := range sk.Bones {
		idx, ok := e.nodes[bone]
		if !ok {
			return 0, fmt.Errorf("%w: bone %q of skinned mesh %q is not in the exported tree", ErrEncode, bone.Name, n.Name)
		}
		joints[i] = idx
	}

	inverses := sk.BoneInverses
	if len(inverses) != len(sk.Bones) {
		inverses = make([]math.Mat4, len(sk.Bones))
		for i, bone := range sk.Bones {
			inverses[i] = bone.WorldMatrix().Inverse()
		}
	}
	ibm := make([][4][4]float32, len(inverses))
	for i, m := range inverses {
		ibm[i] = gltfio.Columns(m)
	}

	doc := e.doc
	doc.Skins = append(doc.Skins, &gltf.Skin{
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, ibm)),
		Skeleton:            gltf.Index(joints[0]),
		Joints:              joints,
	})
	e.skins[sk] = len(doc.Skins) - 1
	return len(doc.Skins) - 1, nil
}

func (e *encoder) addAnimation(clip *scene.AnimationClip) error {
	anim := &gltf.Animation{Name: clip.Name}
	for _, track := range clip.Tracks {
		target, ok := e.byName[track.Node]
		if !ok {
			e.log.Warn("skipping animation track for unknown node",
				zap.String("clip", clip.Name),
				zap.String("node", track.Node),
				zap.Stringer("path", track.Path),
			)
			continue
		}

		comps := track.Path.Components()
		if track.Interpolation == scene.InterpolationCubicSpline {
			comps *= 3
		}
		if len(track.Times) == 0 || len(track.Values) != len(track.Times)*comps {
			return fmt.Errorf("%w: clip %q track %s.%s has %d values for %d keyframes",
				ErrEncode, clip.Name, track.Node, track.Path, len(track.Values), len(track.Times))
		}

		anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
			Input:         e.keyframes(track.Times),
			Interpolation: interpolation(track.Interpolation),
			Output:        e.values(track),
		})
		anim.Channels = append(anim.Channels, &gltf.AnimationChannel{
			Sampler: len(anim.Samplers) - 1,
			Target:  gltf.AnimationChannelTarget{Node: gltf.Index(target), Path: trsPath(track.Path)},
		})
	}

	if len(anim.Channels) == 0 {
		e.log.Warn("dropping animation without resolvable tracks", zap.String("clip", clip.Name))
		return nil
	}
	e.doc.Animations = append(e.doc.Animations, anim)
	return nil
}

// keyframes writes an animation input accessor with the bounds the schema
// requires.
func (e *encoder) keyframes(times []float32) int {
	idx := modeler.WriteAccessor(e.doc, gltf.TargetNone, times)
	acr := e.doc.Accessors[idx]
	acr.Min = []float64{float64(slices.Min(times))}
	acr.Max = []float64{float64(slices.Max(times))}
	return idx
}

// values writes a track's flat keyframe values as VEC4 for rotations and
// VEC3 otherwise.
func (e *encoder) values(track scene.Track) int {
	v := track.Values
	if track.Path == scene.PathRotation {
		out := make([][4]float32, len(v)/4)
		for i := range out {
			copy(out[i][:], v[i*4:])
		}
		return modeler.WriteAccessor(e.doc, gltf.TargetNone, out)
	}
	out := make([][3]float32, len(v)/3)
	for i := range out {
		copy(out[i][:], v[i*3:])
	}
	return modeler.WriteAccessor(e.doc, gltf.TargetNone, out)
}

func interpolation(i scene.Interpolation) gltf.Interpolation {
	switch i {
	case scene.InterpolationStep:
		return gltf.InterpolationStep
	case scene.InterpolationCubicSpline:
		return gltf.InterpolationCubicSpline
	default:
		return gltf.InterpolationLinear
	}
}

func trsPath(p scene.TrackPath) gltf.TRSProperty {
	switch p {
	case scene.PathRotation:
		return gltf.TRSRotation
	case scene.PathScale:
		return gltf.TRSScale
	default:
		return gltf.TRSTranslation
	}
}
