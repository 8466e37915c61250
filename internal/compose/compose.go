// Package compose merges independently authored avatar parts into one
// exportable scene graph sharing a single skeleton.
package compose

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// Avatar is a composed avatar. Every node is newly allocated; mesh geometry,
// materials and animation clips are shared with the input parts.
type Avatar struct {
	Scene      *scene.Node
	AvatarRoot *scene.Node
	Skeleton   *scene.Skeleton
	Meshes     []*scene.Node
}

// Animations returns the merged clip list carried by the scene root.
func (a *Avatar) Animations() []*scene.AnimationClip {
	return a.Scene.Animations
}

// Composer merges avatar parts. It holds no per-request state and is safe for
// concurrent use.
type Composer struct {
	log *zap.Logger
}

// New creates a Composer. A nil logger discards output.
func New(log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{log: log}
}

// Compose merges parts, which are never modified. The first part's Scene and
// AvatarRoot are the clone templates and the first skinned mesh supplies the
// skeleton.
func (c *Composer) Compose(parts []*scene.Node) (*Avatar, error) {
	loc := Locate(parts)
	c.log.Debug("located parts",
		zap.Int("parts", len(parts)),
		zap.Int("scenes", len(loc.Scenes)),
		zap.Int("avatarRoots", len(loc.AvatarRoots)),
		zap.Int("skinnedMeshes", len(loc.Meshes)),
	)

	if len(loc.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no part has a %q node", ErrMissingRequiredNode, SceneNodeName)
	}
	if len(loc.AvatarRoots) == 0 {
		return nil, fmt.Errorf("%w: no part has an %q node", ErrMissingRequiredNode, AvatarRootNodeName)
	}
	if len(loc.Meshes) == 0 {
		return nil, fmt.Errorf("%w: no part has a skinned mesh", ErrMissingSkeletonSource)
	}

	root := c.mergeScenes(loc.Scenes)
	avatarRoot := c.mergeAvatarRoots(loc.AvatarRoots)

	meshes := make([]*scene.Node, len(loc.Meshes))
	for i, m := range loc.Meshes {
		meshes[i] = m.Clone()
	}
	skeleton, err := CloneSkeleton(meshes[0])
	if err != nil {
		return nil, fmt.Errorf("cloning skeleton of %q: %w", meshes[0].Name, err)
	}
	c.log.Debug("cloned skeleton",
		zap.String("source", meshes[0].Name),
		zap.Strings("bones", skeleton.BoneNames()),
	)

	for _, m := range meshes {
		if err := checkJoints(m, skeleton); err != nil {
			return nil, err
		}
		m.Bind(skeleton)
	}

	root.Add(avatarRoot)
	avatarRoot.Add(skeleton.Root())
	avatarRoot.Add(meshes...)

	if ce := c.log.Check(zap.DebugLevel, "composed avatar"); ce != nil {
		ce.Write(zap.String("tree", scene.Describe(root)))
	}

	return &Avatar{
		Scene:      root,
		AvatarRoot: avatarRoot,
		Skeleton:   skeleton,
		Meshes:     meshes,
	}, nil
}

// mergeScenes clones the first scene node and folds every scene's userData
// and clips into it. The clone already carries the first scene's clips.
func (c *Composer) mergeScenes(scenes []*scene.Node) *scene.Node {
	out := scenes[0].Clone()
	for i, s := range scenes {
		out.UserData.Merge(s.UserData)
		if i > 0 {
			c.addClips(out, s.Animations)
		}
	}
	return out
}

// addClips appends the clips whose names are not yet on dst. Names are
// checked against dst as it was before this call, so duplicates within clips
// itself are all appended.
func (c *Composer) addClips(dst *scene.Node, clips []*scene.AnimationClip) {
	present := make(map[string]bool, len(dst.Animations))
	for _, clip := range dst.Animations {
		present[clip.Name] = true
	}

	var add []*scene.AnimationClip
	for _, clip := range clips {
		if present[clip.Name] {
			c.log.Debug("skipping duplicate clip", zap.String("clip", clip.Name))
			continue
		}
		add = append(add, clip)
	}
	dst.Animations = append(dst.Animations, add...)
}

func (c *Composer) mergeAvatarRoots(roots []*scene.Node) *scene.Node {
	out := roots[0].Clone()
	for _, r := range roots {
		out.UserData = CombineHubsComponents(out.UserData, r.UserData)
	}
	return out
}

// checkJoints verifies every weighted joint index of mesh addresses a bone of
// skeleton. Bone sets need not match otherwise.
func checkJoints(mesh *scene.Node, skeleton *scene.Skeleton) error {
	if mesh.Mesh == nil {
		return nil
	}
	if j := mesh.Mesh.MaxJoint(); j >= len(skeleton.Bones) {
		return fmt.Errorf("%w: mesh %q references joint %d, skeleton has %d bones",
			ErrStructuralPrecondition, mesh.Name, j, len(skeleton.Bones))
	}
	return nil
}
