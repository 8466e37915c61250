package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-avatar/internal/export"
	"github.com/Faultbox/midgard-avatar/internal/fixture"
)

func writePart(t *testing.T, fs afero.Fs, path string, part fixture.Part) {
	t.Helper()
	root := part.Build(path)
	res, err := export.New(nil).Export(root, export.Options{Binary: true, Animations: root.Animations})
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, res.Data, 0o644))
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, string, int) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr, fs)
	root.cmd.SetArgs(args)
	code := root.Execute()
	return stdout.String(), stderr.String(), code
}

func TestCompose(t *testing.T) {
	fs := afero.NewMemMapFs()
	bones := fixture.Chain("Hips", "Spine")
	writePart(t, fs, "/parts/body.glb", fixture.Part{Bones: bones, Clips: []string{"idle"}})
	writePart(t, fs, "/parts/hair.glb", fixture.Part{Bones: bones})

	stdout, stderr, code := run(t, fs, "compose", "-o", "/out", "--text-sink", "file", "--log-format", "json",
		"/parts/body.glb", "/parts/hair.glb")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "custom_avatar.gltf")
	assert.Contains(t, stdout, "custom_avatar.glb")
	for _, name := range []string{"/out/custom_avatar.gltf", "/out/custom_avatar.glb"} {
		exists, err := afero.Exists(fs, name)
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
}

func TestCompose_MissingPart(t *testing.T) {
	_, stderr, code := run(t, afero.NewMemMapFs(), "compose", "/parts/missing.glb")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.glb")
}

func TestCompose_NoParts(t *testing.T) {
	_, stderr, code := run(t, afero.NewMemMapFs(), "compose")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid config")
}

func TestInspect(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePart(t, fs, "/parts/body.glb", fixture.Part{Bones: fixture.Chain("Hips", "Spine", "Head"), Clips: []string{"idle"}})

	stdout, stderr, code := run(t, fs, "inspect", "/parts/body.glb")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Scene:         found")
	assert.Contains(t, stdout, "AvatarRoot:    found")
	assert.Contains(t, stdout, "Skinned meshes: 1")
	assert.Contains(t, stdout, "Hips, Spine, Head")
	assert.Contains(t, stdout, "clips=[idle]")
}

func TestInspect_RequiresOnePart(t *testing.T) {
	_, _, code := run(t, afero.NewMemMapFs(), "inspect")
	assert.Equal(t, 1, code)
}
