package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-avatar/internal/compose"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

func inspectCommand(root *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect <part>",
		Short:   "Show a part's merge anchors, skinned meshes and skeleton",
		Args:    cobra.ExactArgs(1),
		Example: `  avatarctl inspect body.glb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.state(args)
			if err != nil {
				return err
			}
			defer s.Close()

			part, err := s.Loader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			loc := compose.Locate([]*scene.Node{part})
			fmt.Fprintf(w, "Part:          %s\n", args[0])
			fmt.Fprintf(w, "Scene:         %s\n", found(len(loc.Scenes) > 0))
			fmt.Fprintf(w, "AvatarRoot:    %s\n", found(len(loc.AvatarRoots) > 0))
			fmt.Fprintf(w, "Skinned meshes: %d\n", len(loc.Meshes))
			if len(loc.Meshes) > 0 && loc.Meshes[0].Skeleton != nil {
				fmt.Fprintf(w, "Skeleton:      %s\n", strings.Join(loc.Meshes[0].Skeleton.BoneNames(), ", "))
			}
			fmt.Fprintf(w, "\n%s", scene.Describe(part))
			return nil
		},
	}
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "missing"
}
