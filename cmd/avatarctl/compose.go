package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-avatar/internal/app"
)

func composeCommand(root *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "compose [part...]",
		Short: "Compose parts and export the avatar",
		Long: `Compose parts and export the avatar.

Parts given as arguments replace the parts listed in the config file. Each
part is a local path or an http(s) URL.`,
		Example: `  avatarctl compose body.glb hair.glb hat.glb
  avatarctl compose -o ./out --indent --text-sink file body.glb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.state(args)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.Run(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, r *app.Report) {
	fmt.Fprintf(w, "Request:  %s\n", r.RequestID)
	for _, d := range []*app.Delivery{r.Text, r.Binary} {
		if d == nil {
			continue
		}
		fmt.Fprintf(w, "%-24s %8d bytes  %016x  -> %s\n", d.Name, d.Bytes, d.Digest, d.Sink)
	}
}
