package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/internal/app"
	"github.com/Faultbox/midgard-avatar/internal/logger"
)

func watchCommand(root *rootCommand) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [part...]",
		Short: "Re-export whenever a local part file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.state(args)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Watching parts, press Ctrl+C to stop")
			return s.Watch(ctx, debounce, func(r *app.Report, err error) {
				if err != nil {
					if !app.IsCanceled(err) {
						logger.Error("export failed", zap.Error(err))
					}
					return
				}
				printReport(w, r)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", app.DefaultDebounce, "Quiet period before re-exporting")
	return cmd
}
