package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/internal/app"
	"github.com/Faultbox/midgard-avatar/internal/config"
	"github.com/Faultbox/midgard-avatar/internal/logger"
)

const description = `avatarctl - modular avatar composer

Merges avatar parts (glTF or GLB files sharing one skeleton) into a single
avatar and exports it as glTF JSON and GLB.`

type rootCommand struct {
	cmd    *cobra.Command
	fs     afero.Fs
	flags  *config.Flags
	config *config.Config
	ctx    context.Context
}

func newRootCommand(stdout, stderr io.Writer, fs afero.Fs) *rootCommand {
	root := &rootCommand{fs: fs, ctx: context.Background()}

	root.cmd = &cobra.Command{
		Use:           "avatarctl",
		Short:         "Compose modular avatar parts",
		Long:          description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.cmd.SetOut(stdout)
	root.cmd.SetErr(stderr)

	flags := root.cmd.PersistentFlags()
	flags.SortFlags = true
	root.flags = config.BindFlags(flags)

	root.cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return root.init()
	}
	root.cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		logger.Sync()
	}

	root.cmd.AddCommand(
		composeCommand(root),
		inspectCommand(root),
		watchCommand(root),
	)
	return root
}

func (root *rootCommand) init() error {
	cfg, err := config.Load(root.flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Format); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	root.config = cfg
	return nil
}

// state builds the pipeline, with parts from the command line replacing the
// configured ones.
func (root *rootCommand) state(parts []string) (*app.State, error) {
	if len(parts) > 0 {
		root.config.Parts = parts
	}
	return app.New(root.config, app.Options{Fs: root.fs, Logger: logger.Log})
}

// Execute runs the command line and returns the process exit code.
func (root *rootCommand) Execute() int {
	if err := root.cmd.ExecuteContext(root.ctx); err != nil {
		if logger.Log != nil {
			logger.Error("command failed", zap.Error(err))
		}
		fmt.Fprintf(root.cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}
