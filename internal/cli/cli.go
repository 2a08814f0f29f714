package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/shelfimport/internal/app"
	"github.com/vk/shelfimport/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// usageArgs wraps an argument validator so that its failures are usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

type rootFlags struct {
	configFile string
}

// NewRootCommand builds the shelf command tree. Command output goes to outW,
// logs to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Import HCL modules stored in shelf files",
		Long: `shelf stores HCL modules in bbolt-backed shelf files and imports them
through a pluggable finder and loader.

Shelves on the import path are searched in order. A module named a.b is
stored under the key "a.b"; a package named a keeps its own source under
"a.__init__".`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to a config file (yaml, toml or json).")
	pf.StringSliceP("path", "p", nil, "Shelf file to add to the import path. Repeatable.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-file", "", "Write logs to a rotating file instead of stderr.")

	root.AddCommand(
		newCreateCommand(&flags),
		newListCommand(&flags),
		newImportCommand(&flags),
		newDataCommand(&flags),
	)
	return root
}

// Execute runs the command tree against args.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// withApp loads the configuration for cmd, builds an App and runs fn with it.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(*app.App) error, opts ...app.Option) error {
	cfg, err := config.Load(flags.configFile, cmd.Flags())
	if err != nil {
		return usageError(err)
	}
	a, err := app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts...)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func newCreateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create STORE DIR",
		Short: "Populate a shelf from a directory of .hcl files",
		Long: `Replace STORE with a shelf built from DIR. DIR/a/b.hcl is stored as module
"a.b", DIR/a/__init__.hcl as "a.__init__" and every other file as a data
resource under its slash-separated relative path.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.Create(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func newListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list STORE",
		Short: "List the modules and data resources of a shelf",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.List(cmd.Context(), args[0])
			})
		},
	}
}

func newImportCommand(flags *rootFlags) *cobra.Command {
	var (
		opts  app.ImportOptions
		noisy bool
	)
	cmd := &cobra.Command{
		Use:   "import NAME...",
		Short: "Import modules from the shelves on the import path",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var appOpts []app.Option
			if noisy {
				appOpts = append(appOpts, app.WithNoisyHook())
			}
			return withApp(cmd, flags, func(a *app.App) error {
				return a.Import(cmd.Context(), args, opts)
			}, appOpts...)
		},
	}
	cmd.Flags().BoolVar(&opts.Reload, "reload", false, "Reload every module after importing it.")
	cmd.Flags().BoolVar(&opts.ShowCache, "show-cache", false, "Print the path importer cache afterwards.")
	cmd.Flags().BoolVar(&noisy, "noisy", false, "Install a path hook that logs every entry and lookup it sees.")
	return cmd
}

func newDataCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "data PACKAGE RESOURCE",
		Short: "Print a data resource stored next to a package",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.Data(cmd.Context(), args[0], args[1])
			})
		},
	}
}

