// Package cli implements the careteam command line dashboard.
package cli

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/internal/config"
	"github.com/goliatone/go-careteam-sync/pkg/di"
)

// ContainerFactory builds the container for a command run.
type ContainerFactory func(ctx context.Context, cfgFile string, verbose bool) (*di.Container, error)

// App holds state shared by every command of one invocation.
type App struct {
	cfgFile string
	verbose bool
	noColor bool

	factory   ContainerFactory
	container *di.Container
	printer   *Printer
}

// Option configures an App.
type Option func(*App)

// WithContainerFactory replaces how the container is built.
func WithContainerFactory(f ContainerFactory) Option {
	return func(a *App) { a.factory = f }
}

// NewApp creates an App. Call Close once the command has run.
func NewApp(opts ...Option) *App {
	app := &App{factory: defaultFactory}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Command returns the careteam command tree bound to a.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "careteam",
		Short: "Care-team messaging dashboard",
		Long: `careteam is a terminal dashboard for the care-team messaging backend.

Example usage:
  careteam login --email dana@example.com
  careteam users                 # List users, named first
  careteam messages 15551234567  # Show a conversation
  careteam messages 15551234567 --watch
  careteam send 15551234567 "We'll call you shortly"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .careteam.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.signupCmd(),
		a.usersCmd(),
		a.assignNameCmd(),
		a.deleteUserCmd(),
		a.messagesCmd(),
		a.sendCmd(),
		a.markReadCmd(),
		a.inboxCmd(),
		a.surveysCmd(),
		a.membersCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args and reports errors.
func Execute(ctx context.Context) int {
	app := NewApp()
	root := app.Command()
	err := root.ExecuteContext(ctx)
	if closeErr := app.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		NewPrinter(root.OutOrStdout(), root.ErrOrStderr(), useColors(app.noColor)).Error("%s", describe(err))
		return 1
	}
	return 0
}

func (a *App) setup(cmd *cobra.Command) error {
	a.printer = NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), useColors(a.noColor))
	if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
		return nil
	}

	container, err := a.factory(cmd.Context(), a.cfgFile, a.verbose)
	if err != nil {
		return err
	}
	a.container = container
	return nil
}

// Close releases the container built for the last run.
func (a *App) Close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}

func defaultFactory(ctx context.Context, cfgFile string, verbose bool) (*di.Container, error) {
	cfg, err := loadConfig(cfgFile, verbose)
	if err != nil {
		return nil, err
	}
	return di.NewContainer(ctx, cfg)
}

// useColors honours --no-color, NO_COLOR and non-terminal output.
func useColors(disabled bool) bool {
	if disabled {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return !color.NoColor
}

func loadConfig(cfgFile string, verbose bool) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// describe turns an error into a message for people.
func describe(err error) string {
	switch {
	case errors.Is(err, errNotSignedIn):
		return "not signed in, run careteam login first"
	case errors.Is(err, errBadCredentials):
		return errBadCredentials.Message
	case api.IsNetwork(err):
		return "cannot reach the careteam backend"
	case api.IsUnauthorized(err):
		return "the backend rejected your session, run careteam login again"
	}

	var e *errors.Error
	if errors.As(err, &e) {
		if len(e.ValidationErrors) > 0 {
			return e.Message + ": " + e.ValidationErrors.Error()
		}
		return e.Message
	}
	return err.Error()
}
