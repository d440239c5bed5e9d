// Command themecheck validates OBS theme files from the command line. It
// shares the validator and catalog with themesrv, so a theme that passes
// here is accepted by the service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/internal/config"
	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/internal/theme"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// errFailed signals a completed run whose findings should fail the process.
// The findings have already been printed.
var errFailed = errors.New("validation failed")

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the command tree and maps its outcome to an exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "themecheck",
		Short:         "Validate and inspect OBS theme files",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging on stderr")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	configCmd.AddCommand(newConfigGenerateCmd())

	rootCmd.AddCommand(newValidateCmd(opts), newListCmd(opts), configCmd)
	return rootCmd
}

// toolkit is the set of collaborators a subcommand works with.
type toolkit struct {
	cfg        *config.Config
	logger     *zap.Logger
	loader     *catalog.Loader
	aggregator *catalog.Aggregator
}

// setup loads configuration and builds the validator and catalog. A non-empty
// dir overrides the configured theme directory.
func (o *globalOptions) setup(dir string) (*toolkit, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.Themes.Directory = dir
	}

	logger, err := observability.NewConsoleLogger(o.verbose)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	validator := theme.NewValidator(
		theme.WithMaxVariables(cfg.Themes.MaxVariables),
		theme.WithMaxValueLength(cfg.Themes.MaxValueLength),
	)
	loader := catalog.NewLoader(cfg.Themes.Extensions...)
	aggregator := catalog.NewAggregator(loader, validator, cfg.Themes.Parallelism,
		catalog.WithAggregatorLogger(logger.Named("catalog")),
	)

	return &toolkit{cfg: cfg, logger: logger, loader: loader, aggregator: aggregator}, nil
}
