// Package commands implements CLI command handlers for depinfer.
package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depinfer/pkg/config"
	"github.com/Sumatoshi-tech/depinfer/pkg/discovery"
	"github.com/Sumatoshi-tech/depinfer/pkg/engine"
	"github.com/Sumatoshi-tech/depinfer/pkg/observability"
	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
	"github.com/Sumatoshi-tech/depinfer/pkg/surface"
	"github.com/Sumatoshi-tech/depinfer/pkg/version"
)

// ErrConflictingVerbosity is returned when both --verbose and --quiet are set.
var ErrConflictingVerbosity = errors.New("--verbose and --quiet are mutually exclusive")

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string

	workers  int
	platform []string
	implicit []string
}

// NewRootCommand creates the depinfer root command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "depinfer",
		Short: "Infer Gradle project dependencies from source imports",
		Long: `depinfer reads the package and import declarations of every module in a
Gradle tree and writes the inter-module dependencies into a generated
block at the end of each build.gradle.

Commands:
  generate  Rewrite the generated dependency block of every manifest
  check     Fail when any manifest is out of date
  report    Print the inferred dependencies
  graph     Render the module graph as HTML`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: .depinfer.yaml in the tree root, CWD or $HOME)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only log errors")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default from config)")
	flags.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = config or CPU count)")
	flags.StringSliceVar(&opts.platform, "platform-namespace", nil, "Platform namespaces excluded from dependencies (replaces config)")
	flags.StringSliceVar(&opts.implicit, "implicit-namespace", nil, "Implicit language namespaces excluded from dependencies (replaces config)")

	rootCmd.AddCommand(
		newGenerateCommand(opts),
		newCheckCommand(opts),
		newReportCommand(opts),
		newGraphCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// session is the wired pipeline of one command invocation.
type session struct {
	root      string
	cfg       *config.Config
	providers observability.Providers
	engine    *engine.Engine
}

// openSession loads configuration for the tree at root, applies flag
// overrides and wires observability and the engine.
func openSession(cmd *cobra.Command, opts *globalOptions, args []string) (*session, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	absRoot, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, fmt.Errorf("resolve root: %w", absErr)
	}

	if opts.verbose && opts.quiet {
		return nil, ErrConflictingVerbosity
	}

	cfg, err := config.LoadConfig(opts.configPath, absRoot)
	if err != nil {
		return nil, err
	}

	applyOverrides(cmd, opts, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate flags: %w", validateErr)
	}

	providers, err := observability.Init(observabilityConfig(cmd, cfg))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewInferenceMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, fmt.Errorf("init metrics: %w", err)
	}

	if cfg.File != "" {
		providers.Logger.DebugContext(cmd.Context(), "loaded config", "path", cfg.File)
	}

	parser := surface.NewParser()
	extractor := sourcefact.NewExtractor(
		sourcefact.WithFilter(cfg.NamespaceFilter()),
		sourcefact.WithSurface(parser.Parse),
		sourcefact.WithLogger(providers.Logger),
		sourcefact.WithSurfaceFailureHook(func(ctx context.Context, _ *sourcefact.SurfaceInferenceError) {
			metrics.RecordSurfaceFailure(ctx)
		}),
	)

	return &session{
		root:      absRoot,
		cfg:       cfg,
		providers: providers,
		engine: &engine.Engine{
			Extractor:   extractor,
			Workers:     cfg.Pipeline.Workers,
			MaxFileSize: cfg.MaxFileSizeBytes(),
			Logger:      providers.Logger,
			Tracer:      providers.Tracer,
			Metrics:     metrics,
		},
	}, nil
}

// analyze discovers modules under the session root and analyzes them.
func (s *session) analyze(ctx context.Context) (*engine.Analysis, error) {
	descriptors, err := discovery.Discover(s.root, s.cfg.DiscoveryLayout())
	if err != nil {
		return nil, err
	}

	s.providers.Logger.DebugContext(ctx, "discovered modules", "root", s.root, "modules", len(descriptors))

	return s.engine.Analyze(ctx, descriptors)
}

// close flushes telemetry. Its error is only logged.
func (s *session) close(ctx context.Context) {
	err := s.providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		s.providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}

func applyOverrides(cmd *cobra.Command, opts *globalOptions, cfg *config.Config) {
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}

	if cmd.Flags().Changed("platform-namespace") {
		cfg.Packages.Platform = opts.platform
	}

	if cmd.Flags().Changed("implicit-namespace") {
		cfg.Packages.Implicit = opts.implicit
	}

	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}

	switch {
	case opts.verbose:
		cfg.Logging.Level = "debug"
	case opts.quiet:
		cfg.Logging.Level = "error"
	}
}

func observabilityConfig(cmd *cobra.Command, cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Get().Version
	obsCfg.RunID = uuid.NewString()
	obsCfg.Command = cmd.Name()
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.MetricsFile = cfg.Telemetry.MetricsFile
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogFormat = observability.LogFormat(cfg.Logging.Format)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	return obsCfg
}
