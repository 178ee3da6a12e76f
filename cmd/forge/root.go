package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/forgekit/forge-go/derivative"
	"github.com/forgekit/forge-go/internal/config"
	"github.com/forgekit/forge-go/oauth"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
	flagJSON       bool
)

// httpClientTimeout is the default timeout for HTTP requests. Long-poll
// and download commands replace it with per-call contexts instead.
const httpClientTimeout = 60 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds the fully-assembled root command with all subcommands
// registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "forge",
		Short:   "Model Derivative CLI client",
		Long:    "Submit design translation jobs, inspect manifests and metadata, and download derivatives.",
		Version: version,
		// Silence cobra's default error/usage printing — main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "config file path (TOML)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "errors only")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable output")

	cmd.AddCommand(
		newTokenCmd(),
		newUrnCmd(),
		newTranslateCmd(),
		newManifestCmd(),
		newPropsCmd(),
		newThumbnailCmd(),
		newDownloadCmd(),
	)

	return cmd
}

// newLogger builds the CLI logger: text handler when stderr is a terminal,
// JSON otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// newClients loads configuration and builds the auth and derivative
// clients every command uses.
func newClients() (*oauth.Client, *derivative.Client, error) {
	// Optional .env in the working directory; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	authOpts := []oauth.Option{
		oauth.WithHTTPClient(defaultHTTPClient()),
		oauth.WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		authOpts = append(authOpts, oauth.WithBaseURL(cfg.BaseURL))
	}

	authClient, err := oauth.New(cfg.Credentials(), authOpts...)
	if err != nil {
		return nil, nil, err
	}

	derivOpts := []derivative.ClientOption{
		derivative.WithRegion(cfg.DerivativeRegion()),
		derivative.WithHTTPClient(defaultHTTPClient()),
		derivative.WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		derivOpts = append(derivOpts, derivative.WithBaseURL(cfg.BaseURL))
	}

	return authClient, derivative.NewClient(authClient, derivOpts...), nil
}

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
