package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/gyazo/config"
	"github.com/s0up4200/gyazo/filter"
	"github.com/s0up4200/gyazo/gyazo"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *gyazo.Client
	filters *filter.Manager

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gyazo",
	Short: "A command line client for the Gyazo image hosting API",
	Long: `gyazo lists, uploads, deletes and backs up the images of a Gyazo account.

The access token is read from the config file, GYAZO_ACCESS_TOKEN or a .env
file in the working directory.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// SetVersion records the build information reported by version and update
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

// Execute runs the root command through fang and exits non-zero on failure
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// initializeApp initializes the configuration, logger and client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging, os.Stderr)

	client, err = newClient(cfg.Gyazo, logger)
	if err != nil {
		return fmt.Errorf("failed to create Gyazo client: %w", err)
	}

	filters, err = filter.NewManager(cfg.Filter.Presets)
	if err != nil {
		return fmt.Errorf("failed to load filter presets: %w", err)
	}

	return nil
}

func newClient(gc config.GyazoConfig, logger zerolog.Logger) (*gyazo.Client, error) {
	opts := []gyazo.Option{
		gyazo.WithAPIURL(gc.APIURL),
		gyazo.WithUploadURL(gc.UploadURL),
		gyazo.WithTimeout(gc.Timeout),
		gyazo.WithUserAgent("gyazo-cli/" + version),
	}
	if gc.AccessToken != "" {
		opts = append(opts, gyazo.WithAccessToken(gc.AccessToken))
	}
	if gc.ClientID != "" {
		opts = append(opts, gyazo.WithClientCredentials(gc.ClientID, gc.ClientSecret))
	}
	return gyazo.NewClient(logger, opts...)
}

// requireToken fails early for commands that need an authenticated client
func requireToken() error {
	if cfg.Gyazo.AccessToken == "" {
		return fmt.Errorf("no access token configured: set gyazo.access_token or %s_ACCESS_TOKEN", config.EnvPrefix)
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out *os.File) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var w io.Writer = out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color || !isTerminal(out),
		}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
