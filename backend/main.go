package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitea.kood.tech/petrkubec/staff-directory/backend/config"
	"gitea.kood.tech/petrkubec/staff-directory/backend/export"
	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
	"gitea.kood.tech/petrkubec/staff-directory/backend/tui"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "backend",
	Short: "Staff directory backend",
	Long: `Serves the profile store API, the admin and directory screens over
websocket, and the XLSX export.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE:  runServe,
}

var (
	exportOut    string
	exportSearch string
	exportOrder  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the admin table to an XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		backend, err := store.Open(ctx, cfg.StoreOptions(), logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		q := pipeline.DefaultQuery()
		q.Search = exportSearch
		switch pipeline.SortOrder(exportOrder) {
		case pipeline.Asc, pipeline.Desc:
			q.SortOrder = pipeline.SortOrder(exportOrder)
		default:
			return fmt.Errorf("--order must be asc or desc, got %q", exportOrder)
		}

		b, err := export.NewService(backend, logger).AdminXLSX(ctx, q)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", exportOut, len(b))
		return nil
	},
}

var (
	tuiAPI   string
	tuiAdmin bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the directory (or manage it with --admin) in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := tuiAPI
		if api == "" {
			api = cfg.APIURL
		}
		s := store.NewHTTPStore(api, nil)
		// The terminal owns stdout; keep logs quiet unless asked for.
		l := zap.NewNop()
		if verbose {
			l = logger
		}
		return tui.Run(cmd.Context(), s, tuiAdmin, l)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "profiles.xlsx", "Output file")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "Name search applied before export")
	exportCmd.Flags().StringVar(&exportOrder, "order", "asc", "Name sort order (asc or desc)")

	tuiCmd.Flags().StringVar(&tuiAPI, "api", "", "Backend base URL (default: api_url from config)")
	tuiCmd.Flags().BoolVar(&tuiAdmin, "admin", false, "Open the admin panel instead of the directory")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(cmd.Context(), cfg, logger)
}

func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
