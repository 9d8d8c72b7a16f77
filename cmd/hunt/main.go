package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ocihunt/ocihunt/internal/cloud"
	"github.com/ocihunt/ocihunt/internal/config"
	"github.com/ocihunt/ocihunt/internal/hunter"
	"github.com/ocihunt/ocihunt/internal/logger"
	"github.com/ocihunt/ocihunt/internal/notify"
)

const (
	logDirName  = "logs"
	logFileName = "attempts.log"

	exitFailure     = 1
	exitInterrupted = 130
)

var errInterrupted = errors.New("interrupted")

var (
	verbose bool
	noCycle bool
	dryRun  bool
	force   bool
)

var rootCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Hunt for Always Free OCI instance capacity",
	Long: `hunt repeatedly attempts to launch an Always Free OCI instance,
cycling through every availability domain and fault domain until one
attempt succeeds or a non-transient error stops the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&noCycle, "no-cycle", false, "Do not cycle through ADs, only use the one in .env")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration without creating an instance")
	rootCmd.Flags().BoolVar(&force, "force", false, "Attempt creation even if the sentinel file exists")
}

func run(cmd *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(root, logDirName), 0o755); err != nil {
		return fmt.Errorf("error creating log directory: %w", err)
	}
	log, err := logger.New(verbose, filepath.Join(root, logDirName, logFileName))
	if err != nil {
		return err
	}

	log.Info("OCI instance hunter starting")

	cfg, err := config.Load(root)
	if err != nil {
		log.Error(err)
		return err
	}
	log.Infof("Region: %s", cfg.Region)
	log.Infof("Shape: %s", cfg.Shape)
	log.Infof("Display name: %s", cfg.DisplayName)

	provider, err := cloud.NewOCIProvider(cfg)
	if err != nil {
		log.Errorf("Failed to initialize OCI clients: %v", err)
		log.Error("Check your .env configuration and API keys")
		return err
	}

	var notifier notify.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	if dryRun {
		log.Info("Dry run mode - no instance will be created")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hunter.New(cfg, provider, hunter.NewSentinel(root), notifier, log)
	_, err = h.Run(ctx, hunter.Options{NoCycle: noCycle, DryRun: dryRun, Force: force})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return errInterrupted
		}
		log.Error(err)
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, "Interrupted")
			os.Exit(exitInterrupted)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitFailure)
	}
}
