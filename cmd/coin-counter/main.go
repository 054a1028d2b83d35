package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/coin-counter/internal/config"
	"github.com/ironsheep/coin-counter/internal/logger"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coin-counter",
		Short: "Count the value of coins in a photo",
		Long: `coin-counter finds coins in a photograph with a Hough circle transform,
classifies each one by its pixel radius and reports the total value.

Run "coin-counter serve" to expose the pipeline as MCP tools over stdio,
or "coin-counter count <image>" to count a single photo.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/coin-counter/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(serveCmd())
	root.AddCommand(countCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Configure(loaded.Logging.Level, loaded.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	cfg = loaded
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "coin-counter %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
