package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"potato-check/api/internal/config"
	"potato-check/api/internal/logger"
)

var (
	configPath string
	port       string
)

var rootCmd = &cobra.Command{
	Use:           "potato-check",
	Short:         "Relay potato photos to Gemini and return its verdict",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// loadConfig applies flags on top of file and environment values.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if port != "" {
		cfg.Port = port
	}
	return cfg, logger.New(cfg.LogLevel, os.Stdout, os.Stderr), nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, checkCmd, historyCmd, purgeCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		l := logger.New("error", os.Stdout, os.Stderr)
		l.Error().Err(err).Msg("potato-check failed")
		stop()
		os.Exit(1)
	}
}
