package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube-backend/internal/config"
	"yatube-backend/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "yatube",
	Short:         "Yatube blogging API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultPath := os.Getenv("YATUBE_CONFIG")
	if defaultPath == "" {
		defaultPath = "configs/app.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, groupCmd, userCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads the config and builds the process logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Observability.Environment)
	if err != nil {
		return nil, nil, err
	}
	log = log.With(
		zap.String("service", cfg.Observability.ServiceName),
		zap.String("env", cfg.Observability.Environment),
	)
	log.Debug("loaded config", zap.String("path", configPath))
	return cfg, log, nil
}
