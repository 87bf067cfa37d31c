package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"rigid3d/internal/game"
	"rigid3d/internal/logging"
	"rigid3d/internal/physics"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "physics config YAML (defaults when empty)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error; overrides the config")
	logFormat := flag.String("log-format", "", "json or console; overrides the config")
	flag.Parse()

	cfg, logOpts, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if logOpts.Format == "" {
		logOpts.Format = logging.FormatConsole
	}
	if *logLevel != "" {
		logOpts.Level = logging.Level(*logLevel)
	}
	if *logFormat != "" {
		logOpts.Format = logging.Format(*logFormat)
	}

	logger := logging.New(logOpts)
	defer logger.Sync()

	logger.Info("starting demo",
		zap.Float64("fixed_dt", cfg.FixedDt),
		zap.Int("solver_iterations", cfg.SolverIterations))

	g := game.New(cfg, logger)
	g.Run()
}

// loadConfig reads the physics settings and the optional logging section from one file.
func loadConfig(path string) (physics.Config, logging.Options, error) {
	if path == "" {
		return physics.DefaultConfig(), logging.Options{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return physics.Config{}, logging.Options{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := physics.LoadConfig(bytes.NewReader(data))
	if err != nil {
		return physics.Config{}, logging.Options{}, err
	}
	opts, err := logging.LoadOptions(bytes.NewReader(data))
	if err != nil {
		return physics.Config{}, logging.Options{}, err
	}
	return cfg, opts, nil
}
