// Command frame serves the CultureIndex voting frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/config"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
)

var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "optional YAML config file (overrides FRAME_CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("vrbs-frame", cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to assemble frame service")
	}
	defer app.Close()

	if err := app.server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithFields(map[string]interface{}{"signal": sig.String()}).Info("shutting down")
	case err := <-app.server.Errors():
		logger.WithError(err).Error("server stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("frame service stopped")
}
