package main

import (
	"context"
	"os/signal"
	"syscall"

	"depthwatch/config"
	"depthwatch/internal/monitor"
	"depthwatch/logger"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	// viper config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run monitor
	if err := monitor.Start(ctx, cfg, log); err != nil {
		log.Fatal("monitor failed", zap.Error(err))
	}

	log.Info("monitor stopped")
}
