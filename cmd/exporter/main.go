package main

import (
	"context"
	"flag"
	"os"

	"github.com/DrC0ns0le/speedtest-exporter/internal/config"
	"github.com/DrC0ns0le/speedtest-exporter/internal/metrics"
	"github.com/DrC0ns0le/speedtest-exporter/internal/server"
	"github.com/DrC0ns0le/speedtest-exporter/internal/speedtest"
	"github.com/DrC0ns0le/speedtest-exporter/pkg/logging"
)

var configPath = flag.String("config", "", "path to optional YAML config file")

func main() {
	flag.Parse()
	logging.Setup()

	logging.Info("starting speedtest exporter")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	serverID := cfg.ServerID
	if serverID == "" {
		serverID = "Auto"
	}
	logging.Infof("configuration: port=%d cache_duration=%ds timeout=%ds server_id=%s",
		cfg.Port, cfg.CacheDuration, cfg.Timeout, serverID)

	runner := speedtest.NewRunner(cfg)

	// refuse to start without a working official CLI
	if err := runner.Validate(context.Background()); err != nil {
		logging.Errorf("failed to validate speedtest CLI: %v", err)
		os.Exit(1)
	}

	cache := speedtest.NewCache(runner, cfg)

	srv := server.New(cfg, cache, runner, metrics.New())
	if err := srv.Serve(); err != nil {
		logging.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
