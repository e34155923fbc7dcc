package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracking-counter/pkg/broker"
	"tracking-counter/pkg/config"
	"tracking-counter/pkg/engine"
	"tracking-counter/pkg/sim"
	"tracking-counter/pkg/telemetry"
	"tracking-counter/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		info := version.Info()
		fmt.Printf("counterd version %s, commit %s, built %s\n", info.Version, info.Commit, info.Built)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if cfg == nil {
		// Help was shown
		return 0
	}

	logger := log.New(os.Stdout, "[counterd] ", log.LstdFlags)
	logger.Printf("tracking counter %s starting", version.Info().Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := telemetry.NewAggregator(nil, telemetry.DefaultConfig())
	aggregator.Start(ctx)
	defer aggregator.Stop()

	b := broker.NewMQTT(broker.MQTTConfig{
		Host:           cfg.Broker.Host,
		Port:           cfg.Broker.Port,
		Username:       cfg.Broker.Username,
		Password:       cfg.Broker.Password,
		ClientID:       cfg.Broker.ClientID,
		ConnectTimeout: time.Duration(cfg.Timeouts.ConnectSeconds) * time.Second,
		PublishTimeout: time.Duration(cfg.Timeouts.PublishSeconds) * time.Second,
	}, logger, nil)

	eng := engine.New(cfg, b, nil, logger, aggregator)

	if cfg.Simulate {
		streamIDs := make([]string, 0, len(cfg.Streams))
		for _, s := range cfg.Streams {
			streamIDs = append(streamIDs, s.ID)
		}
		generator := sim.NewGenerator(sim.DefaultConfig(streamIDs), logger)
		go generator.Run(ctx, eng)
	}

	cli := NewCLI(aggregator, eng, cfg, logger)
	go cli.Run(ctx)
	defer cli.Stop()

	if err := eng.Run(ctx); err != nil {
		logger.Printf("exited with error: %v", err)
		return 1
	}
	logger.Printf("shutdown complete")
	return 0
}
