// Command thermostat-sim runs the thermostat device loop against a
// simulated board. Commands are read from stdin, JSON replies and reports go
// to stdout and logs to stderr.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"thermostat/ad7172"
	"thermostat/channels"
	"thermostat/config"
	"thermostat/core"
	"thermostat/fan"
	"thermostat/hwrev"
	"thermostat/sim"
	"thermostat/standalone"
)

var configPath = flag.String("config", "", "YAML configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("Simulation failed", zap.Error(err))
	}
	logger.Info("Simulation stopped")
}

// run drives the simulated board until ctx is done
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	board := sim.NewBoard(cfg.Sim.Plant)

	adcOpts := []ad7172.Option{ad7172.WithLogger(logger.Named("ad7172"))}
	if cfg.ADC.RetryLimit > 0 {
		adcOpts = append(adcOpts, ad7172.WithRetryLimit(cfg.ADC.RetryLimit))
	}
	adc, err := ad7172.New(board.ADC, board.ADC.NSS(), adcOpts...)
	if err != nil {
		return fmt.Errorf("adc: %w", err)
	}
	ch, err := channels.New(logger.Named("channels"), adc, board.AllPins(),
		channels.WithSamples(cfg.ADC.Samples),
		channels.WithCalibration(cfg.ADC.Calibrate))
	if err != nil {
		return fmt.Errorf("channels: %w", err)
	}

	rev := hwrev.Detect(board.StrapPins())
	mgr := standalone.NewManager(logger.Named("loop"), ch, standalone.Config{
		ReportPeriod: uint32(cfg.ReportInterval.Milliseconds()),
		ReportMode:   cfg.ReportMode,
		Revision:     rev,
		Fan:          fan.New(board.Fan, rev.Settings()),
		Store:        config.NewSnapshotStore(cfg.Snapshot),
	})
	if err := mgr.Load(); err != nil {
		logger.Warn("Snapshot not applied", zap.String("path", cfg.Snapshot), zap.Error(err))
	}

	lines := make(chan []byte)
	go readLines(ctx, in, lines)

	var clock core.Clock
	step := cfg.Sim.Step
	ticker := time.NewTicker(time.Duration(float64(step) / cfg.Sim.Speed))
	defer ticker.Stop()

	mgr.Start(clock.Now())
	logger.Info("Simulation started",
		zap.Stringer("hwrev", rev),
		zap.Duration("step", step),
		zap.Float64("speed", cfg.Sim.Speed))

	for {
		select {
		case <-ctx.Done():
			return ch.PowerDownAll()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			mgr.Feed(line)
		case <-ticker.C:
			board.Step(step.Seconds())
			clock.Advance(uint32(step.Milliseconds()))
			if err := mgr.Poll(clock.Now()); err != nil {
				logger.Warn("Poll failed", zap.Error(err))
			}
			if pending := mgr.GetOutput(); pending != nil {
				if _, err := out.Write(pending); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
		}
	}
}

// readLines forwards newline-terminated lines from in until EOF
func readLines(ctx context.Context, in io.Reader, lines chan<- []byte) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := append(scanner.Bytes(), '\n')
		select {
		case lines <- append([]byte(nil), line...):
		case <-ctx.Done():
			return
		}
	}
}
