// Command avdeccctl runs a standalone AVDECC controller: it discovers
// entities on a network interface, answers their ADP advertisements, and
// exposes AEM/AA/MVU/ACMP request methods through package controller.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/config"
	"github.com/gopatchy/avdecc/controller"
	"github.com/gopatchy/avdecc/discovery"
	"github.com/gopatchy/avdecc/dispatcher"
	"github.com/gopatchy/avdecc/logging"
	"github.com/gopatchy/avdecc/protocol"
	"github.com/gopatchy/avdecc/registry"
	"github.com/gopatchy/avdecc/router"
	"github.com/gopatchy/avdecc/transport"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	logFile := flag.String("log-file", "", "optional log file path (rotated)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, logging.FileConfig{Filename: *logFile, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	localEID := avdeccid.UniqueID(cfg.EntityID)
	tolerance := cfg.Tolerance.Flags()

	xport, err := newTransport(cfg, localEID, tolerance, logger)
	if err != nil {
		logger.Fatal("failed to open transport", zap.Error(err))
	}
	defer xport.Close()

	reg := registry.New()
	rtr := router.New(xport, tolerance, logger)
	disp := dispatcher.New(xport, rtr, reg, localEID, tolerance, logger)
	disp.SetTimings(cfg.AemTimeout.Duration(), cfg.AemRetries, cfg.AcmpTimeout.Duration())

	xport.RegisterObserver(reg)
	xport.RegisterObserver(rtr)
	xport.RegisterObserver(disp)

	ctl := controller.New(disp, rtr, reg)

	discoveryLoop := discovery.New(xport, cfg.DiscoveryInterval.Duration(), func(err error) {
		logger.Warn("discovery broadcast failed", zap.Error(err))
	})
	discoveryLoop.Start()

	stopReport := make(chan struct{})
	go reportEntities(ctl, logger, stopReport)

	logger.Info("avdeccctl started",
		zap.String("interface", cfg.Interface),
		zap.String("backend", string(cfg.Backend)),
		zap.Uint64("entity_id", uint64(localEID)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	discoveryLoop.Stop()
	close(stopReport)
}

// reportEntities logs the current registry snapshot every 30s, giving an
// operator something to watch without a GUI.
func reportEntities(ctl *controller.Controller, logger *zap.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			entities := ctl.Entities()
			logger.Info("known entities", zap.Int("count", len(entities)))
			for _, rec := range entities {
				logger.Debug("entity",
					zap.Uint64("entity_id", uint64(rec.EntityID)),
					zap.Uint64("entity_model_id", uint64(rec.EntityModelID)),
					zap.Int("interfaces", len(rec.Interfaces)),
				)
			}
		}
	}
}

type protocolInterface = transport.ProtocolInterface

func newTransport(cfg *config.Config, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) (protocolInterface, error) {
	switch cfg.Backend {
	case config.BackendRawSocket:
		return newRawSocketTransport(cfg.Interface, localEID, tolerance, logger)
	default:
		return transport.NewPcapTransport(cfg.Interface, localEID, tolerance, logger)
	}
}
