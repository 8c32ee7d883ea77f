package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Al-assad/potamoi-experiment/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker fleet, replicated cache, and observer facade",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(loaded)
	},
}

func buildLogger(level string) logr.Logger {
	var zc zap.Config
	switch level {
	case "debug":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(level)
		if err == nil {
			zc.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	zl, err := zc.Build()
	if err != nil {
		zl = zap.NewNop()
	}
	return zapr.NewLogger(zl)
}

// runServe wires every component into one running process (via
// bootstrap) and keeps it alive until an interrupt/SIGTERM, serving the
// gossip transport the replicated caches use to converge across nodes.
func runServe(cfg config.OperatorConf) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := buildLogger(cfg.LogLevel)
	if cfg.Node.Addr == "" {
		cfg.Node.Addr = uuid.New().String()
	}
	log.Info("starting operator node", "addr", cfg.Node.Addr, "role", cfg.Node.Role)

	deps, err := bootstrap(cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: deps.GossipAddr, Handler: deps.GossipRouter}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gossip server listening", "addr", deps.GossipAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
