package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"positionsmap/api"
	"positionsmap/config"
	"positionsmap/metastore"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "positionsmap.yaml", "path to the YAML config file")
	exportPath := flag.String("export", "", "write all documents to this segment file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, *exportPath); err != nil {
		log.Error("fatal", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func run(cfg config.Config, log *zap.Logger, exportPath string) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	codec, err := cfg.NewCodec()
	if err != nil {
		return err
	}

	// 1) Store: load or create empty
	store, err := metastore.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return err
	}
	log.Info("store opened",
		zap.String("backend", cfg.Store.Backend),
		zap.String("path", cfg.StorePath()),
		zap.String("codec", codec.Name()),
	)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("store close error", zap.Error(err))
		}
		if ms, ok := store.(*metastore.Metastore); ok && cfg.Log.Development {
			ms.PrintMetadata(os.Stdout)
		}
	}()

	if exportPath != "" {
		n, err := api.ExportSegment(context.Background(), store, codec, exportPath)
		if err != nil {
			return err
		}
		log.Info("segment exported", zap.String("path", exportPath), zap.Int("documents", n))
		return nil
	}

	// 2) Batch workers
	sched := api.NewBatchScheduler(codec, log, cfg.Workers)
	sched.Start()
	defer sched.Stop()

	// 3) Router
	service := api.NewService(store, codec, sched, api.NewSystemInfo(version, codec.Name()), log, cfg.DataDir)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4) Graceful shutdown; the store is persisted once on exit
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}
