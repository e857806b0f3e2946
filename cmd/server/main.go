package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	grpcapi "github.com/olyamironova/customer-trade-service/internal/api/grpc"
	httpapi "github.com/olyamironova/customer-trade-service/internal/api/http"
	"github.com/olyamironova/customer-trade-service/internal/config"
	"github.com/olyamironova/customer-trade-service/internal/core"
	"github.com/olyamironova/customer-trade-service/internal/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, closer, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := seedStore(ctx, cfg, store, log); err != nil {
		return err
	}

	cache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	engine := core.NewEngine(store, cache, core.WithLogger(log), core.WithMaxRetries(cfg.TradeRetries))

	httpServer := httpapi.NewHTTPServer(engine, httpapi.Options{
		Logger:          log,
		ProblemTypeBase: cfg.ProblemTypeBase,
		RateLimit:       cfg.RateLimit,
	}).Server(cfg.HTTPAddr)
	grpcServer := grpcapi.NewGRPCServer(engine, log).Server()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() {
		log.Infof("Starting HTTP server on %s...", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		log.Infof("Starting gRPC server on %s...", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	return serveErr
}
