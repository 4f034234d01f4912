package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardclash/clash-server-go/internal/catalog"
	"github.com/cardclash/clash-server-go/internal/config"
	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/repository"
	"github.com/cardclash/clash-server-go/internal/server"
	"github.com/cardclash/clash-server-go/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting clash server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := loadCatalog(cfg.Game)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("templates", len(cat.Templates())),
		zap.Strings("decks", cat.DeckNames()),
	)

	store, err := repository.Open(ctx, cfg.Database, logger.Named("repository"))
	if err != nil {
		logger.Fatal("failed to open match store", zap.Error(err))
	}
	defer store.Close()

	var recorder *game.ReplayRecorder
	if cfg.Game.ReplayDir != "" {
		recorder = game.NewReplayRecorder(logger.Named("replay"), cfg.Game.ReplayDir)
		logger.Info("replay recording enabled", zap.String("dir", cfg.Game.ReplayDir))
	}

	manager := session.NewManager(cat, store, recorder, session.Options{
		MaxGames:    cfg.Server.MaxGames,
		IdleTimeout: cfg.Game.IdleTimeout,
	}, logger.Named("session"))
	lobby := session.NewLobby(manager, logger.Named("lobby"))

	var grpcServer *grpc.Server
	if cfg.Server.GRPC.Address != "" {
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
				server.RecoveryInterceptor(logger),
				server.LoggingInterceptor(logger),
				server.TimeoutInterceptor(cfg.Game.CommandTimeout),
			)),
			grpc.KeepaliveParams(keepalive.ServerParameters{
				Time:    30 * time.Second,
				Timeout: 10 * time.Second,
			}),
			grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
		)
		server.RegisterClashServiceServer(grpcServer, server.NewClashServer(manager, lobby, store, version, logger.Named("grpc")))

		lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
		if err != nil {
			logger.Fatal("failed to listen", zap.Error(err))
		}

		go func() {
			logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
			if serveErr := grpcServer.Serve(lis); serveErr != nil {
				logger.Error("gRPC server error", zap.Error(serveErr))
			}
		}()
	}

	wsDone := make(chan struct{})
	if cfg.Server.WebSocket.Address != "" {
		gateway := server.NewGateway(cfg.Server.WebSocket, manager, lobby, cfg.Game.CommandTimeout, logger.Named("websocket"))
		go gateway.Run(ctx)
		go func() {
			defer close(wsDone)
			if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, gateway, logger); wsErr != nil {
				logger.Error("WebSocket server error", zap.Error(wsErr))
			}
		}()
	} else {
		close(wsDone)
	}

	logger.Info("clash server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_games", cfg.Server.MaxGames),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	// Abandon live matches before the listeners go away
	manager.CloseAll()

	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(cfg.Server.ShutdownTimeout):
			logger.Warn("graceful stop timed out, forcing")
			grpcServer.Stop()
		}
	}
	<-wsDone

	logger.Info("clash server stopped")
}

func loadCatalog(cfg config.GameConfig) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadFile(cfg.CatalogPath)
	}
	return catalog.Default()
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
