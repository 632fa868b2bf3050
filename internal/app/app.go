// Package app wires configuration, logging, storage, the domain services
// and the transports, and runs them until a shutdown signal arrives.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/exercisetracker/internal/config"
	"github.com/patric-chuzhbe/exercisetracker/internal/db/jsondb"
	"github.com/patric-chuzhbe/exercisetracker/internal/db/memorystorage"
	"github.com/patric-chuzhbe/exercisetracker/internal/db/mongostorage"
	"github.com/patric-chuzhbe/exercisetracker/internal/db/postgresdb"
	"github.com/patric-chuzhbe/exercisetracker/internal/directory"
	"github.com/patric-chuzhbe/exercisetracker/internal/exerciselog"
	"github.com/patric-chuzhbe/exercisetracker/internal/grpcserver"
	"github.com/patric-chuzhbe/exercisetracker/internal/logger"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/router"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

const shutdownTimeout = 10 * time.Second

type userKeeper interface {
	InsertUser(ctx context.Context, userName string) (*user.User, error)
	FindAllUsers(ctx context.Context) ([]models.UserSummary, error)
	FindUserByID(ctx context.Context, userID string) (*user.User, error)
}

type logAppender interface {
	PushToLog(ctx context.Context, userID string, entry models.Exercise) (*models.UserSummary, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	logAppender
	pinger
	Close() error
}

// App holds the running parts of the exercise tracker service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
	httpLis     net.Listener
	grpcServer  *grpc.Server
	grpcLis     net.Listener
}

// New loads the configuration, connects the storage selected by it and
// builds the HTTP handler and, when an address is configured, the gRPC server.
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	users := directory.New(app.db)
	exercises := exerciselog.New(app.db, users)

	app.httpHandler = router.New(
		users,
		exercises,
		app.db,
		router.WithStatic(app.cfg.PublicDir, app.cfg.IndexFile),
		router.WithMetrics(app.cfg.MetricsEnabled),
		router.WithCORS(app.cfg.CORSAllowedOrigins),
	)

	if app.cfg.GRPCAddr != "" {
		app.grpcServer, app.grpcLis, err = grpcserver.NewGRPCServer(
			app.cfg.GRPCAddr,
			grpcserver.NewTrackerHandler(users, exercises),
		)
		if err != nil {
			_ = app.db.Close()
			return nil, err
		}
	}

	return app, nil
}

// Run serves until SIGINT or SIGTERM, or until either server fails, then
// shuts both servers down and closes the storage.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.httpLis == nil {
		lis, err := net.Listen("tcp", a.cfg.RunAddr)
		if err != nil {
			_ = a.shutdown(nil)
			return fmt.Errorf("unable to listen on %s: %w", a.cfg.RunAddr, err)
		}
		a.httpLis = lis
	}

	server := &http.Server{
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		logger.Log.Infow("http server running", "RunAddr", a.httpLis.Addr().String())
		serverErrCh <- server.Serve(a.httpLis)
	}()

	if a.grpcServer != nil {
		go func() {
			logger.Log.Infow("grpc server running", "GRPCAddr", a.grpcLis.Addr().String())
			serverErrCh <- a.grpcServer.Serve(a.grpcLis)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		return a.shutdown(server)

	case err := <-serverErrCh:
		shutdownErr := a.shutdown(server)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return shutdownErr
		}
		if shutdownErr != nil {
			logger.Log.Errorw("shutdown after server failure", zap.Error(shutdownErr))
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// shutdown stops the gRPC server, drains the HTTP server within
// shutdownTimeout and closes the storage. Every step runs even when an
// earlier one fails.
func (a *App) shutdown(server *http.Server) error {
	var errs []error

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
		_ = a.grpcLis.Close()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if a.httpLis != nil {
		// Shutdown only closes listeners Serve has already picked up.
		_ = a.httpLis.Close()
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close error: %w", err))
	}

	return errors.Join(errs...)
}

// Close flushes the logger.
func (a *App) Close() error {
	return logger.Sync()
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.MongoURI != "" {
		return models.StorageTypeMongo
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectionTimeout)
	defer cancel()

	log := logger.Named("storage")

	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypeMongo:
		log.Infow("using MongoDB storage", "database", cfg.MongoDatabase)
		return mongostorage.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.DBConnectionTimeout)

	case models.StorageTypePostgresql:
		log.Infow("using PostgreSQL storage", "migrations", cfg.MigrationsDir)
		return postgresdb.New(ctx, cfg.DatabaseDSN, cfg.DBConnectionTimeout, cfg.MigrationsDir)

	case models.StorageTypeFile:
		log.Infow("using JSON file storage", "file", cfg.DBFileName)
		return jsondb.New(cfg.DBFileName)
	}

	log.Infoln("using in-memory storage")
	return memorystorage.New()
}
