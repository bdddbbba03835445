// Package server wires the lip components together and runs them: the
// record store, the session engine, the HTTP API, the optional admin gRPC
// server and the optional expiry reaper.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/dmitrijs2005/lip/internal/server/auth"
	"github.com/dmitrijs2005/lip/internal/server/config"
	"github.com/dmitrijs2005/lip/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lip/internal/server/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gs "github.com/dmitrijs2005/lip/internal/server/grpc"
	hs "github.com/dmitrijs2005/lip/internal/server/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	engine  *session.Engine
	handler http.Handler
	ready   atomic.Bool
}

// NewApp opens and migrates the database and builds the engine and the HTTP
// handler. Nothing is served until Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env, c.ToStdout)

	hasher, err := auth.NewHasher(c.Hasher)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.NewRepositoryManager(c.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DBDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	codec := auth.NewCodec([]byte(c.SecretKey), c.TokenValidityDuration)
	engine := session.NewEngine(repomanager.NewStore(db, rm), hasher, codec, session.WithLogger(logger))

	app := &App{config: c, logger: logger, db: db, engine: engine}

	reg := prometheus.NewRegistry()
	app.handler = hs.NewRouter(engine, hs.Options{
		Logger:         logger,
		Timeout:        c.RequestTimeout,
		Metrics:        hs.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(prometheus.Gatherers{prometheus.DefaultGatherer, reg}, promhttp.HandlerOpts{}),
		Ready:          &app.ready,
	})

	return app, nil
}

// Handler is the HTTP API, usable without Run.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewServer(app.config.GRPCAddr, app.config.Env, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts everything down and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DBDriver, "env", app.config.Env)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.config.ReaperInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.NewReaper(app.engine, app.config.ReaperInterval, app.logger.With("module", "reaper")).Run(ctx)
		}()
	}

	app.ready.Store(true)
	<-ctx.Done()
	app.ready.Store(false)

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
