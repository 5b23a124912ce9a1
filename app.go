package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const schemaInitTimeout = 30 * time.Second

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger   *zap.Logger
	config   *Config
	server   *http.Server
	db       *Database
	cleanups []func()
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %w", err)
	}

	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)
	cleanups := []func(){
		func() {
			if err := flusher(); err != nil {
				fmt.Println("error during flushing of logs:", err)
			}
		},
		func() {
			if err := logWriter.Close(); err != nil {
				fmt.Println("error during closing of log file:", err)
			}
		},
	}
	clean := func() {
		for _, f := range cleanups {
			f()
		}
	}

	// Setup the database pool then create the missing tables.
	db, err := GetDatabaseClient(config, logger)
	if err != nil {
		logger.Error("failed to connect to the database", zap.Error(err))
		clean()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), schemaInitTimeout)
	err = db.InitSchema(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to initialize the database schema", zap.Error(err))
		_ = db.Close()
		clean()
		return nil, err
	}

	apiService := BuildAPIHandler(logger, config, clock, db)
	handler := apiService.Handler()

	// Build the api server definition.
	srv := &http.Server{
		Addr:           net.JoinHostPort(config.Server.Host, config.Server.Port),
		Handler:        handler,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return &App{
		logger:   logger,
		config:   config,
		server:   srv,
		db:       db,
		cleanups: cleanups,
	}, nil
}

// BuildAPIHandler wires the storage, the service and the api handler
// on top of an opened database.
func BuildAPIHandler(logger *zap.Logger, config *Config, clock Clocker, db *Database) *APIHandler {
	storage := NewGormBookStorage(logger, db)
	bookService := NewBookService(logger, config, storage)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
		db,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}
	return apiService
}

// Handler builds the routes with their middlewares stacks then wraps
// the router with the default http timeout handler.
func (api *APIHandler) Handler() http.Handler {
	middlewaresPublic, middlewaresOps := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	if api.config.Server.RequestTimeout <= 0 {
		return router
	}
	return http.TimeoutHandler(
		router,
		api.config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.base_path", app.config.Server.BasePath),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// A brutal shutdown follows if the graceful one did not complete. The database
// pool is released last. It always returns nil so that the errorgroup only
// reports the `Serve` result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		if err = app.db.Close(); err != nil {
			app.logger.Error("failed to close the database pool", zap.Error(err))
		}
		return nil
	}
}
