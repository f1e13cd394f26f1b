/*
Webapi is the executable for the poetry blog's web server.
It serves the HTML pages, the uploaded images and the metrics from a single web server, backed by one SQLite database.

Usage:

	webapi [flags]

Flags and configurations are handled automatically by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully (no errors, stopped by signal)

	> 0
		The program ended due to an error

Note that this program creates the database schema, and seeds the default writer, when they're missing.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf"
	_ "github.com/mattn/go-sqlite3"
	"github.com/silktrader/kavita/pkg/auth"
	"github.com/silktrader/kavita/pkg/metrics"
	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/poems"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
	"github.com/silktrader/kavita/pkg/site"
	"github.com/silktrader/kavita/pkg/storage/images"
	"github.com/silktrader/kavita/pkg/storage/sqlite"
	"github.com/silktrader/kavita/pkg/subscribers"
	"github.com/sirupsen/logrus"
)

// main is the program entry point. The only purpose of this function is to call run() and set the exit code if there is
// any error
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

// run executes the program. The body of this function should perform the following steps:
// * reads the configuration
// * creates and configure the logger
// * connects to any external resources (the database and the images directory)
// * registers the handlers of every package on a rest.Engine
// * starts the web server
// * waits for any termination event: SIGTERM signal (UNIX), non-recoverable server error, etc.
// * closes the web server
func run() error {
	// Load Configuration and defaults
	cfg, err := loadConfiguration()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	// Init logging
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("application initializing")

	if cfg.Admin.Password == "admin123" || cfg.Session.Secret == "change-me" {
		logger.Warning("default admin password or session secret in use, override them with CFG_ADMIN_PASSWORD and CFG_SESSION_SECRET")
	}

	// initialise database before registering handlers for an immediate exit in case of issues
	storage, err := sqlite.New(logger, cfg.DB.Filename)
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer storage.Close()

	var siteStore = site.NewStore(storage.Connection)
	if err = siteStore.Initialise(context.Background()); err != nil {
		logger.WithError(err).Error("error initialising site data")
		return fmt.Errorf("initialising site data: %w", err)
	}

	imageStore, err := images.New(logger, cfg.Web.StaticDir)
	if err != nil {
		logger.WithError(err).Error("error initialising images storage")
		return fmt.Errorf("initialising images storage: %w", err)
	}

	renderer, err := pages.New()
	if err != nil {
		return fmt.Errorf("parsing page templates: %w", err)
	}

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Web.SecureCookies)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	gate, err := auth.NewAdminGate(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("creating admin gate: %w", err)
	}

	// Start (main) web server
	logger.Info("initializing web server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	var stats = metrics.New(storage.Connection)

	e, err := rest.New(rest.Config{
		Logger:     logger,
		NotFound:   sessions.Middleware(renderer.NotFoundHandler()),
		Instrument: stats.Instrument,
	})
	if err != nil {
		logger.WithError(err).Error("error creating the web server instance")
		return fmt.Errorf("creating the web server instance: %w", err)
	}

	// setup handlers
	var subscribersRepository = subscribers.NewRepository(storage.Connection)
	var poemsStore = poems.NewStore(storage.Connection)

	e.Use(sessions.Middleware, auth.Identify(subscribersRepository))

	subscribers.RegisterHandlers(e, subscribersRepository, renderer, auth.IssueSubscriberToken)
	auth.RegisterHandlers(e, gate, renderer)
	poems.RegisterHandlers(e, poems.Config{
		Poems:         poemsStore,
		Site:          siteStore,
		Images:        imageStore,
		Renderer:      renderer,
		MaxUploadSize: cfg.Web.MaxUploadSize,
	})
	site.RegisterHandlers(e, siteStore)

	e.Handle(http.MethodGet, "/metrics", stats.Handler())
	e.ServeFiles("/static/*filepath", http.Dir(cfg.Web.StaticDir))

	var accessLog = logger.WriterLevel(logrus.DebugLevel)
	defer accessLog.Close()

	// create the web server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           applyServerMiddleware(e.Handler(), logger, accessLog, cfg.Web.BehindProxy, cfg.Debug),
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	// Start the service listening for requests in a separate goroutine
	go func() {
		logger.Infof("web server listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
		logger.Infof("stopping web server")
	}()

	// Waiting for shutdown signal or POSIX signals
	select {
	case err := <-serverErrors:
		// Non-recoverable server error
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and load shed.
		err = server.Shutdown(ctx)
		if err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			err = server.Close()
		}

		if err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
