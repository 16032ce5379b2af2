package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/incubaapp/incuba/apps/api/echo"
	"github.com/incubaapp/incuba/apps/di"
	"github.com/incubaapp/incuba/core"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	app, cleanup, err := di.InitApp(conf)
	if err != nil {
		log.Fatalf("initializing app: %v", err)
	}
	defer cleanup()
	logger := app.Logger

	if conf.Database.Engine != di.EngineDummy {
		if err = app.Store.Migrate("up"); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(conf, logger)

	if _, err = app.Dashboard.Refresh(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("loading dashboard: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      app.Validate,
		Translator:    app.Translator,
		UserSvc:       app.Users,
		VentureSvc:    app.Ventures,
		EvaluationSvc: app.Evaluations,
		QuotaSvc:      app.Quotas,
		MentorshipSvc: app.Mentorship,
		LabSvc:        app.Lab,
		ExportSvc:     app.Export,
		Dashboard:     app.Dashboard,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
