package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/export"
	"github.com/incubaapp/incuba/core/lab"
	"github.com/incubaapp/incuba/core/mentorship"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *Metrics

		UserSvc       *user.Service
		VentureSvc    *venture.Service
		EvaluationSvc *evaluation.Service
		QuotaSvc      *quota.Service
		MentorshipSvc *mentorship.Service
		LabSvc        *lab.Service
		ExportSvc     *export.Service
		Dashboard     *dashboard.Loader
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !deps.Conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.deps.Metrics.Middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	authed := v1.Group("", jwt, userMiddleware(s.deps.UserSvc))

	registerUserAPI(v1, jwt, authed, s.deps.UserSvc, s.deps.Validate)
	registerVentureAPI(authed, s.deps.VentureSvc, s.deps.EvaluationSvc, s.deps.QuotaSvc, s.deps.MentorshipSvc, s.deps.Validate)
	registerEvaluationAPI(authed, s.deps.EvaluationSvc, s.deps.Validate)
	registerQuotaAPI(authed, s.deps.QuotaSvc, s.deps.Validate, s.deps.Logger)
	registerMentorshipAPI(authed, s.deps.MentorshipSvc, s.deps.Validate, s.deps.Logger)
	registerLabAPI(authed, s.deps.LabSvc, s.deps.Validate)
	registerDashboardAPI(authed, s.deps.Dashboard, dashboard.NewFilterer(s.deps.Metrics.ObserveFilterCache))
	registerExportAPI(authed, s.deps.ExportSvc)
}

// Start blocks until the server stops; unexpected failures go to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
