// Package web assembles the fiber application: middleware, handlers and
// the HTTP server lifecycle.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	fiberlogger "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger/adapter/fiber"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
	authhandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/auth"
	nlhandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/nl"
	permissionhandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/permission"
	rolehandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/role"
	userhandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/user"
)

// checkAliveURI is the liveness probe path, excluded from access logging.
const checkAliveURI = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	engine       *rbac.Engine
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The engine
// answers all access decisions; the interpreter may be nil-parser backed
// but never nil itself.
func New(cfg *config.Config, db *gorm.DB, engine *rbac.Engine, interp *interpreter.Interpreter) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if engine == nil {
		panic("engine cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAliveURI,
	}))

	// init web service
	service := &Service{
		cfg:    cfg,
		App:    app,
		db:     db,
		engine: engine,
	}

	service.alive.Store(true)

	// liveness probe for load balancers
	app.Get(checkAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes with permission checks)
	mustInit("auth", authhandler.Handler.Init(app, cfg, db))
	mustInit("user", userhandler.Handler.Init(app, cfg, db, engine))
	mustInit("role", rolehandler.Handler.Init(app, cfg, db, engine))
	mustInit("permission", permissionhandler.Handler.Init(app, cfg, db, engine))
	mustInit("nl", nlhandler.Handler.Init(app, cfg, engine, interp))

	return service
}

func mustInit(name string, err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to init %s handler: %v", name, err))
	}
}
