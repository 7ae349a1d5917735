// Package server wires the catalog store, services and HTTP routes together
// and runs them until the process is asked to stop.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"
	"catalog/pkg/rabbitmq"
)

// Server is a fully wired catalog service.
type Server struct {
	App *fiber.App

	cfg *config.Config
	db  *gorm.DB
	mq  *rabbitmq.Client
}

// New opens the store configured in cfg, migrates it when asked to, connects
// the optional event publisher and builds the HTTP app.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	var (
		repo repositories.ProductRepository
		ping handlers.PingFunc
	)
	if cfg.DBDriver == config.DriverMemory {
		repo = repositories.NewMemoryProductRepository()
	} else {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.db = db
		if cfg.AutoMigrate {
			if err := database.Migrate(db); err != nil {
				s.Close()
				return nil, err
			}
		}
		repo = repositories.NewGORMProductRepository(db)
		ping = database.Pinger(db)
	}

	var opts []services.Option
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.mq = mq
		opts = append(opts, services.WithPublisher(mq))
	}

	s.App = NewApp(cfg, repo, ping, opts...)
	return s, nil
}

// NewApp builds the Fiber app serving the catalog API on top of repo.
func NewApp(cfg *config.Config, repo repositories.ProductRepository, ping handlers.PingFunc, opts ...services.Option) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
	}))

	productService := services.NewProductService(repo, validation.NewProductValidator(), opts...)
	productHandler := handlers.NewProductHandler(productService)
	healthHandler := handlers.NewHealthHandler(ping)

	healthHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app.Group(cfg.APIPrefix))

	return app
}

// errorHandler answers errors that escaped a handler, including recovered
// panics and unknown routes, with a JSON message.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := handlers.MsgFailed

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("unhandled request error")
		message = handlers.MsgFailed
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
	})
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// the app down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", s.cfg.AppPort).Info("starting server")
		if err := s.App.Listen(s.cfg.AppPort); err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		if err := s.App.ShutdownWithTimeout(s.cfg.ShutdownTimeout); err != nil {
			return errors.Wrap(err, "error during shutdown")
		}
		return nil
	})

	return g.Wait()
}

// Close releases the store and broker connections.
func (s *Server) Close() error {
	var first error
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			first = err
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil && first == nil {
			first = err
		}
	}
	return first
}
