package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/models"
	"catalog/internal/server"
	"catalog/pkg/rabbitmq"
)

func main() {
	app := &cli.App{
		Name:  "catalog",
		Usage: "product catalog REST service",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load before reading the environment",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the products table and exit",
				Action: migrate,
			},
			{
				Name:  "events",
				Usage: "print catalog change events published to RabbitMQ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "queue",
						Value: "catalog.events.tail",
						Usage: "durable queue to bind to the catalog exchange",
					},
				},
				Action: tailEvents,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("catalog stopped")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	cfg.ConfigureLogging()
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.WithError(err).Error("failed to release resources")
		}
	}()

	ctx, stop := signalContext(c.Context)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.DBDriver == config.DriverMemory {
		log.Info("memory store needs no migration")
		return nil
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.WithField("driver", cfg.DBDriver).Info("products table migrated")
	return nil
}

func tailEvents(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.RabbitMQURL == "" {
		return cli.Exit("RABBITMQ_URL is not set", 1)
	}

	mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
	if err != nil {
		return err
	}
	defer mq.Close()

	ctx, stop := signalContext(c.Context)
	defer stop()

	return mq.ConsumeProductEvents(ctx, c.String("queue"), func(event models.ProductEvent) error {
		log.WithFields(log.Fields{
			"eventID":    event.EventID,
			"event":      event.Type,
			"productID":  event.ProductID,
			"occurredAt": event.OccurredAt,
		}).Info("product event")
		return nil
	})
}
