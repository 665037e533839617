// launching the server, alarm registry, postgres, redis and rabbitmq
package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/reminder-engine/config"
	pgrepo "github.com/ds124wfegd/reminder-engine/internal/database/postgres"
	redisevents "github.com/ds124wfegd/reminder-engine/internal/database/redis"
	"github.com/ds124wfegd/reminder-engine/internal/notify"
	"github.com/ds124wfegd/reminder-engine/internal/scheduler"
	"github.com/ds124wfegd/reminder-engine/internal/service"
	"github.com/ds124wfegd/reminder-engine/internal/transport"
	"github.com/ds124wfegd/reminder-engine/pkg/alarm"
	"github.com/ds124wfegd/reminder-engine/pkg/postgres"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12}, // ban on outdated TLS
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to PostgreSQL: %s", err.Error())
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %s", err.Error())
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})
	defer redisClient.Close()

	notifier := redisevents.NewEventPublisher(redisClient, cfg.Redis.EventChannel)
	reminderRepo := pgrepo.NewReminderRepository(db, notifier)

	presenter, closePresenter := newPresenter(cfg)
	defer closePresenter()

	registry := newRegistry(cfg, redisClient)
	engine := scheduler.NewEngine(reminderRepo, registry, presenter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Restore(ctx); err != nil {
		logrus.Errorf("Failed to restore scheduled reminders: %s", err.Error())
	}

	go func() {
		if err := registry.Run(ctx, engine.HandleFired); err != nil && err != context.Canceled {
			logrus.Errorf("Alarm registry stopped: %s", err.Error())
		}
	}()

	reminderService := service.NewReminderService(reminderRepo, engine)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(reminderService)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	cancel()

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func newRegistry(cfg *config.Config, redisClient *redis.Client) alarm.Registry {
	if cfg.Alarm.Backend == "memory" {
		logrus.Warn("Using in-memory alarm registry, registrations will not survive a restart")
		return alarm.NewMemoryRegistry()
	}

	return alarm.NewRedisRegistry(redisClient, alarm.RedisRegistryConfig{
		KeyPrefix:    cfg.Alarm.KeyPrefix,
		PollInterval: cfg.Alarm.PollInterval,
	})
}

func newPresenter(cfg *config.Config) (notify.Presenter, func()) {
	notifyCfg := notify.Config{
		Title: cfg.Notification.Title,
		Sound: cfg.Notification.Sound,
	}

	if !cfg.Rabbit.Enabled {
		return notify.NewLogPresenter(notifyCfg), func() {}
	}

	rabbitURL := cfg.Rabbit.URL
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf("amqp://%s:%s@%s:%d/",
			cfg.Rabbit.Username,
			cfg.Rabbit.Password,
			cfg.Rabbit.Host,
			cfg.Rabbit.Port)
	}

	presenter, err := notify.NewRabbitPresenter(notify.RabbitConfig{
		URL:       rabbitURL,
		QueueName: cfg.Rabbit.QueueName,
	}, notifyCfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to RabbitMQ: %s", err.Error())
	}

	return presenter, func() {
		if err := presenter.Close(); err != nil {
			logrus.Errorf("Failed to close RabbitMQ presenter: %s", err.Error())
		}
	}
}
