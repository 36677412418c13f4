package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/cache"
	"freightdesk/internal/core/config"
	"freightdesk/internal/core/events"
	"freightdesk/internal/core/logger"
	"freightdesk/internal/core/queue"
	"freightdesk/internal/core/server"
	"freightdesk/internal/core/storage"
	billinghandler "freightdesk/internal/features/billing/handler"
	mailadapter "freightdesk/internal/features/notifications/adapters"
	maildomain "freightdesk/internal/features/notifications/domain"
	mailports "freightdesk/internal/features/notifications/ports"
	mailservice "freightdesk/internal/features/notifications/service"
	shipmentadapter "freightdesk/internal/features/shipments/adapters"
	shipmenthandler "freightdesk/internal/features/shipments/handler"
	shipmentports "freightdesk/internal/features/shipments/ports"
	shipmentservice "freightdesk/internal/features/shipments/service"
	trackinghandler "freightdesk/internal/features/tracking/handler"
	trackingservice "freightdesk/internal/features/tracking/service"
	useradapter "freightdesk/internal/features/users/adapters"
	userhandler "freightdesk/internal/features/users/handler"
	userservice "freightdesk/internal/features/users/service"

	"go.uber.org/zap"
)

// @title Freightdesk API
// @version 1.0
// @description Shipment lifecycle, customer portal and back office API for a freight forwarder.
// @contact.name API Support
// @contact.email support@freightdesk.local
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel, zap.String("binary", "api")); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		l.Fatal("Database unavailable", zap.Error(err))
	}
	defer db.Close()

	health := map[string]server.Pinger{"store": server.PingFunc(db.PingContext)}

	// Shipments: SQL store, optionally fronted by Redis.
	var shipmentRepo shipmentports.ShipmentRepository = shipmentadapter.NewSQLRepository(db)
	if cfg.Cache.RedisURL != "" {
		redis, err := cache.NewRedisAdapter(cfg.Cache.RedisURL, "freightdesk")
		if err != nil {
			l.Fatal("Redis unavailable", zap.Error(err))
		}
		defer redis.Close()
		shipmentRepo = shipmentadapter.NewCachedRepository(shipmentRepo, redis, cfg.Cache.CacheTTL())
		health["cache"] = redis
		l.Info("Shipment cache enabled", zap.Duration("ttl", cfg.Cache.CacheTTL()))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.Events.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.Events.KafkaTopic)
		l.Info("Shipment events enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.Events.KafkaTopic))
	}
	defer publisher.Close()

	mailer, closeMailer := newMailer(cfg, l)
	defer closeMailer()
	notifier := mailservice.NewStatusNotifier(mailer, cfg.PortalURL)

	files, err := shipmentadapter.NewDiskFileStore(cfg.Uploads.Dir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		l.Fatal("Upload directory unavailable", zap.Error(err))
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authn := auth.Middleware(tokens)

	userSvc := userservice.NewUserService(useradapter.NewSQLRepository(db), useradapter.NewArgon2Hasher(useradapter.DefaultArgon2Params), tokens)
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		created, err := userSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			l.Fatal("Admin bootstrap failed", zap.Error(err))
		}
		if created {
			l.Info("Admin account created", zap.String("email", cfg.Auth.AdminEmail))
		}
	}

	shipmentSvc := shipmentservice.NewShipmentService(shipmentRepo, publisher, notifier, files)
	trackingSvc := trackingservice.NewTrackingService(shipmentRepo)

	srv := server.New(cfg)

	srv.App.Get("/healthz", server.Health(health))
	userhandler.NewUserHandler(userSvc).RegisterRoutes(srv.App, authn)
	shipmenthandler.NewShipmentHandler(shipmentSvc).RegisterRoutes(srv.App, authn)
	trackinghandler.NewTrackingHandler(trackingSvc).RegisterRoutes(srv.App)
	srv.App.Post("/api/v1/quotes/totals", authn, billinghandler.NewQuoteHandler().Totals)

	if err := srv.Serve(ctx); err != nil {
		l.Error("Server stopped", zap.Error(err))
	}
}

// newMailer picks how status notifications leave the API: queued on
// RabbitMQ for the mailer worker when configured, otherwise sent inline.
func newMailer(cfg *config.AppConfig, l *zap.Logger) (mailports.Sender, func()) {
	if cfg.Queue.RabbitMQURL != "" {
		q, err := queue.Dial(cfg.Queue.RabbitMQURL)
		if err != nil {
			l.Fatal("RabbitMQ unavailable", zap.Error(err))
		}
		if err := q.Declare(cfg.Queue.MailQueue); err != nil {
			l.Fatal("Mail queue declare failed", zap.Error(err))
		}
		l.Info("Mail queued", zap.String("queue", cfg.Queue.MailQueue))
		return mailadapter.NewQueueSender(q, cfg.Queue.MailQueue), func() { _ = q.Close() }
	}

	mailCfg, err := maildomain.LoadMailConfig()
	if err != nil {
		l.Fatal("Invalid mail configuration", zap.Error(err))
	}
	transport, err := mailadapter.NewTransport(mailCfg)
	if err != nil {
		// Notifications are best effort; fall back to logging them.
		l.Warn("Mail transport unavailable, logging mail instead", zap.Error(err))
		transport = mailadapter.NewConsoleTransport()
	}
	l.Info("Mail sent inline", zap.String("transport", transport.Name()))
	return mailservice.NewDispatcher(transport, mailCfg), func() {}
}
