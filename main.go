package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-eventhub/internal/analytics"
	"ms-eventhub/internal/analytics/analytics_api"
	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/category"
	"ms-eventhub/internal/category/category_api"
	categorydb "ms-eventhub/internal/category/db"
	"ms-eventhub/internal/config"
	"ms-eventhub/internal/database"
	"ms-eventhub/internal/database/migrations"
	"ms-eventhub/internal/event"
	"ms-eventhub/internal/event/event_api"
	eventdb "ms-eventhub/internal/event/db"
	"ms-eventhub/internal/kafka"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/metrics"
	"ms-eventhub/internal/order"
	orderdb "ms-eventhub/internal/order/db"
	orderredis "ms-eventhub/internal/order/redis"
	"ms-eventhub/internal/order/order_api"
	"ms-eventhub/internal/order/ticket"
	"ms-eventhub/internal/revalidate"
	"ms-eventhub/internal/router"
	"ms-eventhub/internal/sse"
	"ms-eventhub/internal/user"
	userdb "ms-eventhub/internal/user/db"
	"ms-eventhub/internal/user/user_api"
	"ms-eventhub/internal/webhooks"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Service: "eventhub", Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v, continuing without file output\n", err)
		log, _ = logger.New(logger.Options{Service: "eventhub", Level: cfg.Log.Level})
	}
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	log.Info("APP", "Starting eventhub initialization")

	ctx := context.Background()

	connector := database.NewConnector(cfg.Database, log)
	bunDB, err := connector.Connect(ctx)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
	}
	defer connector.Close()
	prepareSchema(ctx, cfg.Database, bunDB, log)

	rdb := newRedisClient(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}
	reval := newRevalidator(rdb, cfg.Redis, log)

	pub := newPublisher(cfg.Kafka, log)
	defer pub.Close()

	order.InitStripe(cfg.Stripe.SecretKey)
	if cfg.Stripe.SecretKey == "" {
		log.Warn("CONFIG", "STRIPE_SECRET_KEY not set, checkout will fail")
	}

	verifier := newVerifier(ctx, cfg.Auth, log)

	qr, err := ticket.NewQRGenerator(cfg.Ticket.QRSecret)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Ticket QR generator: %v", err))
	}

	users := &userdb.DB{Bun: bunDB}
	categories := &categorydb.DB{Bun: bunDB}
	events := &eventdb.DB{Bun: bunDB}

	userService := user.NewUserService(users, reval, pub, log)
	categoryService := category.NewCategoryService(categories, log)
	eventService := event.NewEventService(events, users, categories, reval, pub,
		event.NewImageURLValidator(cfg.Upload.AllowedHosts), log)
	orderService := order.NewOrderService(&orderdb.DB{Bun: bunDB}, users, events, order.StripeCheckout{}, qr, pub, log)
	orderService.AppURL = cfg.AppURL
	orderService.Currency = cfg.Stripe.Currency
	stream := sse.NewOrderStream()
	orderService.Live = stream
	if rdb != nil {
		orderService.Locks = orderredis.NewSessionLock(rdb, cfg.Redis.SessionLockTTL, log)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := router.New(router.Handlers{
		Categories:    category_api.NewHandler(categoryService, log),
		Events:        event_api.NewHandler(eventService, log),
		Orders:        order_api.NewHandler(orderService, log),
		Users:         user_api.NewHandler(userService, log),
		OrderStream:   sse.NewHandler(stream, eventService, log),
		Sales:         analytics_api.NewHandler(analytics.NewService(&analytics.DB{Bun: bunDB}, users, log), log),
		ClerkWebhook:  webhooks.NewClerkHandler(userService, cfg.Clerk.WebhookSecret, log),
		StripeWebhook: webhooks.NewStripeHandler(orderService, cfg.Stripe.WebhookSecret, log),
		Metrics:       promhttp.Handler(),

		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, verifier, bunDB, log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// Cancelling the base context on shutdown ends open order streams.
	baseCtx, cancelStreams := context.WithCancel(ctx)
	server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	server.RegisterOnShutdown(cancelStreams)

	go func() {
		log.Info("HTTP", fmt.Sprintf("eventhub running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Shutdown complete")
	}
}

// prepareSchema creates tables directly on sqlite. On postgres the embedded
// migrations run only when DB_AUTO_MIGRATE is set; otherwise cmd/migrate owns
// the schema.
func prepareSchema(ctx context.Context, cfg config.DatabaseConfig, db *bun.DB, log *logger.Logger) {
	if cfg.Driver == database.DriverSQLite {
		if err := database.CreateSchema(ctx, db); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		return
	}
	if !cfg.AutoMigrate {
		return
	}
	// The runner is not closed: that would close the shared pool.
	if err := migrations.NewRunner(db, migrations.Options{}, log).RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
}

// newRedisClient returns nil when Redis is disabled. An unreachable server is
// not fatal: revalidation and session locks degrade on their own.
func newRedisClient(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("REDIS", "Redis disabled, revalidation and session locks are off")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis at %s unreachable, revalidation signals will be dropped: %v", cfg.Addr, err))
	} else {
		log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s", cfg.Addr))
	}
	return client
}

func newRevalidator(client *redis.Client, cfg config.RedisConfig, log *logger.Logger) revalidator {
	if client == nil {
		return revalidate.Noop{}
	}
	return revalidate.NewNotifier(client, cfg.RevalidateChannel, log)
}

func newPublisher(cfg config.KafkaConfig, log *logger.Logger) publisher {
	if !cfg.Enabled {
		log.Info("KAFKA", "Domain events disabled")
		return kafka.Noop{}
	}
	p := kafka.NewProducer(cfg.Brokers, cfg.TopicPrefix, log)
	if err := kafka.EnsureTopicsExist(cfg.Brokers, p.Topics(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	return p
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) auth.TokenVerifier {
	if cfg.OIDCIssuer != "" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("OIDC discovery for %s failed: %v", cfg.OIDCIssuer, err))
		}
		log.Info("AUTH", fmt.Sprintf("Verifying bearer tokens against %s", cfg.OIDCIssuer))
		return v
	}
	if cfg.DevSecret == "" {
		log.Fatal("AUTH", "Neither OIDC_ISSUER nor AUTH_DEV_SECRET is set")
	}
	log.Warn("AUTH", "Using HS256 development tokens")
	return auth.NewHMACVerifier(cfg.DevSecret)
}
