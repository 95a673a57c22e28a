package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pullum327/Reactorder/internal/auth"
	"github.com/pullum327/Reactorder/internal/cache"
	"github.com/pullum327/Reactorder/internal/catalog"
	"github.com/pullum327/Reactorder/internal/config"
	"github.com/pullum327/Reactorder/internal/db"
	"github.com/pullum327/Reactorder/internal/events"
	"github.com/pullum327/Reactorder/internal/httpapi"
	"github.com/pullum327/Reactorder/internal/mail"
	"github.com/pullum327/Reactorder/internal/order"
	"github.com/pullum327/Reactorder/internal/payment"
	"github.com/pullum327/Reactorder/internal/user"
	"github.com/pullum327/Reactorder/internal/webhook"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[order-backend] ", log.LstdFlags|log.Lshortfile)

	if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("open db pool: %v", err)
	}
	defer pool.Close()

	var catalogRepo catalog.Repository = catalog.NewPostgresRepository(pool)
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer c.Close()
		catalogRepo = catalog.NewCachedRepository(catalogRepo, c, logger)
	}

	userRepo := user.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	logRepo := webhook.NewPostgresLogRepository(pool)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	validator := order.NewValidator(catalogRepo)

	var notifier order.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	} else {
		logger.Println("SENDGRID_API_KEY not set; order confirmation mail disabled")
	}

	orderService := order.NewService(orderRepo, validator, notifier, cfg.MailTimeout, logger)

	provider := payment.NewStripeProvider(cfg.StripeSecretKey)
	issuer := payment.NewIssuer(orderRepo, validator, provider, cfg.Currency)

	var publisher webhook.PaidPublisher
	if cfg.AMQPURL != "" {
		conn, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("connect rabbitmq: %v", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatalf("create publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Println("AMQP_URL not set; order.paid publishing disabled")
	}

	verifier := webhook.NewStripeVerifier(cfg.StripeWebhookSecret)
	reconciler := webhook.NewReconciler(verifier, orderRepo, logRepo, publisher, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:          catalogRepo,
		Users:            userRepo,
		Tokens:           tokens,
		Orders:           orderService,
		Validator:        validator,
		Issuer:           issuer,
		Reconciler:       reconciler,
		RequestTimeout:   cfg.RequestTimeout,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("order-backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
