package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/config"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/customer"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/db"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/dedup"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/events"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/fulfillment"
	httpapi "github.com/Ali-zain99/Mobile-Mechanic/internal/http"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/logging"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/order"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/sequence"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/session"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/views"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	mode := store.ModeCompat
	if cfg.WorkflowAtomic {
		mode = store.ModeAtomic
	}
	runner := store.NewRunner(pool, mode, logger)

	stock := inventory.NewPostgresRepository(pool)
	orders := order.NewRepository(pool)
	customers := customer.NewRepository(pool)
	bookings := booking.NewRepository(pool)

	// --- AMQP ---
	var (
		orderPub    order.Publisher
		bookingPub  booking.Publisher
		reviewPub   fulfillment.Publisher
		amqpConn    *amqp.Connection
		startEvents func(ctx context.Context) error
	)
	if cfg.RabbitMQURL != "" {
		amqpConn, err = amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
		if err != nil {
			return fmt.Errorf("rabbitmq dial: %w", err)
		}
		defer amqpConn.Close()

		pub, err := events.NewPublisher(amqpConn, sequence.NewRepository(pool), events.PublisherOptions{
			PublishEnveloped: cfg.PublishEnvelopedEvents,
		}, logger)
		if err != nil {
			return fmt.Errorf("publisher: %w", err)
		}
		defer pub.Close()
		orderPub, bookingPub, reviewPub = pub, pub, pub

		handlers := events.Handlers(events.ConsumerDeps{
			Runner:           runner,
			Inventory:        stock,
			Bookings:         bookings,
			Dedup:            dedup.NewRepository(pool),
			ConsumeEnveloped: cfg.ConsumeEnvelopedEvents,
			Logger:           logger,
		})
		startEvents = func(ctx context.Context) error {
			return events.StartConsumer(ctx, amqpConn, handlers, logger)
		}
	} else {
		logger.Warn("RABBITMQ_URL not set; events disabled")
	}

	// --- HTTP ---
	sessions := session.NewPostgresStore(pool, []byte(cfg.SessionSecret))
	sessions.Options.Secure = cfg.SecureCookies

	h := httpapi.NewHandler(httpapi.Deps{
		Sessions:    session.NewManager(sessions, cfg.SessionName, logger),
		Directory:   customers,
		Catalog:     views.NewReader(pool),
		Carts:       cart.NewService(stock, logger),
		Checkout:    order.NewCommitter(runner, orders, orderPub, logger),
		Orders:      orders,
		Bookings:    booking.NewAllocator(runner, bookings, customers, bookingPub, logger),
		Fulfillment: fulfillment.NewService(runner, reviewPub, fulfillment.Options{RejectDuplicateReviews: cfg.RejectDuplicateReviews}, logger),
		Stock:       stock,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(h, logger, httpapi.RouterOptions{
			Timeout:      cfg.RequestTimeout,
			GatewayToken: cfg.GatewayToken,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if startEvents != nil {
		g.Go(func() error {
			if err := startEvents(gctx); err != nil {
				return fmt.Errorf("start consumer: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("http listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.Stringer("workflow_mode", mode))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := sessions.DeleteExpired(gctx)
				if err != nil {
					logger.Warn("session sweep failed", zap.Error(err))
					continue
				}
				logger.Debug("session sweep", zap.Int64("deleted", n))
			}
		}
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
