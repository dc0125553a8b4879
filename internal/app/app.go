package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	emailadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/email"
	mongoadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/mongo"
	natsadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/nats"
	redisadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/redis"
	stripeadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/stripe"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/tracer"
	grpcserver "github.com/Abdurahmanit/GroupProject/adoption-service/internal/port/grpc"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/port/rest"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const healthProbeInterval = 30 * time.Second

type App struct {
	cfg            *config.Config
	log            logger.Logger
	httpServer     *rest.Server
	grpcServer     *grpcserver.Server
	reconciler     *worker.Reconciler
	tracerProvider *sdktrace.TracerProvider
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
	stopProbe      chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s, GRPC Port: %s", cfg.Env, cfg.HTTPServer.Port, cfg.GRPCServer.Port)

	tp := tracer.InitTracer(cfg.ServiceName, cfg.Tracing.OTLPEndpoint, appLogger)
	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	appLogger.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		appLogger.Errorf("Failed to initialize MongoDB client: %v", err)
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	if err := mongoadapter.EnsureIndexes(ctx, mongoClient, cfg.MongoDB); err != nil {
		appLogger.Errorf("Failed to ensure MongoDB indexes: %v", err)
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}
	appLogger.Info("MongoDB client initialized successfully")

	appLogger.Info("Initializing Redis client...")
	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Errorf("Failed to initialize Redis client: %v", err)
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized successfully")

	var natsConn *nats.Conn
	publisher := natsadapter.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		natsConn, err = natsadapter.NewConnection(cfg.NATS, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize NATS connection: %w", err)
		}
		publisher, err = natsadapter.NewNATSPublisher(natsConn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize NATS publisher: %w", err)
		}
		appLogger.Info("NATS publisher initialized successfully")
	} else {
		appLogger.Warn("NATS URL not configured, domain events will not be published")
	}

	emailSender := emailadapter.NewNoopSender()
	if cfg.SMTP.Host != "" {
		emailSender, err = emailadapter.NewSMTPSender(cfg.SMTP, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		appLogger.Info("SMTP sender initialized successfully")
	} else {
		appLogger.Warn("SMTP host not configured, receipts will not be emailed")
	}

	if cfg.Stripe.SecretKey == "" {
		appLogger.Warn("Stripe secret key not configured, checkouts will fail at the payment step")
	}
	gateway := stripeadapter.NewClient(cfg.Stripe, appLogger)

	listingRepo := mongoadapter.NewListingRepository(mongoClient, cfg.MongoDB)
	orderRepo := mongoadapter.NewOrderRepository(mongoClient, cfg.MongoDB)
	taxRepo := mongoadapter.NewTaxRepository(mongoClient, cfg.MongoDB)
	requestRepo := mongoadapter.NewRequestRepository(mongoClient, cfg.MongoDB)
	sagaRepo := mongoadapter.NewSagaRepository(mongoClient, cfg.MongoDB)
	listingCache := redisadapter.NewListingCache(redisClient)
	basketRepo := redisadapter.NewBasketRepository(redisClient)
	appLogger.Info("Repositories initialized")

	listingService := service.NewListingService(listingRepo, listingCache, orderRepo, publisher, metricsManager, appLogger, cfg.ListingCache.TTL)
	basketService := service.NewBasketService(basketRepo, listingService, appLogger, cfg.Basket.TTL)
	requestService := service.NewRequestService(requestRepo, orderRepo, listingService, publisher, appLogger)
	reconciliationService := service.NewReconciliationService(orderRepo, requestService, metricsManager, appLogger, cfg.Reconciliation.BackfillOnEmptyRead)
	orderService := service.NewOrderService(orderRepo, appLogger)
	receiptService := service.NewReceiptService(orderService, appLogger)
	checkoutService := service.NewCheckoutService(
		listingService,
		requestService,
		requestRepo,
		orderRepo,
		taxRepo,
		sagaRepo,
		basketService,
		gateway,
		publisher,
		emailSender,
		metricsManager,
		appLogger,
		service.CheckoutConfig{
			Currency:          cfg.Checkout.Currency,
			ProcessingFee:     cfg.Checkout.ProcessingFee,
			ShippingFee:       cfg.Checkout.ShippingFee,
			ExclusiveListings: cfg.Checkout.ExclusiveListings,
		},
	)
	appLogger.Info("Services initialized")

	handler := rest.NewHandler(rest.Services{
		Listings:       listingService,
		Baskets:        basketService,
		Checkout:       checkoutService,
		Requests:       requestService,
		Reconciliation: reconciliationService,
		Orders:         orderService,
		Receipts:       receiptService,
	}, appLogger, cfg.Auth.AdminRole)
	router := rest.NewRouter(handler, cfg.Auth.JWTSecret, metricsManager, appLogger)
	httpSrv := rest.NewServer(appLogger, cfg.HTTPServer.Port, cfg.HTTPServer.ReadTimeout, cfg.HTTPServer.WriteTimeout, router)

	grpcSrv := grpcserver.NewServer(
		appLogger,
		cfg.GRPCServer.Port,
		cfg.GRPCServer.TimeoutGraceful,
		cfg.GRPCServer.MaxConnectionIdle,
	)

	reconciler := worker.NewReconciler(
		reconciliationService,
		checkoutService,
		appLogger,
		cfg.Reconciliation.Interval,
		cfg.Reconciliation.SagaStallAfter,
	)

	application := &App{
		cfg:            cfg,
		log:            appLogger,
		httpServer:     httpSrv,
		grpcServer:     grpcSrv,
		reconciler:     reconciler,
		tracerProvider: tp,
		mongoClient:    mongoClient,
		redisClient:    redisClient,
		natsConn:       natsConn,
		stopProbe:      make(chan struct{}),
	}

	return application, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	go func() {
		if err := a.grpcServer.Start(); err != nil {
			a.log.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()
	a.reconciler.Start()
	go a.probeStores()
	a.log.Info("HTTP server, gRPC server and reconciler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)
	close(a.stopProbe)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	}
	if err := a.grpcServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during gRPC server graceful shutdown: %v", err)
	}
	if err := a.reconciler.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Reconciler did not stop in time: %v", err)
	}

	a.log.Info("Closing connections...")

	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Errorf("Error draining NATS connection: %v", err)
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("Error shutting down tracer provider: %v", err)
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}

// probeStores keeps the gRPC health status in line with MongoDB and Redis
// reachability.
func (a *App) probeStores() {
	t := time.NewTicker(healthProbeInterval)
	defer t.Stop()
	for {
		select {
		case <-a.stopProbe:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			mongoErr := a.mongoClient.Ping(ctx, readpref.Primary())
			redisErr := a.redisClient.Ping(ctx).Err()
			cancel()
			if mongoErr != nil || redisErr != nil {
				a.log.Warnf("Store probe failed: mongo=%v redis=%v", mongoErr, redisErr)
			}
			a.grpcServer.SetServing(mongoErr == nil && redisErr == nil)
		}
	}
}
