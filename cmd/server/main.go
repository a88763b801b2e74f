package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/rates"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/migrations"
)

// cache is what the Redis adapter and its in-memory stand-in both provide.
type cache interface {
	port.RateCache
	port.IdempotencyGuard
}

func main() {
	bootLog := logrus.New()
	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.WithError(err).Fatal("invalid configuration")
	}
	log := cfg.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	stores, closeDB, err := openStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open stores")
	}
	defer closeDB()

	// Cache
	var kv cache = memory.NewCache()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			PoolSize: cfg.RedisPoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect redis")
		}
		log.WithField("addr", cfg.RedisAddr).Info("connected to redis")
		kv = storage.NewRedisAdapter(rdb)
	} else {
		log.Warn("REDIS_ADDR empty, using in-process cache")
	}

	// Blob storage
	var blobs port.BlobStorage
	if cfg.BlobBackend == "gcs" {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		client, err := gcs.NewClient(ctx, opts...)
		if err != nil {
			log.WithError(err).Fatal("failed to create storage client")
		}
		defer client.Close()
		blobs = storage.NewGCSAdapter(client, cfg.ImageBucket)
	} else {
		blobs = memory.NewBlobStorage(cfg.MemoryBlobURL)
	}

	// Authentication
	var authn port.Authenticator
	if cfg.AuthMode == "static" {
		tokens, err := auth.ParseStaticTokens(cfg.DevTokens)
		if err != nil {
			log.WithError(err).Fatal("invalid DEV_TOKENS")
		}
		authn = auth.NewStaticAuthenticator(tokens)
		log.Warn("static token authentication enabled")
	} else {
		fa, err := auth.NewFirebaseAuthenticator(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("failed to initialise firebase auth")
		}
		authn = fa
	}

	// Services
	orders := service.NewOrderService(stores, log)
	invoices := service.NewInvoiceService(stores, orders, log)
	catalog := service.NewCatalogService(stores, log)
	profiles := service.NewProfileService(stores, log)
	svc := handler.Services{
		Carts:    service.NewCartService(stores, log),
		Checkout: service.NewCheckoutService(stores, orders, invoices, log),
		Orders:   orders,
		Invoices: invoices,
		Catalog:  catalog,
		Products: service.NewProductService(stores, blobs, catalog, log),
		Profiles: profiles,
		Currency: service.NewCurrencyService(kv, rates.NewTRMClient(cfg.TRMURL, cfg.TRMTimeout), log),
	}

	if cfg.SeedRoles {
		if err := profiles.SeedRoles(ctx); err != nil {
			log.WithError(err).Fatal("failed to seed roles")
		}
	}
	if cfg.SeedCatalog {
		if err := catalog.SeedCatalog(ctx); err != nil {
			log.WithError(err).Fatal("failed to seed catalog")
		}
	}

	// gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		handler.LoggingInterceptor(log),
		handler.AuthInterceptor(authn, profiles),
	))
	handler.RegisterOrdersServer(grpcServer, handler.NewGRPCHandler(orders, invoices))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	go func() {
		log.WithField("addr", cfg.GRPCPort).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// HTTP server
	httpServer := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: handler.NewHTTPHandler(svc, authn, kv, log, cfg.SimulatePayment).Router(),
	}
	go func() {
		log.WithField("addr", cfg.HTTPPort).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	if rdb != nil {
		rdb.Close()
	}
	log.Info("connections closed")
}

func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (port.Stores, func(), error) {
	if cfg.Store == "memory" {
		log.Warn("using in-memory stores, data is lost on restart")
		return memory.NewStores(), func() {}, nil
	}

	dialect, err := storage.ParseDialect(cfg.DBDriver)
	if err != nil {
		return port.Stores{}, nil, err
	}
	dsn := cfg.DatabaseDSN
	if dialect == storage.DialectMySQL {
		if dsn, err = storage.NormalizeMySQLDSN(dsn); err != nil {
			return port.Stores{}, nil, err
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return port.Stores{}, nil, fmt.Errorf("open %s: %w", dialect.DriverName(), err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return port.Stores{}, nil, fmt.Errorf("ping %s: %w", dialect.DriverName(), err)
	}
	log.WithField("driver", dialect.DriverName()).Info("connected to database")

	if err := storage.Migrate(ctx, db, dialect, migrations.FS); err != nil {
		db.Close()
		return port.Stores{}, nil, err
	}
	return storage.NewSQLAdapter(db, dialect, log).Stores(), func() { db.Close() }, nil
}
