package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/migrations"
)

// checkout_race fires concurrent checkouts of a single cart. Exactly one
// must produce an order; the rest must see the cart as gone.
func main() {
	requests := flag.Int("n", 50, "concurrent checkout attempts")
	dsn := flag.String("mysql", "", "MySQL DSN; in-memory stores when empty")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	ctx := context.Background()

	stores := memory.NewStores()
	if *dsn != "" {
		s, closeDB, err := openMySQL(ctx, *dsn, log)
		if err != nil {
			log.WithError(err).Fatal("failed to open mysql")
		}
		defer closeDB()
		stores = s
	}

	orders := service.NewOrderService(stores, log)
	invoices := service.NewInvoiceService(stores, orders, log)
	profiles := service.NewProfileService(stores, log)
	carts := service.NewCartService(stores, log)
	checkout := service.NewCheckoutService(stores, orders, invoices, log)

	// Seed a customer with a two-line cart
	if err := profiles.SeedRoles(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed roles")
	}
	uid := "race-" + uuid.NewString()[:8]
	if _, err := profiles.CompleteOnboarding(ctx, uid, service.OnboardingInput{Username: uid, FullName: "Race Runner", Role: "customer"}); err != nil {
		log.WithError(err).Fatal("failed to onboard customer")
	}
	actor, err := profiles.Actor(ctx, uid)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve actor")
	}

	var cartID string
	for i, price := range []string{"19.90", "7.50"} {
		p := domain.Product{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("race product %d", i),
			Price:     decimal.RequireFromString(price),
			Available: true,
			CreatedAt: time.Now(),
		}
		if err := stores.Products.Insert(ctx, p); err != nil {
			log.WithError(err).Fatal("failed to seed product")
		}
		cart, err := carts.AddToCart(ctx, actor, p.ID, i+1)
		if err != nil {
			log.WithError(err).Fatal("failed to fill cart")
		}
		cartID = cart.ID
	}

	var successCount, goneCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := checkout.Checkout(ctx, actor, cartID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrNotFound):
				goneCount.Add(1)
			default:
				otherCount.Add(1)
				log.WithError(err).Warn("unexpected checkout failure")
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	mine, err := orders.ListMine(ctx, actor)
	if err != nil {
		log.WithError(err).Fatal("failed to list orders")
	}

	fmt.Println("========== CHECKOUT RACE RESULTS ==========")
	fmt.Printf("Attempts:         %d\n", *requests)
	fmt.Printf("Orders created:   %d\n", successCount.Load())
	fmt.Printf("Cart gone:        %d\n", goneCount.Load())
	fmt.Printf("Other failures:   %d\n", otherCount.Load())
	fmt.Printf("Orders stored:    %d\n", len(mine))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("===========================================")

	if successCount.Load() == 1 && len(mine) == 1 && otherCount.Load() == 0 {
		fmt.Printf("PASS: one order totalling %s\n", mine[0].Total.StringFixed(2))
		return
	}
	fmt.Println("FAIL: expected exactly one order")
	os.Exit(1)
}

func openMySQL(ctx context.Context, dsn string, log logrus.FieldLogger) (port.Stores, func(), error) {
	dsn, err := storage.NormalizeMySQLDSN(dsn)
	if err != nil {
		return port.Stores{}, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return port.Stores{}, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return port.Stores{}, nil, err
	}
	if err := storage.Migrate(ctx, db, storage.DialectMySQL, migrations.FS); err != nil {
		db.Close()
		return port.Stores{}, nil, err
	}
	return storage.NewSQLAdapter(db, storage.DialectMySQL, log).Stores(), func() { db.Close() }, nil
}
