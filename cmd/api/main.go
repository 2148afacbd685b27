package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/georgemunganga/shelfwise/internal/config"
	"github.com/georgemunganga/shelfwise/internal/modules/auth"
	"github.com/georgemunganga/shelfwise/internal/modules/inventory"
	"github.com/georgemunganga/shelfwise/internal/modules/order"
	"github.com/georgemunganga/shelfwise/internal/modules/pos"
	"github.com/georgemunganga/shelfwise/internal/modules/user"
	"github.com/georgemunganga/shelfwise/internal/modules/vendor"
	"github.com/georgemunganga/shelfwise/internal/platform/database"
	"github.com/georgemunganga/shelfwise/internal/platform/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	fmt.Println("Successfully connected to the database!")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	var numbers order.NumberGenerator = order.NewSequenceNumberGenerator(db)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		opts.DB = cfg.RedisDB
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		numbers = order.NewRedisNumberGenerator(rdb)
		log.Println("order numbers: redis daily counter")
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(telemetry.Middleware(cfg.ServiceName, "/api/health"))

	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ── Identity ────────────────────────────────────────────
	userService := user.NewService(user.NewPostgresRepository(db))
	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTIssuer)

	// ── Vendors & Inventory ─────────────────────────────────
	vendorService := vendor.NewService(vendor.NewPostgresRepository(db))
	inventoryService := inventory.NewService(
		inventory.NewShelfPostgresRepository(db),
		inventory.NewProductPostgresRepository(db),
	)

	// ── Orders & POS ────────────────────────────────────────
	orderService := order.NewService(order.NewPostgresRepository(db), numbers)
	posService := pos.NewService(orderService, inventoryService)

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokens, userService))
		user.NewHandler(userService).RegisterRoutes(r)
		vendor.NewHandler(vendorService).RegisterRoutes(r)
		inventory.NewHandler(inventoryService).RegisterRoutes(r)
		order.NewHandler(orderService, cfg.MultiTenant).RegisterRoutes(r)
		pos.NewHandler(posService).RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		fmt.Printf("Shelfwise API server starting on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
