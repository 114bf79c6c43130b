package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/ridit-backend/internal/config"
	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/handlers"
	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/routes"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}
	services.ConfigureSessions(cfg.JWTSecret, cfg.UserSessionTTL, cfg.AdminSessionTTL)

	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(ctx, cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(ctx, cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := services.EnsureItemEventIndexes(ctx); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure item event indexes: %v", err)
	} else {
		log.Println("✅ MongoDB item event indexes ensured")
	}

	if err := services.EnsureAdminAccount(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("Failed to provision admin account:", err)
	}

	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
		} else {
			handlers.SetImageUploader(cld)
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Image uploads will not be available")
	}

	services.Geocoder = &services.CachedReverser{
		Next:  geocode.NewNominatim(cfg.GeocoderURL),
		Cache: services.Cache,
	}

	services.StartItemEventSubscriber(ctx)
	services.StartSubscriptionSweeper(ctx, cfg.SubscriptionSweep)
	log.Printf("✅ Subscription sweeper started (every %s)", cfg.SubscriptionSweep)

	middleware.IPResolver.TrustProxy = cfg.TrustProxy

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.GlobalRateLimit, middleware.LoginRateLimit)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Ridit backend running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}
