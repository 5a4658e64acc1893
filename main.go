package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"verlo/cart"
	"verlo/config"
	"verlo/db"
	"verlo/middleware"
	"verlo/notify"
	"verlo/orders"
	"verlo/ordernum"
	"verlo/payevents"
	"verlo/ratelim"
	"verlo/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(cfg *config.Config, mongo *db.Mongo, rdb *redis.Client) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	auth := middleware.NewAuth(cfg.JwtSecret)
	rateLimiter := ratelim.NewRateLimiter()

	orderStore := orders.NewMongoStore(mongo.Orders)
	cartStore := cart.NewMongoStore(mongo.Carts)

	cartService := cart.NewService(cartStore)
	allocator := ordernum.New(cfg.OrderNumberPrefix, orderStore)
	notifier := notify.New(rdb)

	orderService := orders.NewService(orderStore, allocator, cartService, notifier)
	orderHandlers := orders.NewHandlers(orderService, orderStore, cfg.InvoiceSecret)
	cartHandlers := cart.NewHandlers(cartService)

	processor := payevents.NewProcessor(orderStore, cfg.StripeWebhookSecret, rdb)

	routes.AddCartRoutes(router, cartHandlers, auth, rateLimiter)
	routes.AddOrderRoutes(router, orderHandlers, auth, rateLimiter)
	routes.AddWebhookRoutes(router, processor)

	return router
}

func main() {
	cfg := config.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	mongo, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := mongo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	// confirmation email worker
	notifier := notify.New(rdb)
	go notifier.StartWorker(ctx, notify.LogSender{})

	router := setupRouter(cfg, mongo, rdb)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}
	if err := mongo.Close(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	if err := rdb.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
