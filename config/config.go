package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs at startup. It is built once in
// main and handed to constructors; nothing in here is package-level state.
type Config struct {
	Port                string
	MongoURI            string
	MongoDB             string
	RedisAddr           string
	JwtSecret           []byte
	StripeWebhookSecret string
	OrderNumberPrefix   string
	InvoiceSecret       []byte
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	return &Config{
		Port:                port,
		MongoURI:            getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getenv("MONGO_DB", "storedb"),
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		JwtSecret:           []byte(getenv("JWT_SECRET", "your_secret_key")),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		OrderNumberPrefix:   getenv("ORDER_NUMBER_PREFIX", "ORD"),
		InvoiceSecret:       []byte(getenv("INVOICE_SECRET", "invoice-signing-key")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
