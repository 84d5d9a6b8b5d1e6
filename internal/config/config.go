package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	StoreBackend string
	ProductsFile string
	OrdersFile   string
	SequenceFile string
	MongoURI     string
	MongoDB      string

	NotifyEnabled    bool
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string
	NotifyTimeout    time.Duration

	ShopName       string
	OrderSource    string
	CurrencySymbol string

	AdminUsername     string
	AdminPasswordHash string
}

func LoadConfig() *Config {
	// .env is only present in local development
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("error loading .env file:", err)
		}
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		ProductsFile: getEnv("PRODUCTS_FILE", "data/products.json"),
		OrdersFile:   getEnv("ORDERS_FILE", "data/orders.json"),
		SequenceFile: getEnv("SEQUENCE_FILE", "data/sequences.db"),
		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDB:      getEnv("MONGO_DB", "storefront"),

		NotifyEnabled:    getBool("NOTIFY_ENABLED", true),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:   strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		NotifyTimeout:    getDuration("NOTIFY_TIMEOUT", 10*time.Second),

		ShopName:       getEnv("SHOP_NAME", "MA Furniture"),
		OrderSource:    getEnv("ORDER_SOURCE", "website"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₽"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// TelegramConfigured reports whether both webhook credentials are present.
func (c *Config) TelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// AdminProtected reports whether admin routes require credentials.
func (c *Config) AdminProtected() bool {
	return c.AdminPasswordHash != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("5s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
