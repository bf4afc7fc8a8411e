package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	YahooQuoteBaseURL  string        `env:"YAHOO_QUOTE_BASE_URL,default=https://query1.finance.yahoo.com"`
	YahooSearchBaseURL string        `env:"YAHOO_SEARCH_BASE_URL,default=https://query1.finance.yahoo.com"`
	YahooTimeout       time.Duration `env:"YAHOO_TIMEOUT,default=10s"`

	OllamaAPIURL  string        `env:"OLLAMA_API_URL,default=http://localhost:11434/api/generate"`
	OllamaModel   string        `env:"OLLAMA_MODEL,default=mistral"`
	OllamaTimeout time.Duration `env:"OLLAMA_TIMEOUT,default=120s"`

	PriceTTL        time.Duration `env:"PRICE_TTL,default=15s"`
	HistoryTTL      time.Duration `env:"HISTORY_TTL,default=60s"`
	ResolveTTL      time.Duration `env:"RESOLVE_TTL,default=10m"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES,default=512"`

	CheckInterval time.Duration `env:"CHECK_INTERVAL,default=60s"`

	ShockThreshold15m float64 `env:"SHOCK_THRESHOLD_15M,default=1.5"`
	ShockThreshold1h  float64 `env:"SHOCK_THRESHOLD_1H,default=3.0"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
