package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
	ReportingCurrency string        `env:"REPORTING_CURRENCY" envDefault:"EUR"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Telegram struct {
	Token      string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug   bool          `env:"API_DEBUG"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// Relay hosts tried in order after a direct request; %s receives the
	// url-encoded target.
	CorsProxies []string `env:"API_CORS_PROXIES" envSeparator:"," envDefault:"https://corsproxy.io/?%s,https://api.allorigins.win/raw?url=%s,https://thingproxy.freeboard.io/fetch/%s"`

	CryptoCompare CryptoCompareApi
	Coinbase      CoinbaseApi
	CoinGecko     CoinGeckoApi
	Finnhub       FinnhubApi
	Yahoo         YahooApi
}

type CryptoCompareApi struct {
	Url string `env:"CRYPTOCOMPARE_API_URL" envDefault:"https://min-api.cryptocompare.com"`
}

type CoinbaseApi struct {
	Url string `env:"COINBASE_API_URL" envDefault:"https://api.coinbase.com"`
}

type CoinGeckoApi struct {
	Url string `env:"COINGECKO_API_URL" envDefault:"https://api.coingecko.com"`
}

type FinnhubApi struct {
	Url   string `env:"FINNHUB_API_URL" envDefault:"https://finnhub.io"`
	Token string `env:"FINNHUB_API_TOKEN" envDefault:""`
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL" envDefault:"https://query1.finance.yahoo.com"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"10s"`
}

type Jobs struct {
	RefreshPricesInterval time.Duration `env:"REFRESH_PRICES_JOB_INTERVAL" envDefault:"60s"`
	DriveCleanupCrontab   string        `env:"DRIVE_CLEANUP_JOB_CRONTAB" envDefault:"0 3 * * *"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"168h"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
