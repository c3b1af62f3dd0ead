package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	Tda               Tda
	Nasdaq            Nasdaq
	Acquire           Acquire
	API               API
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"2h"`
	StocksPerPage     int           `env:"STOCKS_PER_PAGE" envDefault:"15"`
}

type Tda struct {
	ApiKey         string `env:"TDA_API_KEY"`
	InstrumentsUrl string `env:"TDA_INSTRUMENTS_URL" envDefault:"https://api.tdameritrade.com/v1/instruments"`
	QuotesUrl      string `env:"TDA_QUOTES_URL" envDefault:"https://api.tdameritrade.com/v1/marketdata/quotes"`
	ProbeSymbol    string `env:"TDA_PROBE_SYMBOL" envDefault:"AAPL"`
}

type Nasdaq struct {
	Url       string   `env:"NASDAQ_API_URL" envDefault:"https://api.nasdaq.com"`
	Exchanges []string `env:"NASDAQ_EXCHANGES" envDefault:"nyse,nasdaq,amex"`
}

type Acquire struct {
	BatchSize          int           `env:"ACQUIRE_BATCH_SIZE" envDefault:"500"`
	MaxQuoteAttempts   int           `env:"ACQUIRE_MAX_QUOTE_ATTEMPTS" envDefault:"10"`
	RetryDelay         time.Duration `env:"ACQUIRE_RETRY_DELAY" envDefault:"250ms"`
	Parallelism        int           `env:"ACQUIRE_PARALLELISM" envDefault:"1"`
	AcceptPartialBatch bool          `env:"ACQUIRE_ACCEPT_PARTIAL_BATCH" envDefault:"false"`
}

type API struct {
	Debug   bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
}

type Postgres struct {
	Enabled         bool   `env:"PG_ENABLED" envDefault:"false"`
	Host            string `env:"PG_HOST" envDefault:"localhost"`
	Port            int    `env:"PG_PORT" envDefault:"5432"`
	DbName          string `env:"PG_DB_NAME" envDefault:"stock_screener"`
	Password        string `env:"PG_PASSWORD" envDefault:""`
	User            string `env:"PG_USER" envDefault:"postgres"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"5"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"./migrations"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT" envDefault:"10s"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES" envDefault:"20971520"`
}

type Redis struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Cache struct {
	UniverseExpiration time.Duration `env:"CACHE_UNIVERSE_EXPIRATION" envDefault:"24h"`
}

type Jobs struct {
	ProgressLogInterval      time.Duration `env:"PROGRESS_LOG_JOB_INTERVAL" envDefault:"5s"`
	EvictSessionsInterval    time.Duration `env:"EVICT_SESSIONS_JOB_INTERVAL" envDefault:"10m"`
	DeleteOldExportsInterval time.Duration `env:"DELETE_OLD_EXPORTS_JOB_INTERVAL" envDefault:"1h"`
}

type GoogleDrive struct {
	Enabled         bool          `env:"GOOGLE_DRIVE_ENABLED" envDefault:"false"`
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"24h"`
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
