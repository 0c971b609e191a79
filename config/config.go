package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadEnv loads variables from .env once per process. A missing file is fine
// in deployed environments where the variables come from the platform.
func LoadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using process environment")
		}
	})
}

type Config struct {
	App      App      `yaml:"app"`
	HTTP     HTTP     `yaml:"http"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Mail     Mail     `yaml:"mail"`
	Auth     Auth     `yaml:"auth"`
	Booking  Booking  `yaml:"booking"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"travel-booking"`
}

type HTTP struct {
	Port           string   `yaml:"port" env:"PORT" env-default:"8081"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type Postgres struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type Redis struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"booking-events"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"booking-notifier"`

	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size" env:"OUTBOX_BATCH_SIZE" env-default:"100"`
	ClaimLease   time.Duration `yaml:"claim_lease" env:"OUTBOX_CLAIM_LEASE" env-default:"10m"`
}

type Mail struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"FROM_EMAIL" env-default:"bookings@localhost"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type Booking struct {
	StoreDriver        string        `yaml:"store_driver" env:"STORE_DRIVER" env-default:"postgres"`
	CancellationWindow time.Duration `yaml:"cancellation_window" env:"CANCELLATION_WINDOW" env-default:"12h"`
	MaxGuests          int           `yaml:"max_guests" env:"MAX_GUESTS" env-default:"8"`
	BadWordsFile       string        `yaml:"bad_words_file" env:"BAD_WORDS_FILE" env-default:"badwords/en.txt"`
	// CatalogSeedFile fills the catalog when StoreDriver is memory, which
	// has no other way to add destinations, packages or offers.
	CatalogSeedFile string `yaml:"catalog_seed_file" env:"CATALOG_SEED_FILE"`
}

// New reads config.yaml when it exists and lets environment variables
// override it; without the file only the environment is used.
func New() (*Config, error) {
	LoadEnv()

	cfg := &Config{}
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	if cfg.Booking.StoreDriver != "postgres" && cfg.Booking.StoreDriver != "memory" {
		return nil, fmt.Errorf("config error: unknown STORE_DRIVER %q", cfg.Booking.StoreDriver)
	}
	if cfg.Booking.StoreDriver == "postgres" && cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("config error: DATABASE_URL not set")
	}
	return cfg, nil
}
