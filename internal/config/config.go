package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT"        default:":8080"`
	GRPCPort        string        `envconfig:"GRPC_PORT"        default:":50051"`
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT"       default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Store selects "sql" or "memory". Memory keeps everything in process
	// and is meant for local runs.
	Store          string        `envconfig:"STORE"              default:"sql"`
	DBDriver       string        `envconfig:"DB_DRIVER"          default:"mysql"`
	DatabaseDSN    string        `envconfig:"DATABASE_DSN"       default:"root:root@tcp(localhost:3306)/storefront"`
	DBMaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS"  default:"50"`
	DBMaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS"  default:"25"`
	DBConnLifetime time.Duration `envconfig:"DB_CONN_LIFETIME"   default:"5m"`
	SeedRoles      bool          `envconfig:"SEED_ROLES"         default:"true"`
	SeedCatalog    bool          `envconfig:"SEED_CATALOG"       default:"false"`

	// RedisAddr empty keeps the rate cache and idempotency keys in memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"      default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisPoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"100"`

	// AuthMode is "firebase" or "static". Static reads DEV_TOKENS as
	// comma-separated token:uid pairs.
	AuthMode          string `envconfig:"AUTH_MODE"                      default:"firebase"`
	FirebaseProjectID string `envconfig:"FIREBASE_PROJECT_ID"`
	CredentialsFile   string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	DevTokens         string `envconfig:"DEV_TOKENS"`

	// BlobBackend is "gcs" or "memory".
	BlobBackend   string `envconfig:"BLOB_BACKEND"    default:"gcs"`
	ImageBucket   string `envconfig:"IMAGE_BUCKET"    default:"product-images"`
	MemoryBlobURL string `envconfig:"MEMORY_BLOB_URL" default:"http://localhost:8080/images"`

	TRMURL     string        `envconfig:"TRM_URL"`
	TRMTimeout time.Duration `envconfig:"TRM_TIMEOUT" default:"5s"`

	// SimulatePayment exposes checkout-and-pay, which marks orders paid
	// without a payment provider.
	SimulatePayment bool `envconfig:"SIMULATE_PAYMENT" default:"false"`
}

// Load reads an optional .env file and then the environment.
func Load(log logrus.FieldLogger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("error loading .env file (continuing)")
	} else if err == nil {
		log.Info("loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case "sql":
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required when STORE=sql")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}

	switch c.AuthMode {
	case "firebase":
	case "static":
		if c.DevTokens == "" {
			return errors.New("config: DEV_TOKENS is required when AUTH_MODE=static")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.BlobBackend {
	case "gcs", "memory":
	default:
		return fmt.Errorf("config: unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	return nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
