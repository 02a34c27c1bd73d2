package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string `env:"DB_HOST"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBURL      string `env:"DB_URL"`

	AppPort    string `env:"APP_PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	JWTSecret  string `env:"JWT_SECRET"`

	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
	InternalSecretKey string `env:"INTERNAL_SECRET_KEY"`

	PayChanguSecretKey     string `env:"PAYCHANGU_SECRET_KEY"`
	PayChanguWebhookSecret string `env:"PAYCHANGU_WEBHOOK_SECRET"`
	PayChanguBaseURL       string `env:"PAYCHANGU_BASE_URL" envDefault:"https://api.paychangu.com"`
	// Only honoured outside production.
	AllowTestSignature bool `env:"PAYCHANGU_ALLOW_TEST_SIGNATURE" envDefault:"false"`

	VerificationCodeTTL    time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	VerificationSweepEvery time.Duration `env:"VERIFICATION_SWEEP_INTERVAL" envDefault:"5m"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TestSignatureAllowed reports whether the webhook test-signature bypass may be used.
func (c *Config) TestSignatureAllowed() bool {
	return c.AllowTestSignature && !c.IsProduction()
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	if cfg.DBHost == "" && cfg.DBURL == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// Parse reads the environment without the fatal checks of LoadConfig.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
