package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	defaultConfigPath = "./config/config.yaml"
	minJWTExpiration  = 1000
)

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	Security     `yaml:"security"`
	Verification `yaml:"verification"`
	Encryption   `yaml:"encryption"`
	RabbitMQ     `yaml:"rabbitmq"`
	Postgres     `yaml:"postgres"`
	Redis        `yaml:"redis"`
	HTTPServer   `yaml:"http_server"`
	Metrics      `yaml:"metrics"`
	SMTP         `yaml:"smtp"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

// DSN formats the connection string for pgxpool.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User),
		url.QueryEscape(p.Password),
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Address  string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"redis:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env-default:"0"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// Security holds the token signing material. The secret is Base64 encoded
// and the expiration is expressed in milliseconds.
type Security struct {
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTExpiration int64  `yaml:"jwt_expiration" env:"JWT_EXPIRATION" env-default:"3600000"`
}

func (s Security) TokenTTL() time.Duration {
	return time.Duration(s.JWTExpiration) * time.Millisecond
}

type Verification struct {
	CodeLength int           `yaml:"code_length" env-default:"6"`
	CodeTTL    time.Duration `yaml:"code_ttl" env-default:"15m"`
	ExposeCode bool          `yaml:"expose_code" env:"VERIFICATION_EXPOSE_CODE" env-default:"false"`
}

type Encryption struct {
	Key string `yaml:"key" env:"ENCRYPTION_KEY" env-required:"true"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"verification_emails"`
}

type Metrics struct {
	Address string `yaml:"address" env:"METRICS_ADDRESS" env-default:"localhost:9090"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// Sender is the From address. It falls back to the SMTP login.
func (s SMTP) Sender() string {
	if s.From != "" {
		return s.From
	}
	return s.Username
}

// MailerConfig is the subset read by mail_sender. It carries no signing or
// database secrets.
type MailerConfig struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	SMTP     `yaml:"smtp"`
}

// MustLoad reads the file named by CONFIG_PATH (or the default path) and
// panics when it is missing or invalid.
func MustLoad() *Config {
	cfg, err := Load(configPath())
	if err != nil {
		panic(err)
	}

	return cfg
}

func MustLoadMailer() *MailerConfig {
	cfg, err := LoadMailer(configPath())
	if err != nil {
		panic(err)
	}

	return cfg
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	return defaultConfigPath
}

func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to read config: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func LoadMailer(configPath string) (*MailerConfig, error) {
	const op = "config.LoadMailer"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg MailerConfig

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to read config: %w", op, err)
	}

	if cfg.SMTP.Sender() == "" {
		return nil, fmt.Errorf("%s: smtp.from or smtp.username must be set", op)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := base64.StdEncoding.DecodeString(c.Security.JWTSecret); err != nil {
		return fmt.Errorf("security.jwt_secret must be base64: %w", err)
	}

	// exp has one-second resolution, so a shorter lifetime mints dead tokens
	if c.Security.JWTExpiration < minJWTExpiration {
		return fmt.Errorf("security.jwt_expiration must be at least %d ms, got %d", minJWTExpiration, c.Security.JWTExpiration)
	}

	if c.Verification.CodeLength <= 0 {
		return fmt.Errorf("verification.code_length must be positive, got %d", c.Verification.CodeLength)
	}

	return nil
}
