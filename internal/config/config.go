// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Paystack                `yaml:"paystack"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	FileStore               `yaml:"file_store"`
	RateLimit               `yaml:"rate_limit"`
	Plans                   []Plan `yaml:"plans"`
	BankDetails             `yaml:"bank_details"`
	Redirects               `yaml:"redirects"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	PublicURL   string        `yaml:"public_url" env-default:"http://localhost:8080"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Paystack настройки платёжного шлюза
type Paystack struct {
	SecretKey   string        `yaml:"secret_key" env:"PAYSTACK_SECRET_KEY"`
	BaseURL     string        `yaml:"base_url" env-default:"https://api.paystack.co"`
	CallbackURL string        `yaml:"callback_url"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
}

// RabbitMQ настройки подключения к брокеру событий
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера воркера уведомлений
type SMTP struct {
	SMTPHost   string `yaml:"host"`
	SMTPPort   string `yaml:"port" env-default:"587"`
	SMTPUser   string `yaml:"user" env:"SMTP_USER"`
	SMTPPass   string `yaml:"pass" env:"SMTP_PASS"`
	AdminEmail string `yaml:"admin_email"`
}

// FileStore настройки хранилища загружаемых квитанций
type FileStore struct {
	Type      string `yaml:"type" env-default:"local"`
	BasePath  string `yaml:"base_path" env-default:"./uploads"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key" env:"FILE_STORE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"FILE_STORE_SECRET_KEY"`
}

// RateLimit ограничения частоты запросов на пользователя, в запросах в минуту
type RateLimit struct {
	InitiatePerMinute int `yaml:"initiate_per_minute" env-default:"10"`
	UploadPerMinute   int `yaml:"upload_per_minute" env-default:"5"`
}

// Plan тарифный план подписки
type Plan struct {
	Code         string  `yaml:"code" json:"code"`
	Name         string  `yaml:"name" json:"name"`
	AmountMinor  int64   `yaml:"amount_minor" json:"amount_minor"`
	ManualAmount float64 `yaml:"manual_amount" json:"manual_amount"`
	DurationDays int     `yaml:"duration_days" json:"duration_days"`
}

// BankDetails реквизиты для ручной оплаты
type BankDetails struct {
	Bank          string `yaml:"bank" json:"bank" env-default:"OPAY"`
	AccountName   string `yaml:"account_name" json:"account_name" env-default:"Ficore Labs"`
	AccountNumber string `yaml:"account_number" json:"account_number" env-default:"1234567890"`
}

// Redirects адреса, на которые отправляет пользователя проверка доступа
type Redirects struct {
	Login                string `yaml:"login" env-default:"/login"`
	Dashboard            string `yaml:"dashboard" env-default:"/api/v1/dashboard"`
	SubscriptionRequired string `yaml:"subscription_required" env-default:"/api/v1/subscribe/required"`
}

// DefaultPlans тарифы по умолчанию: суммы шлюза в копейках (kobo), ручной оплаты в найрах.
func DefaultPlans() []Plan {
	return []Plan{
		{Code: "monthly", Name: "Monthly Plan", AmountMinor: 100000, ManualAmount: 1000, DurationDays: 30},
		{Code: "yearly", Name: "Yearly Plan", AmountMinor: 1000000, ManualAmount: 10000, DurationDays: 365},
	}
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из файла по пути CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Paystack:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"FileStore: %s\n"+
			"Plans: %d\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Paystack.BaseURL,
		c.Paystack.Timeout,
		c.FileStore.Type,
		len(c.Plans),
	)
}
