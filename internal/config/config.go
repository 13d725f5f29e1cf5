package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	Enabled         bool
}

// WhatsAppConfig drives the Cloud API client and its health monitor.
type WhatsAppConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryInterval time.Duration
	MaxRetries    int

	HealthInterval time.Duration
	HealthJitter   time.Duration
	HealthWindow   int

	WebhookVerifyToken string
}

// AutomationConfig controls the cron-triggered collection job.
type AutomationConfig struct {
	SendDelay time.Duration
}

type AppConfig struct {
	Port        string
	ExternalURL string

	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config

	WhatsApp   WhatsAppConfig
	Automation AutomationConfig

	ReportDir         string
	FilesPublicPrefix string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func seconds(key, def string) time.Duration {
	return time.Duration(mustAtoi(getenv(key, def))) * time.Second
}

func Load() AppConfig {
	return AppConfig{
		Port:        getenv("APP_PORT", "8010"),
		ExternalURL: getenv("EXTERNAL_URL", ""),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "debtwise"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "debtwise"),
		},
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "reports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:            getenv("WA_API_BASE_URL", "https://graph.facebook.com/v17.0"),
			Timeout:            seconds("WA_TIMEOUT", "15"),
			RetryInterval:      seconds("WA_RETRY_INTERVAL", "5"),
			MaxRetries:         mustAtoi(getenv("WA_MAX_RETRIES", "3")),
			HealthInterval:     seconds("WA_HEALTH_INTERVAL", "60"),
			HealthJitter:       seconds("WA_HEALTH_JITTER", "5"),
			HealthWindow:       mustAtoi(getenv("WA_HEALTH_WINDOW", "50")),
			WebhookVerifyToken: getenv("WA_WEBHOOK_VERIFY_TOKEN", ""),
		},
		Automation: AutomationConfig{
			SendDelay: seconds("AUTOMATION_SEND_DELAY", "2"),
		},
		ReportDir:         getenv("REPORT_DIR", "./reports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
	}
}
