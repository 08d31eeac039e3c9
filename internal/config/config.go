package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPort               = "8080"
	defaultCfApiUrl           = "https://codeforces.com/api"
	defaultCfRequestsPerSec   = 0.5
	defaultVerifyAttempts     = 10
	defaultVerifyIntervalMS   = 2000
	defaultRetentionMonths    = 3
	defaultIngestAt           = "00:00"
	defaultGenerateAt         = "00:05"
	defaultRefreshAt          = "23:30"
	defaultPruneAt            = "Sun 00:10"
	defaultLogLevel           = "info"
	defaultRedisCacheDuration = 6 * time.Hour
)

type Config struct {
	DBURL               string
	Port                string
	ApiURL              string
	RedisURL            string
	RedisCacheDuration  time.Duration
	LogLevel            string
	JWTSecret           string
	AdminPasswordHash   string
	MetricsUser         string
	MetricsPass         string
	SenderEmail         string
	SenderEmailPassword string
	AlertEmails         []string
	CfApiURL            string
	CfRequestsPerSecond float64
	VerifyAttempts      int
	VerifyInterval      time.Duration
	RetentionMonths     int
	IngestFullScan      bool
	IngestAt            string
	GenerateAt          string
	RefreshAt           string
	PruneAt             string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using process environment")
	}

	return &Config{
		DBURL:               os.Getenv("DB_URL"),
		Port:                getOrDefault("PORT", defaultPort),
		ApiURL:              os.Getenv("API_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		RedisCacheDuration:  defaultRedisCacheDuration,
		LogLevel:            getOrDefault("LOG_LEVEL", defaultLogLevel),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		MetricsUser:         os.Getenv("METRICS_USER"),
		MetricsPass:         os.Getenv("METRICS_PASS"),
		SenderEmail:         os.Getenv("SENDER_EMAIL"),
		SenderEmailPassword: os.Getenv("SENDER_EMAIL_PASSWORD"),
		AlertEmails:         splitList(os.Getenv("ALERT_EMAILS")),
		CfApiURL:            getOrDefault("CF_API_URL", defaultCfApiUrl),
		CfRequestsPerSecond: getFloat("CF_REQUESTS_PER_SECOND", defaultCfRequestsPerSec),
		VerifyAttempts:      getInt("VERIFY_ATTEMPTS", defaultVerifyAttempts),
		VerifyInterval:      time.Duration(getInt("VERIFY_INTERVAL_MS", defaultVerifyIntervalMS)) * time.Millisecond,
		RetentionMonths:     getInt("RETENTION_MONTHS", defaultRetentionMonths),
		IngestFullScan:      os.Getenv("INGEST_FULL_SCAN") == "true",
		IngestAt:            getOrDefault("INGEST_AT", defaultIngestAt),
		GenerateAt:          getOrDefault("GENERATE_AT", defaultGenerateAt),
		RefreshAt:           getOrDefault("REFRESH_AT", defaultRefreshAt),
		PruneAt:             getOrDefault("PRUNE_AT", defaultPruneAt),
	}
}

func getOrDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("invalid value %q for %s, using default %d", v, key, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Warnf("invalid value %q for %s, using default %v", v, key, def)
		return def
	}
	return f
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
