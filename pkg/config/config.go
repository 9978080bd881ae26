package config

import (
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret string
	Port      string

	// DatabaseDSN selects MySQL when set; empty means local sqlite file.
	DatabaseDSN  string
	DatabaseFile string

	// RedisAddr enables the cross-instance DM fan-out bridge when set.
	RedisAddr     string
	RedisPassword string

	AllowedOrigins []string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	UserCacheTTLSeconds    int
	UserCacheMaxItems      int

	UploadBasePath string
	UploadBaseURL  string
)

// loadAppEnv loads .env for non-production environments only; production
// reads from the host environment. A missing .env is fine, the host env
// still applies (tests run without one).
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	DatabaseDSN = os.Getenv("DATABASE_DSN")
	DatabaseFile = os.Getenv("DATABASE_FILE")
	if DatabaseFile == "" {
		DatabaseFile = "app.db"
	}

	RedisAddr = os.Getenv("REDIS_ADDR")
	RedisPassword = os.Getenv("REDIS_PASSWORD")

	origins := os.Getenv("ALLOWED_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			AllowedOrigins = append(AllowedOrigins, o)
		}
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	UserCacheTTLSeconds = atoiOr(os.Getenv("USER_CACHE_TTL_SECONDS"), 300)
	UserCacheMaxItems = atoiOr(os.Getenv("USER_CACHE_MAX_ITEMS"), 500)

	UploadBasePath = envOr("UPLOAD_BASE_PATH", "./uploads/attachments")
	UploadBaseURL = envOr("UPLOAD_BASE_URL", "http://127.0.0.1:"+Port+"/uploads/attachments")

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] DatabaseDSNPresent=%v RedisAddrPresent=%v", DatabaseDSN != "", RedisAddr != "")
	log.Printf("[config] RateLimit window=%ds capacity=%d userCacheTTL=%ds userCacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, UserCacheTTLSeconds, UserCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
