package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGitHub   = "github"
	BackendPostgres = "postgres"
)

type GitHubConfig struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
	Path   string
	APIURL string
}

type Config struct {
	AppEnv string
	Port   int

	// Event dates and times in the club document are wall-clock values in this zone.
	ClubLocation *time.Location

	// State persistence
	StoreBackend    string
	GitHub          GitHubConfig
	DBDSN           string
	LocalMirrorPath string

	// JWT verification (must match the issuer's signing config)
	JWTSecret string
	JWTIssuer string

	// Redis (rate limit + BGG cache). Empty address disables it.
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Rate limit
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// RabbitMQ
	PublishEnabled bool
	RabbitURL      string
	RabbitExchange string

	// BoardGameGeek
	BGGAPIURL   string
	BGGCacheTTL time.Duration

	// Background sweeper: pending sync retry + auto promotion
	SweepInterval time.Duration

	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getInt("PORT", 8080)

	tz := getEnv("CLUB_TIMEZONE", "Europe/Paris")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid CLUB_TIMEZONE %q: %w", tz, err)
	}
	cfg.ClubLocation = loc

	// --- Persistence
	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", BackendGitHub))
	cfg.GitHub = GitHubConfig{
		Token:  getEnv("GITHUB_TOKEN", ""),
		Owner:  getEnv("GITHUB_OWNER", ""),
		Repo:   getEnv("GITHUB_REPO", ""),
		Branch: getEnv("GITHUB_BRANCH", "main"),
		Path:   getEnv("GITHUB_PATH", "data/data.json"),
		APIURL: strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL != "" {
		cfg.DBDSN = dbURL
	} else {
		addr := getEnv("POSTGRES_ADDR", "")
		user := getEnv("POSTGRES_USER", "")
		pass := getEnv("POSTGRES_PASSWORD", "")
		db := getEnv("POSTGRES_DB", "")
		sslmode := getEnv("POSTGRES_SSLMODE", "disable")
		cfg.DBDSN = buildPostgresURL(addr, user, pass, db, sslmode)
	}
	cfg.LocalMirrorPath = getEnv("LOCAL_MIRROR_PATH", "")

	// --- JWT
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	// --- Redis
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	// --- Rate limit
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_REQUESTS_LIMIT", 100)
	cfg.RLWindow = time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second

	// --- RabbitMQ (RABBIT_* accepted for compatibility with the other services)
	cfg.PublishEnabled = getBool("PUBLISH_ENABLED", false)
	cfg.RabbitURL = firstNonEmpty(
		strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		strings.TrimSpace(os.Getenv("RABBIT_URL")),
	)
	cfg.RabbitExchange = firstNonEmpty(
		strings.TrimSpace(os.Getenv("RABBITMQ_EXCHANGE")),
		strings.TrimSpace(os.Getenv("RABBIT_EXCHANGE")),
		"club.events",
	)

	// --- BGG
	cfg.BGGAPIURL = strings.TrimRight(getEnv("BGG_API_URL", "https://boardgamegeek.com/xmlapi2"), "/")
	cfg.BGGCacheTTL = getDuration("BGG_CACHE_TTL", 24*time.Hour)

	cfg.SweepInterval = getDuration("PROMOTION_SWEEP_INTERVAL", 5*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// --- Validation
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	switch cfg.StoreBackend {
	case BackendGitHub:
		if cfg.GitHub.Token == "" || cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
			return nil, fmt.Errorf("missing github config: provide GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO")
		}
	case BackendPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("missing database config: provide DATABASE_URL or POSTGRES_ADDR/POSTGRES_USER/POSTGRES_PASSWORD/POSTGRES_DB")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (want github or postgres)", cfg.StoreBackend)
	}
	if cfg.PublishEnabled && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBITMQ_URL (required when PUBLISH_ENABLED)")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("PROMOTION_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}

// buildPostgresURL builds a safe postgres URL DSN (handles special characters).
func buildPostgresURL(addr, user, pass, db, sslmode string) string {
	if strings.TrimSpace(addr) == "" || strings.TrimSpace(user) == "" || strings.TrimSpace(db) == "" {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   strings.TrimSpace(addr),
		Path:   "/" + strings.TrimPrefix(strings.TrimSpace(db), "/"),
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}

	q := url.Values{}
	if strings.TrimSpace(sslmode) != "" {
		q.Set("sslmode", strings.TrimSpace(sslmode))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		panic(fmt.Errorf("invalid boolean env %s=%q", k, v))
	}
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
