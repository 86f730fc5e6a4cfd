package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr       string
	PublicAddr string
	ContentDir string
	CORSOrigin string
	// API_KEYS holds plain keys or bcrypt hashes, comma separated
	APIKeys []string
	// Storage backend: fs (ContentDir) or s3
	StorageBackend string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3UseSSL       bool
	// Redis - optional, enables the cross-process write lock
	RedisURL string
	LockTTL  time.Duration
	LogLevel string
	LogJSON  bool
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8787"),
		PublicAddr:     lookupenv("PUBLIC_ADDR", ":8788"),
		ContentDir:     getenv("CONTENT_DIR", "./data/content"),
		CORSOrigin:     getenv("CORS_ORIGIN", "*"),
		APIKeys:        getenvList("API_KEYS"),
		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", "fs")),
		S3Endpoint:     getenv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:    getenv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getenv("S3_SECRET_KEY", ""),
		S3Bucket:       getenv("S3_BUCKET", "inkwell"),
		S3Region:       getenv("S3_REGION", ""),
		S3UseSSL:       getenvBool("S3_USE_SSL", false),
		RedisURL:       getenv("REDIS_URL", ""),
		LockTTL:        time.Duration(getenvInt("LOCK_TTL_SECONDS", 10)) * time.Second,
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogJSON:        getenvBool("LOG_JSON", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// lookupenv distinguishes an unset variable from one set to empty, which
// callers use to switch a listener off.
func lookupenv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(value)
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
