package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type S3Config struct {
	EndpointURL string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
}

type Config struct {
	DatabaseURL string
	RedisURL    string
	S3          S3Config

	// Gemini-backed structured extraction and embeddings. Extraction can
	// degrade to heuristics, embeddings cannot, so the workers require it.
	GeminiAPIKey string

	APIAddr     string
	WorkerCount int

	// Retry policy for transient stage failures.
	MaxAttempts int
	RetryBase   time.Duration
	TaskTimeout time.Duration

	LogJSON  bool
	LogDebug bool
}

// Load reads configuration from the environment, with a .env file as an
// optional convenience for local runs.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded, using environment variables")
	}

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		S3: S3Config{
			EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
			Region:      getenv("S3_REGION", "us-east-1"),
			AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			SecretKey:   os.Getenv("S3_SECRET_KEY"),
			Bucket:      getenv("S3_BUCKET_NAME", "resumes"),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		APIAddr:      getenv("API_ADDR", ":8080"),
		WorkerCount:  getint("WORKER_COUNT", 4),
		MaxAttempts:  getint("MAX_ATTEMPTS", 3),
		RetryBase:    getduration("RETRY_BASE", time.Second),
		TaskTimeout:  getduration("TASK_TIMEOUT", 2*time.Minute),
		LogJSON:      getbool("LOG_JSON", true),
		LogDebug:     getbool("LOG_DEBUG", false),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return b
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
