package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// export defaults
	EXPORT_OUTPUT_PATH string
	EXPORT_SHEET_NAME  string
	EXPORT_LOCALE      string
	// http server
	HTTP_LISTEN_ADDR   string
	HTTP_READ_TIMEOUT  time.Duration
	HTTP_WRITE_TIMEOUT time.Duration
	// database source
	DB_DSN string
	// elasticsearch source
	ES_URL   string
	ES_INDEX string
	// google datastore source
	DATASTORE_PROJECT_ID string
	// logger
	LOG_FILE_PATH string
	LOG_DEBUG     bool
}

// LoadEnvConfig loads .env (when present) and materializes the typed
// configuration. A missing .env file is not an error; the process
// environment alone is enough.
func LoadEnvConfig() error {
	_ = godotenv.Load()

	DefaultEnvConfig = &envConfig{
		EXPORT_OUTPUT_PATH:   getEnvString("EXPORT_OUTPUT_PATH", "export.xlsx"),
		EXPORT_SHEET_NAME:    getEnvString("EXPORT_SHEET_NAME", "Sheet1"),
		EXPORT_LOCALE:        getEnvString("EXPORT_LOCALE", ""),
		HTTP_LISTEN_ADDR:     getEnvString("HTTP_LISTEN_ADDR", ":8080"),
		HTTP_READ_TIMEOUT:    getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTP_WRITE_TIMEOUT:   getEnvDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
		DB_DSN:               getEnvString("DB_DSN", ""),
		ES_URL:               getEnvString("ES_URL", "http://localhost:9200"),
		ES_INDEX:             getEnvString("ES_INDEX", ""),
		DATASTORE_PROJECT_ID: getEnvString("DATASTORE_PROJECT_ID", ""),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_DEBUG:            getEnvBool("LOG_DEBUG", false),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
