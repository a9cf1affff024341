package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs. Values are supplied once at
// startup; nothing reloads mid-session.
type Config struct {
	Addr string

	Mebbis struct {
		Username    string
		Password    string
		Headless    bool
		TimeoutMS   int
		DevToolsURL string // attach to an already running browser instead of launching
		ChromePath  string
		DebugPort   int
	}

	Database struct {
		DSN string
	}

	Log struct {
		Level   string
		Writers []string
		File    string
	}

	BatchDelayMS int
}

// New returns the defaults used when an env key is absent.
func New() *Config {
	cfg := &Config{Addr: ":4000", BatchDelayMS: 1000}
	cfg.Mebbis.Headless = true
	cfg.Mebbis.TimeoutMS = 30000
	cfg.Mebbis.ChromePath = "chromium"
	cfg.Mebbis.DebugPort = 9222
	cfg.Database.DSN = "mebbis-jobs.sqlite3"
	cfg.Log.Level = "info"
	cfg.Log.Writers = []string{"console", "file"}
	cfg.Log.File = "logs/mebbis-service.log"
	return cfg
}

// Load reads .env (when present) and the process environment over the
// defaults. Credentials are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.Mebbis.Username = os.Getenv("MEBBIS_USERNAME")
	cfg.Mebbis.Password = os.Getenv("MEBBIS_PASSWORD")
	if cfg.Mebbis.Username == "" || cfg.Mebbis.Password == "" {
		return nil, fmt.Errorf("MEBBIS_USERNAME ve MEBBIS_PASSWORD gerekli")
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		cfg.Mebbis.Headless = v != "false"
	}
	if v := os.Getenv("BROWSER_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BROWSER_TIMEOUT: %w", err)
		}
		cfg.Mebbis.TimeoutMS = ms
	}
	if v := os.Getenv("DEVTOOLS_URL"); v != "" {
		cfg.Mebbis.DevToolsURL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Mebbis.ChromePath = v
	}
	if v := os.Getenv("CHROME_DEBUG_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CHROME_DEBUG_PORT: %w", err)
		}
		cfg.Mebbis.DebugPort = port
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_WRITERS"); v != "" {
		cfg.Log.Writers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("BATCH_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BATCH_DELAY_MS: %w", err)
		}
		cfg.BatchDelayMS = ms
	}
	return cfg, nil
}
