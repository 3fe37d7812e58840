package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iot-project/rack-wagon-service/internal/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr                  string        `yaml:"addr"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	RequestTimeout        time.Duration `yaml:"-"`
	MaxBodyBytes          int64         `yaml:"max_body_bytes"`
	RateLimitPerSec       float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst        int           `yaml:"rate_limit_burst"`
	CorsAllowedOrigins    []string      `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the MongoDB connection configuration.
type DatabaseConfig struct {
	URI                string `yaml:"uri"`
	Name               string `yaml:"name"`
	RackCollection     string `yaml:"rack_collection"`
	SettingsCollection string `yaml:"settings_collection"`
	AppendMaxRetries   int    `yaml:"append_max_retries"`
}

// ArchiveConfig configures the optional S3 archive written before a delete.
// Leaving Bucket empty disables archiving.
type ArchiveConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type LoggingConfig struct {
	CrashDir      string `yaml:"crash_dir"`
	MaxRecentLogs int    `yaml:"max_recent_logs"`
}

// Load builds the configuration from, in increasing precedence, the built in
// defaults, the YAML file named by CONFIG_PATH and the environment. envFile is
// loaded into the environment first when it exists.
func Load(envFile string) (*Config, error) {
	logger := logging.GetLogger()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error loading %s: %w", envFile, err)
			}
			logger.Warnf("no %s file found, using the process environment", envFile)
		}
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		logger.Infof("configuration loaded from %s", path)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.Database.URI == "" {
		return nil, errors.New("could not get mongodb uri, set MONGODB_URI")
	}
	if cfg.Archive.Bucket != "" && cfg.Archive.Region == "" {
		return nil, errors.New("could not get aws region, set AWS_REGION when AWS_S3_ARCHIVE_BUCKET is set")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.Database.URI, "MONGODB_URI")
	setString(&cfg.Database.Name, "MONGODB_DATABASE")
	setString(&cfg.Database.RackCollection, "RACK_COLLECTION")
	setString(&cfg.Database.SettingsCollection, "SETTINGS_COLLECTION")
	setString(&cfg.Archive.Region, "AWS_REGION")
	setString(&cfg.Archive.Bucket, "AWS_S3_ARCHIVE_BUCKET")
	setString(&cfg.Archive.Prefix, "AWS_S3_ARCHIVE_PREFIX")
	setString(&cfg.Archive.AccessKey, "AWS_ACCESS_KEY")
	setString(&cfg.Archive.SecretKey, "AWS_SECRET_KEY")
	setString(&cfg.Logging.CrashDir, "CRASH_LOG_DIR")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := []string{}
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.Server.CorsAllowedOrigins = origins
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REQUEST_TIMEOUT_SECONDS", &cfg.Server.RequestTimeoutSeconds},
		{"RATE_LIMIT_BURST", &cfg.Server.RateLimitBurst},
		{"APPEND_MAX_RETRIES", &cfg.Database.AppendMaxRetries},
		{"MAX_RECENT_LOGS", &cfg.Logging.MaxRecentLogs},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
			}
			*i.dst = n
		}
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_BODY_BYTES %q: %w", v, err)
		}
		cfg.Server.MaxBodyBytes = n
	}

	if v := os.Getenv("RATE_LIMIT_PER_SEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_PER_SEC %q: %w", v, err)
		}
		cfg.Server.RateLimitPerSec = f
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	cfg.Server.RequestTimeout = time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if len(cfg.Server.CorsAllowedOrigins) == 0 {
		cfg.Server.CorsAllowedOrigins = []string{"*"}
	}

	if cfg.Database.Name == "" {
		cfg.Database.Name = "iot_project"
	}
	if cfg.Database.RackCollection == "" {
		cfg.Database.RackCollection = "rack_wagons"
	}
	if cfg.Database.SettingsCollection == "" {
		cfg.Database.SettingsCollection = "settings"
	}
	if cfg.Database.AppendMaxRetries <= 0 {
		cfg.Database.AppendMaxRetries = 5
	}

	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "rack_wagons"
	}

	if cfg.Logging.CrashDir == "" {
		cfg.Logging.CrashDir = logging.DefaultCrashDir
	}
	if cfg.Logging.MaxRecentLogs <= 0 {
		cfg.Logging.MaxRecentLogs = logging.DefaultMaxLogs
	}
}
