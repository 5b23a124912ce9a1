package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "BOOKS"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string         `yaml:"git_commit" envconfig:"BOOKS_GIT_COMMIT"`
	GitTag             string         `yaml:"git_tag" envconfig:"BOOKS_GIT_TAG"`
	BuildTime          string         `yaml:"build_time" envconfig:"BOOKS_BUILD_TIME"`
	IsProduction       bool           `yaml:"is_production" envconfig:"BOOKS_IS_PRODUCTION"`
	LogLevel           zapcore.Level  `yaml:"log_level" envconfig:"BOOKS_LOG_LEVEL"`
	LogFolder          string         `yaml:"log_folder" envconfig:"BOOKS_LOG_FOLDER"`
	LogMaxSize         int            `yaml:"log_max_size" envconfig:"BOOKS_LOG_MAX_SIZE"`
	OpsEndpointsEnable bool           `yaml:"ops_endpoints_enable" envconfig:"BOOKS_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig   `yaml:"server"`
	Database           DatabaseConfig `yaml:"database"`
	CORS               CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BOOKS_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BOOKS_SERVER_PORT"`
	BasePath        string        `yaml:"base_path" envconfig:"BOOKS_SERVER_BASE_PATH"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BOOKS_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BOOKS_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BOOKS_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BOOKS_SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig holds the postgres connection and pool settings. The connection
// variables keep their historical unprefixed names (DB_USERNAME, DB_HOST...).
// The qualified BOOKS_DATABASE_DB_* names win when both are set.
type DatabaseConfig struct {
	Username        string        `yaml:"username" envconfig:"DB_USERNAME"`
	Password        string        `yaml:"password" envconfig:"DB_PASSWORD" json:"-"`
	Host            string        `yaml:"host" envconfig:"DB_HOST"`
	Port            string        `yaml:"port" envconfig:"DB_PORT"`
	Name            string        `yaml:"name" envconfig:"DB_NAME"`
	SSLMode         string        `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	PoolSize        int           `yaml:"pool_size" envconfig:"DB_POOL_SIZE"`
	MaxOverflow     int           `yaml:"max_overflow" envconfig:"DB_MAX_OVERFLOW"`
	RecycleInterval time.Duration `yaml:"recycle_interval" envconfig:"DB_RECYCLE_INTERVAL"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" envconfig:"DB_CONNECT_TIMEOUT"`
	BulkBatchSize   int           `yaml:"bulk_batch_size" envconfig:"DB_BULK_BATCH_SIZE"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" envconfig:"DB_SLOW_THRESHOLD"`
	LogQueries      bool          `yaml:"log_queries" envconfig:"DB_LOG_QUERIES"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" envconfig:"BOOKS_CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods" envconfig:"BOOKS_CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string `yaml:"allowed_headers" envconfig:"BOOKS_CORS_ALLOWED_HEADERS"`
	AllowCredentials *bool    `yaml:"allow_credentials" envconfig:"BOOKS_CORS_ALLOW_CREDENTIALS"`
}

type missingConfigError string

func (m missingConfigError) Error() string {
	return "missing required configuration " + string(m)
}

// LoadConfigFile provides an instance of config structure for the all application.
// A missing file is not an error: the service can be configured from the
// environment only.
func LoadConfigFile(configFile string) (*Config, error) {
	cfg := &Config{}
	file, err := os.Open(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters, configures
// build tags values to be used if provided then validates required settings.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	setDefaults(config)

	var errs []error
	if len(config.Database.Username) == 0 {
		errs = append(errs, missingConfigError("DB_USERNAME"))
	}

	if len(config.Database.Password) == 0 {
		errs = append(errs, missingConfigError("DB_PASSWORD"))
	}

	if len(config.Database.Host) == 0 {
		errs = append(errs, missingConfigError("DB_HOST"))
	}

	return errors.Join(errs...)
}

func setDefaults(config *Config) {
	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}
	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	s := &config.Server
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == "" {
		s.Port = "8000"
	}
	if s.BasePath == "" {
		s.BasePath = "/books"
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 10 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 15 * time.Second
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 10 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}

	db := &config.Database
	if db.Port == "" {
		db.Port = "5432"
	}
	if db.Name == "" {
		db.Name = "postgres"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.PoolSize <= 0 {
		db.PoolSize = 5
	}
	if db.MaxOverflow < 0 {
		db.MaxOverflow = 0
	} else if db.MaxOverflow == 0 {
		db.MaxOverflow = 10
	}
	if db.RecycleInterval == 0 {
		db.RecycleInterval = 30 * time.Minute
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = 5 * time.Second
	}
	if db.BulkBatchSize <= 0 {
		db.BulkBatchSize = 100
	}
	if db.SlowThreshold == 0 {
		db.SlowThreshold = 200 * time.Millisecond
	}

	c := &config.CORS
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"*"}
	}
	if c.AllowCredentials == nil {
		allow := true
		c.AllowCredentials = &allow
	}
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(DefaultConfigFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	// Set the environment configuration. Already exported variables win.
	err = godotenv.Load(DefaultEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	// Use environment variables with prefix `BOOKS`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}
