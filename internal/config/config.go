// Package config assembles the service configuration from defaults, an
// optional JSON file, the environment (including a .env file) and the
// command line, in increasing order of priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the tracker.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"omitempty,storagepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	MongoURI            string        `env:"MONGO_URI" validate:"omitempty,startswith=mongodb"`
	MongoDatabase       string        `env:"MONGO_DATABASE" validate:"required"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	PublicDir           string        `env:"PUBLIC_DIR"`
	IndexFile           string        `env:"INDEX_FILE"`
	MetricsEnabled      bool          `env:"METRICS_ENABLED"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ConfigFile          string        `env:"CONFIG"`
}

// fileConfig is the layout of the JSON configuration file.
type fileConfig struct {
	RunAddr             string   `json:"server_address"`
	GRPCAddr            string   `json:"grpc_address"`
	LogLevel            string   `json:"log_level"`
	DBFileName          string   `json:"file_storage_path"`
	DatabaseDSN         string   `json:"database_dsn"`
	MongoURI            string   `json:"mongo_uri"`
	MongoDatabase       string   `json:"mongo_database"`
	DBConnectionTimeout string   `json:"db_connection_timeout"`
	MigrationsDir       string   `json:"migrations_dir"`
	PublicDir           string   `json:"public_dir"`
	IndexFile           string   `json:"index_file"`
	MetricsEnabled      *bool    `json:"metrics_enabled"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins"`
}

var defaultConfig = Config{
	RunAddr:             ":3000",
	GRPCAddr:            "",
	LogLevel:            "info",
	DBFileName:          "",
	DatabaseDSN:         "",
	MongoURI:            "",
	MongoDatabase:       "exercise-track",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/tracker/migrations",
	PublicDir:           "public",
	IndexFile:           "views/index.html",
	MetricsEnabled:      true,
	CORSAllowedOrigins:  []string{"*"},
}

var allowedLogLevels = map[string]bool{
	"debug":  true,
	"info":   true,
	"warn":   true,
	"error":  true,
	"dpanic": true,
	"panic":  true,
	"fatal":  true,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
	values.CORSAllowedOrigins = append([]string(nil), defaults.CORSAllowedOrigins...)
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var cliValues Config
	setFlags := map[string]bool{}
	if !options.disableFlagsParsing {
		if err := parseFlags(&cliValues, setFlags); err != nil {
			return nil, err
		}
	}

	configFile := os.Getenv("CONFIG")
	if setFlags["c"] {
		configFile = cliValues.ConfigFile
	}
	if configFile != "" {
		if err := values.applyJSONFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	values.applyFlags(&cliValues, setFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func parseFlags(cliValues *Config, setFlags map[string]bool) error {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.StringVar(&cliValues.RunAddr, "a", "", "address and port to run the HTTP server")
	flags.StringVar(&cliValues.GRPCAddr, "g", "", "address and port to run the gRPC server")
	flags.StringVar(&cliValues.LogLevel, "l", "", "logger level")
	flags.StringVar(&cliValues.DBFileName, "f", "", "JSON file name with database")
	flags.StringVar(&cliValues.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flags.StringVar(&cliValues.MongoURI, "m", "", "MongoDB connection URI")
	flags.StringVar(&cliValues.ConfigFile, "c", "", "JSON configuration file")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	flags.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	return nil
}

func (c *Config) applyFlags(cliValues *Config, setFlags map[string]bool) {
	if setFlags["a"] {
		c.RunAddr = cliValues.RunAddr
	}
	if setFlags["g"] {
		c.GRPCAddr = cliValues.GRPCAddr
	}
	if setFlags["l"] {
		c.LogLevel = cliValues.LogLevel
	}
	if setFlags["f"] {
		c.DBFileName = cliValues.DBFileName
	}
	if setFlags["d"] {
		c.DatabaseDSN = cliValues.DatabaseDSN
	}
	if setFlags["m"] {
		c.MongoURI = cliValues.MongoURI
	}
	if setFlags["c"] {
		c.ConfigFile = cliValues.ConfigFile
	}
}

func (c *Config) applyJSONFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	var fromFile fileConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}

	c.ConfigFile = fileName
	setIfNotEmpty(&c.RunAddr, fromFile.RunAddr)
	setIfNotEmpty(&c.GRPCAddr, fromFile.GRPCAddr)
	setIfNotEmpty(&c.LogLevel, fromFile.LogLevel)
	setIfNotEmpty(&c.DBFileName, fromFile.DBFileName)
	setIfNotEmpty(&c.DatabaseDSN, fromFile.DatabaseDSN)
	setIfNotEmpty(&c.MongoURI, fromFile.MongoURI)
	setIfNotEmpty(&c.MongoDatabase, fromFile.MongoDatabase)
	setIfNotEmpty(&c.MigrationsDir, fromFile.MigrationsDir)
	setIfNotEmpty(&c.PublicDir, fromFile.PublicDir)
	setIfNotEmpty(&c.IndexFile, fromFile.IndexFile)

	if fromFile.DBConnectionTimeout != "" {
		timeout, err := time.ParseDuration(fromFile.DBConnectionTimeout)
		if err != nil {
			return fmt.Errorf("invalid db_connection_timeout: %w", err)
		}
		c.DBConnectionTimeout = timeout
	}

	if fromFile.MetricsEnabled != nil {
		c.MetricsEnabled = *fromFile.MetricsEnabled
	}

	if len(fromFile.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = fromFile.CORSAllowedOrigins
	}

	return nil
}

func setIfNotEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func validateStoragePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return os.IsNotExist(err)
	}

	return !info.IsDir()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("storagepath", validateStoragePath); err != nil {
		return err
	}

	return validate.Struct(c)
}
