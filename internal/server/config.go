package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Addr           string
	Port           int
	Storage        string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	RequestTimeout time.Duration
	MaxBodyBytes   int
	MigratePath    string
	LogLevel       string
	LogFormat      string
}

const (
	defaultAddr           = "0.0.0.0"
	defaultPort           = 8080
	defaultStorage        = StorageMongo
	defaultMongoDatabase  = "tasks"
	defaultTokenTTL       = time.Hour
	defaultBcryptCost     = 10
	defaultRequestTimeout = 15 * time.Second
	defaultMaxBodyBytes   = 1 << 20
	defaultMigratePath    = "migrations"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

func DefaultConfig() *Config {
	return &Config{
		Addr:           defaultAddr,
		Port:           defaultPort,
		Storage:        defaultStorage,
		MongoDatabase:  defaultMongoDatabase,
		TokenTTL:       defaultTokenTTL,
		BcryptCost:     defaultBcryptCost,
		RequestTimeout: defaultRequestTimeout,
		MaxBodyBytes:   defaultMaxBodyBytes,
		MigratePath:    defaultMigratePath,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

// RegisterFlags adds the configuration flags to flags. Flags only override
// the other sources when they are set explicitly.
func RegisterFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.StringP("config", "c", "", "path to a JSON config file")
	flags.String("addr", d.Addr, "listen address")
	flags.Int("port", d.Port, "listen port")
	flags.String("storage", d.Storage, "storage backend: mongo or memory")
	flags.String("mongo-uri", "", "MongoDB connection string")
	flags.String("mongo-database", d.MongoDatabase, "MongoDB database name")
	flags.String("jwt-secret", "", "token signing secret")
	flags.Duration("token-ttl", d.TokenTTL, "access token lifetime")
	flags.Int("bcrypt-cost", d.BcryptCost, "bcrypt cost for password hashes")
	flags.Duration("request-timeout", d.RequestTimeout, "per-call storage timeout")
	flags.Int("max-body-bytes", d.MaxBodyBytes, "largest accepted request body after decompression")
	flags.String("migrate-path", d.MigratePath, "directory with migration files")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "log format: json or console")
}

// ReadConfig layers defaults, the JSON file, the environment (including
// a .env file) and explicitly set flags, in that order. flags may be nil.
func ReadConfig(flags *pflag.FlagSet) *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("could not load .env")
	}

	cfg := DefaultConfig()
	if path := configPath(flags); path != "" {
		applyJSONConfig(cfg, path)
	}
	applyEnvOverrides(cfg)
	if flags != nil {
		applyFlagOverrides(cfg, flags)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Storage != StorageMongo && c.Storage != StorageMemory {
		return fmt.Errorf("%w: %q", domainerrors.ErrConfigUnknownStorage, c.Storage)
	}
	if c.Storage == StorageMongo && c.MongoURI == "" {
		return domainerrors.ErrConfigMissingURI
	}
	if c.JWTSecret == "" {
		return domainerrors.ErrConfigMissingSecret
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("%w: max body bytes must be positive, got %d", domainerrors.ErrConfigInvalidFormat, c.MaxBodyBytes)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", domainerrors.ErrConfigInvalidFormat, c.Port)
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

func configPath(flags *pflag.FlagSet) string {
	if flags != nil {
		if p, err := flags.GetString("config"); err == nil && p != "" {
			return p
		}
	}
	return os.Getenv("CONFIG")
}

type fileConfig struct {
	Addr           string `json:"addr"`
	Port           int    `json:"port"`
	Storage        string `json:"storage"`
	MongoURI       string `json:"mongo_uri"`
	MongoDatabase  string `json:"mongo_database"`
	JWTSecret      string `json:"jwt_secret"`
	TokenTTL       string `json:"token_ttl"`
	BcryptCost     int    `json:"bcrypt_cost"`
	RequestTimeout string `json:"request_timeout"`
	MaxBodyBytes   int    `json:"max_body_bytes"`
	MigratePath    string `json:"migrate_path"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
}

func applyJSONConfig(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg(domainerrors.ErrConfigFileReadFailed.Error())
		return
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg(domainerrors.ErrConfigParseFailed.Error())
		return
	}

	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.Storage, fc.Storage)
	setString(&cfg.MongoURI, fc.MongoURI)
	setString(&cfg.MongoDatabase, fc.MongoDatabase)
	setString(&cfg.JWTSecret, fc.JWTSecret)
	setString(&cfg.MigratePath, fc.MigratePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.BcryptCost != 0 {
		cfg.BcryptCost = fc.BcryptCost
	}
	if fc.MaxBodyBytes != 0 {
		cfg.MaxBodyBytes = fc.MaxBodyBytes
	}
	setDuration(&cfg.TokenTTL, "token_ttl", fc.TokenTTL)
	setDuration(&cfg.RequestTimeout, "request_timeout", fc.RequestTimeout)
	logging.Info().Str("path", path).Msg("loaded JSON config")
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Addr, os.Getenv("ADDR"))
	setString(&cfg.Storage, os.Getenv("STORAGE"))
	setString(&cfg.MongoURI, os.Getenv("MONGODB_URI"))
	setString(&cfg.MongoDatabase, os.Getenv("MONGODB_DATABASE"))
	setString(&cfg.JWTSecret, os.Getenv("KEY"))
	setString(&cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&cfg.MigratePath, os.Getenv("MIGRATE_PATH"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("LOG_FORMAT"))
	setInt(&cfg.Port, "PORT", os.Getenv("PORT"))
	setInt(&cfg.BcryptCost, "BCRYPT_COST", os.Getenv("BCRYPT_COST"))
	setInt(&cfg.MaxBodyBytes, "MAX_BODY_BYTES", os.Getenv("MAX_BODY_BYTES"))
	setDuration(&cfg.TokenTTL, "TOKEN_TTL", os.Getenv("TOKEN_TTL"))
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT", os.Getenv("REQUEST_TIMEOUT"))
}

func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) {
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("storage") {
		cfg.Storage, _ = flags.GetString("storage")
	}
	if flags.Changed("mongo-uri") {
		cfg.MongoURI, _ = flags.GetString("mongo-uri")
	}
	if flags.Changed("mongo-database") {
		cfg.MongoDatabase, _ = flags.GetString("mongo-database")
	}
	if flags.Changed("jwt-secret") {
		cfg.JWTSecret, _ = flags.GetString("jwt-secret")
	}
	if flags.Changed("token-ttl") {
		cfg.TokenTTL, _ = flags.GetDuration("token-ttl")
	}
	if flags.Changed("bcrypt-cost") {
		cfg.BcryptCost, _ = flags.GetInt("bcrypt-cost")
	}
	if flags.Changed("request-timeout") {
		cfg.RequestTimeout, _ = flags.GetDuration("request-timeout")
	}
	if flags.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, _ = flags.GetInt("max-body-bytes")
	}
	if flags.Changed("migrate-path") {
		cfg.MigratePath, _ = flags.GetString("migrate-path")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, name, v string) {
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn().Str("name", name).Str("value", v).Msg(domainerrors.ErrConfigInvalidFormat.Error())
		return
	}
	*dst = n
}

func setDuration(dst *time.Duration, name, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn().Str("name", name).Str("value", v).Msg(domainerrors.ErrConfigInvalidFormat.Error())
		return
	}
	*dst = d
}
