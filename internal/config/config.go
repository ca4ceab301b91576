package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"

	"github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Storage drivers understood by the server.
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNeo4j    = "neo4j"
)

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → .env → environment variables
func Load() {
	cfg := defaultConfig
	_loaded = &cfg

	configFile := os.Getenv("USERMGR_CONFIG_FILE")
	if configFile == "" {
		configFile = "usermgr.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	// .env never overrides variables that are already exported
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	if err := ApplyEnvOverrides(); err != nil {
		log.Printf("Failed to apply environment overrides: %v", err)
	}

	log.Printf("Final config - storage driver: %s, http port: %d",
		_loaded.Common.Storage.Driver,
		_loaded.Common.Http.Port)
}

// LoadDefault installs the built-in defaults without reading files or the environment.
func LoadDefault() {
	cfg := defaultConfig
	_loaded = &cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// ApplyEnvOverrides copies any set environment variables over the loaded config.
func ApplyEnvOverrides() error {
	if _loaded == nil {
		return nil
	}
	if err := env.Parse(&_loaded.Common); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			MaxRequestSize: 1048576,
		},
		Storage: storageConfig{
			Driver: DriverMongoDB,
		},
		MongoDB: mongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "usermgr",
			Collection:     "users",
			ConnectTimeout: 10,
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "usermgr",
			MaxOpenConnections: 10,
		},
		SQLite: sqliteConfig{
			Path: "usermgr.db",
		},
		Neo4j: neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
	},
}

type Common struct {
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Storage  storageConfig  `yaml:"storage"`
	MongoDB  mongoConfig    `yaml:"mongodb"`
	Postgres postgresConfig `yaml:"postgres"`
	SQLite   sqliteConfig   `yaml:"sqlite"`
	Neo4j    neo4jConfig    `yaml:"neo4j"`
}

type logConfig struct {
	Level  string `yaml:"level" env:"USERMGR_LOG_LEVEL"`
	Format string `yaml:"format" env:"USERMGR_LOG_FORMAT"`
}

type httpConfig struct {
	Host           string `yaml:"host" env:"USERMGR_HTTP_HOST"`
	Port           int    `yaml:"port" env:"PORT"`
	MaxRequestSize int64  `yaml:"max_request_size" env:"USERMGR_HTTP_MAX_REQUEST_SIZE"`
}

func (c httpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type storageConfig struct {
	Driver string `yaml:"driver" env:"USERMGR_STORAGE_DRIVER"` // mongodb, postgres, sqlite or neo4j
}

type mongoConfig struct {
	URI            string `yaml:"uri" env:"MONGO_URI"`
	Database       string `yaml:"database" env:"USERMGR_MONGO_DATABASE"`
	Collection     string `yaml:"collection" env:"USERMGR_MONGO_COLLECTION"`
	ConnectTimeout int    `yaml:"connect_timeout" env:"USERMGR_MONGO_CONNECT_TIMEOUT"` // seconds
}

type postgresConfig struct {
	User               string `yaml:"user" env:"USERMGR_DB_USER"`
	Password           string `yaml:"password" env:"USERMGR_DB_PASSWORD"`
	Host               string `yaml:"host" env:"USERMGR_DB_HOST"`
	Port               int    `yaml:"port" env:"USERMGR_DB_PORT"`
	Database           string `yaml:"database" env:"USERMGR_DB_NAME"`
	MaxOpenConnections int    `yaml:"max_open_connections" env:"USERMGR_DB_MAX_OPEN_CONNECTIONS"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type sqliteConfig struct {
	Path string `yaml:"path" env:"USERMGR_SQLITE_PATH"`
}

type neo4jConfig struct {
	URI      string `yaml:"uri" env:"USERMGR_NEO4J_URI"`
	Username string `yaml:"username" env:"USERMGR_NEO4J_USERNAME"`
	Password string `yaml:"password" env:"USERMGR_NEO4J_PASSWORD"`
	Database string `yaml:"database" env:"USERMGR_NEO4J_DATABASE"`
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Storage() storageConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Storage
}

func MongoDB() mongoConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.MongoDB
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func SQLite() sqliteConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.SQLite
}

func Neo4j() neo4jConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Neo4j
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}
