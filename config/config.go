package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Cassandra CassandraConfig `yaml:"cassandra"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Breaker   BreakerConfig   `yaml:"breaker"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	CORSOrigin      string        `yaml:"cors_origin"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	GraphQLMaxDepth int           `yaml:"graphql_max_depth"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type MongoConfig struct {
	URI             string `yaml:"uri"`
	Database        string `yaml:"database"`
	TasksCollection string `yaml:"tasks_collection"`
	UsersCollection string `yaml:"users_collection"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

// CassandraConfig enables the activity journal when Hosts is non-empty.
type CassandraConfig struct {
	Hosts    []string `yaml:"hosts"`
	Keyspace string   `yaml:"keyspace"`
}

// AuthConfig enables bearer token checks when JWTSecret is non-empty.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type BreakerConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxFailures uint32        `yaml:"max_failures"`
}

// NewConfig returns the defaults used when nothing else is configured.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8002",
			CORSOrigin:      "*",
			RequestTimeout:  10 * time.Second,
			GraphQLMaxDepth: 10,
		},
		Storage: StorageConfig{Backend: BackendMongo},
		Mongo: MongoConfig{
			URI:             "mongodb://localhost:27017",
			Database:        "tasks_db",
			TasksCollection: "tasks",
			UsersCollection: "users",
		},
		Cassandra: CassandraConfig{Keyspace: "tasks_activity"},
		Logging:   LoggingConfig{Level: "info"},
		Breaker: BreakerConfig{
			Timeout:     5 * time.Second,
			MaxFailures: 3,
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then applies environment overrides and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := NewConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// ${VAR} placeholders are replaced with the environment value.
	content := os.Expand(string(data), func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return "${" + key + "}"
	})

	if err := yaml.Unmarshal([]byte(content), c); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DB_NAME")
	setString(&c.Mongo.TasksCollection, "MONGO_TASKS_COLLECTION")
	setString(&c.Mongo.UsersCollection, "MONGO_USERS_COLLECTION")
	setString(&c.Postgres.URL, "POSTGRES_URL")
	setString(&c.Cassandra.Keyspace, "CASS_KEYSPACE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Logging.File, "LOG_FILE")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v, ok := os.LookupEnv("CASS_DB"); ok {
		c.Cassandra.Hosts = splitList(v)
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT value: %w", err)
		}
		c.Server.RequestTimeout = d
	}
	if v := os.Getenv("BREAKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BREAKER_TIMEOUT value: %w", err)
		}
		c.Breaker.Timeout = d
	}
	if v := os.Getenv("BREAKER_MAX_FAILURES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid BREAKER_MAX_FAILURES value: %w", err)
		}
		c.Breaker.MaxFailures = uint32(n)
	}
	if v := os.Getenv("GRAPHQL_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRAPHQL_MAX_DEPTH value: %w", err)
		}
		c.Server.GraphQLMaxDepth = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT is not set")
	}
	switch c.Storage.Backend {
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("MONGO_URI and MONGO_DB_NAME are required for the mongo backend")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("POSTGRES_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
