package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "senser/common/config"

	"gopkg.in/yaml.v3"
)

// Event backends
const (
	EventsNone  = "none"
	EventsRedis = "redis"
	EventsKafka = "kafka"
)

// Config senser API settings. Precedence: defaults, then CONFIG_FILE (yaml), then environment.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	StoreTimeout    time.Duration `yaml:"store_timeout"`
	SchemaBootstrap bool          `yaml:"schema_bootstrap"`

	Database  commoncfg.DatabaseConfig  `yaml:"database"`
	Timescale commoncfg.DatabaseConfig  `yaml:"timescale"`
	Redis     commoncfg.RedisConfig     `yaml:"redis"`
	Mongo     commoncfg.MongoConfig     `yaml:"mongo"`
	Cassandra commoncfg.CassandraConfig `yaml:"cassandra"`

	Events struct {
		Backend string `yaml:"backend"`
		Stream  string `yaml:"stream"`
	} `yaml:"events"`
	Kafka commoncfg.KafkaConfig `yaml:"kafka"`
	MQTT  MQTTConfig            `yaml:"mqtt"`
}

// MQTTConfig reading ingestion over MQTT (disabled by default)
type MQTTConfig struct {
	Enabled              bool   `yaml:"enabled"`
	Topic                string `yaml:"topic"`
	commoncfg.MQTTConfig `yaml:",inline"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.StoreTimeout = 5 * time.Second

	cfg.Database = commoncfg.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "senser",
		SSLMode:  "disable",
	}
	cfg.Timescale = commoncfg.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5433,
		User:     "postgres",
		Password: "postgres",
		Database: "senser_ts",
		SSLMode:  "disable",
	}
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Mongo = commoncfg.MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "P2Documentales",
		Collection: "sensors",
	}
	cfg.Cassandra = commoncfg.CassandraConfig{
		Hosts:    []string{"localhost"},
		Keyspace: "sensor",
		LocalDC:  "datacenter1",
	}
	cfg.Events.Backend = EventsNone
	cfg.Events.Stream = "sensor:readings"
	cfg.Kafka = commoncfg.KafkaConfig{Brokers: "localhost:9092", Topic: "sensor-readings"}
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "senser"
	cfg.MQTT.Topic = "sensors/+/data"
	cfg.MQTT.QoS = 1
	return cfg
}

func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.StoreTimeout = parseDuration(getEnv("STORE_TIMEOUT", ""), cfg.StoreTimeout)
	cfg.SchemaBootstrap = parseBool(getEnv("SCHEMA_BOOTSTRAP", ""), cfg.SchemaBootstrap)

	cfg.Database.LoadFromEnv("DB")
	cfg.Timescale.LoadFromEnv("TS")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.Mongo.LoadFromEnv("MONGO")
	cfg.Cassandra.LoadFromEnv("CASSANDRA")

	cfg.Events.Backend = getEnv("EVENTS_BACKEND", cfg.Events.Backend)
	cfg.Events.Stream = getEnv("EVENTS_STREAM", cfg.Events.Stream)
	cfg.Kafka.LoadFromEnv("KAFKA")

	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", ""), cfg.MQTT.Enabled)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Events.Backend {
	case EventsNone, EventsRedis, EventsKafka:
	default:
		return fmt.Errorf("unsupported EVENTS_BACKEND %q", c.Events.Backend)
	}
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
