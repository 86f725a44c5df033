package config

import (
	"fmt"
	"os"
	"strings"
)

// DatabaseConfig relational connection settings (metadata store and Timescale ledger)
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | pgx | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`      // 0 keeps the go-redis default (10 per CPU)
	MinIdleConns int    `yaml:"min_idle_conns"` // warm connections kept for the request path
}

// MongoConfig MongoDB settings
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// CassandraConfig Cassandra settings
type CassandraConfig struct {
	Hosts    []string `yaml:"hosts"`
	Keyspace string   `yaml:"keyspace"`
	LocalDC  string   `yaml:"local_dc"`
}

// MQTTConfig MQTT settings
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
}

// KafkaConfig Kafka producer settings
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// GetDSN builds the driver specific data source name.
// sqlite uses Database as the file path (":memory:" when empty).
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		if c.Database == "" {
			return ":memory:"
		}
		return c.Database
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// DriverName maps the configured driver to the database/sql driver name
func (c *DatabaseConfig) DriverName() string {
	switch c.Driver {
	case "pgx", "sqlite":
		return c.Driver
	default:
		return "postgres"
	}
}

// LoadFromEnv overrides fields from <prefix>_* environment variables
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	if driver := os.Getenv(prefix + "_DRIVER"); driver != "" {
		c.Driver = driver
	}
	if host := os.Getenv(prefix + "_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Port)
	}
	if user := os.Getenv(prefix + "_USER"); user != "" {
		c.User = user
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if database := os.Getenv(prefix + "_DATABASE"); database != "" {
		c.Database = database
	}
	if sslMode := os.Getenv(prefix + "_SSLMODE"); sslMode != "" {
		c.SSLMode = sslMode
	}
	if maxConns := os.Getenv(prefix + "_MAX_CONNS"); maxConns != "" {
		fmt.Sscanf(maxConns, "%d", &c.MaxConns)
	}
}

// LoadFromEnv overrides Redis fields from <prefix>_* environment variables
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		fmt.Sscanf(db, "%d", &c.DB)
	}
	if poolSize := os.Getenv(prefix + "_POOL_SIZE"); poolSize != "" {
		fmt.Sscanf(poolSize, "%d", &c.PoolSize)
	}
	if minIdle := os.Getenv(prefix + "_MIN_IDLE_CONNS"); minIdle != "" {
		fmt.Sscanf(minIdle, "%d", &c.MinIdleConns)
	}
}

// LoadFromEnv overrides Mongo fields from <prefix>_* environment variables
func (c *MongoConfig) LoadFromEnv(prefix string) {
	if uri := os.Getenv(prefix + "_URI"); uri != "" {
		c.URI = uri
	}
	if database := os.Getenv(prefix + "_DATABASE"); database != "" {
		c.Database = database
	}
	if collection := os.Getenv(prefix + "_COLLECTION"); collection != "" {
		c.Collection = collection
	}
}

// LoadFromEnv overrides Cassandra fields from <prefix>_* environment variables.
// <prefix>_HOSTS is a comma separated list.
func (c *CassandraConfig) LoadFromEnv(prefix string) {
	if hosts := os.Getenv(prefix + "_HOSTS"); hosts != "" {
		c.Hosts = splitList(hosts)
	}
	if keyspace := os.Getenv(prefix + "_KEYSPACE"); keyspace != "" {
		c.Keyspace = keyspace
	}
	if dc := os.Getenv(prefix + "_LOCAL_DC"); dc != "" {
		c.LocalDC = dc
	}
}

// LoadFromEnv overrides MQTT fields from <prefix>_* environment variables
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	if broker := os.Getenv(prefix + "_BROKER"); broker != "" {
		c.Broker = broker
	}
	if clientID := os.Getenv(prefix + "_CLIENT_ID"); clientID != "" {
		c.ClientID = clientID
	}
	if username := os.Getenv(prefix + "_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if qos := os.Getenv(prefix + "_QOS"); qos != "" {
		fmt.Sscanf(qos, "%d", &c.QoS)
	}
}

// LoadFromEnv overrides Kafka fields from <prefix>_* environment variables
func (c *KafkaConfig) LoadFromEnv(prefix string) {
	if brokers := os.Getenv(prefix + "_BROKERS"); brokers != "" {
		c.Brokers = brokers
	}
	if topic := os.Getenv(prefix + "_TOPIC"); topic != "" {
		c.Topic = topic
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
