package cassandra

import (
	"fmt"
	"time"

	"senser/common/config"

	"github.com/gocql/gocql"
)

// NewCluster token-aware, DC-aware round robin, protocol v4
func NewCluster(cfg *config.CassandraConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.ProtoVersion = 4
	cluster.Consistency = gocql.One
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(cfg.LocalDC))
	return cluster
}

// NewSession opens a session without a keyspace, so keyspace bootstrap can run first.
// Statements must be keyspace-qualified.
func NewSession(cfg *config.CassandraConfig) (*gocql.Session, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("no cassandra hosts configured")
	}
	session, err := NewCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}
	return session, nil
}
