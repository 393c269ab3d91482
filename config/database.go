package config

import "errors"

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Validate rejects combinations ConnectRedis cannot dial.
func (c *RedisConfig) Validate() error {
	if c.UseCluster && c.UseSentinel {
		return errors.New("REDIS_USE_CLUSTER and REDIS_USE_SENTINEL are mutually exclusive")
	}
	if c.UseSentinel && len(c.SentinelNodes) == 0 {
		return errors.New("REDIS_SENTINEL_NODES is required with REDIS_USE_SENTINEL")
	}
	if !c.UseCluster && !c.UseSentinel && c.URI == "" {
		return errors.New("REDIS_URI is required")
	}
	return nil
}
