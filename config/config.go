package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"xandpulse/models"
)

type Config struct {
	Server    ServerConfig             `json:"server"`
	RPC       RPCConfig                `json:"rpc"`
	Clusters  map[string]ClusterConfig `json:"clusters"`
	Polling   PollingConfig            `json:"polling"`
	Cache     CacheConfig              `json:"cache"`
	Redis     RedisConfig              `json:"redis"`
	GeoIP     GeoIPConfig              `json:"geoip"`
	Synthetic SyntheticConfig          `json:"synthetic"`
	LogLevel  string                   `json:"log_level"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type RPCConfig struct {
	Timeout        int    `json:"timeout_seconds"`
	DefaultCluster string `json:"default_cluster"`
}

// ClusterConfig overrides the built-in endpoint table. Empty fields keep the default.
type ClusterConfig struct {
	RPCEndpoint string `json:"rpc_endpoint"`
	WSEndpoint  string `json:"ws_endpoint"`
	Label       string `json:"label"`
}

type PollingConfig struct {
	RefreshInterval  int `json:"refresh_interval_seconds"`
	StaleTime        int `json:"stale_time_seconds"`
	DetailStaleTime  int `json:"detail_stale_time_seconds"`
	MaxAttempts      int `json:"max_attempts"`
	RetryBaseDelayMs int `json:"retry_base_delay_ms"`
	RetryMaxDelay    int `json:"retry_max_delay_seconds"`
}

type CacheConfig struct {
	// How long a cluster result is retained after it stops being fresh.
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type SyntheticConfig struct {
	NodeCount int   `json:"node_count"`
	Seed      int64 `json:"seed"` // 0 means seed from the clock
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		RPC: RPCConfig{
			Timeout:        10,
			DefaultCluster: string(models.Devnet),
		},
		Clusters: map[string]ClusterConfig{},
		Polling: PollingConfig{
			RefreshInterval:  30,
			StaleTime:        10,
			DetailStaleTime:  5,
			MaxAttempts:      3,
			RetryBaseDelayMs: 1000,
			RetryMaxDelay:    30,
		},
		Cache: CacheConfig{
			TTL: 300,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			Enabled: false,
		},
		Synthetic: SyntheticConfig{
			NodeCount: 25,
		},
		LogLevel: "info",
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := Default()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			if err := json.NewDecoder(file).Decode(cfg); err != nil {
				log.Warnf("Failed to decode config file %s: %v", configPath, err)
			}
		}
	}

	// Environment overrides config file
	loadEnv(cfg)

	// Flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost, cluster string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")
	fs.StringVar(&cluster, "cluster", "", "Initially selected cluster (mainnet, devnet, testnet)")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}
	if isFlagPassed(fs, "cluster") {
		cfg.RPC.DefaultCluster = cluster
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	// Server configuration
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	// RPC configuration
	if val := os.Getenv("RPC_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.RPC.Timeout = p
		}
	}
	if val := os.Getenv("DEFAULT_CLUSTER"); val != "" {
		cfg.RPC.DefaultCluster = val
	}
	for _, c := range models.AllClusters {
		key := strings.ToUpper(string(c)) + "_RPC_URL"
		if val := os.Getenv(key); val != "" {
			cc := cfg.Clusters[string(c)]
			cc.RPCEndpoint = val
			if cfg.Clusters == nil {
				cfg.Clusters = map[string]ClusterConfig{}
			}
			cfg.Clusters[string(c)] = cc
		}
	}

	// Polling configuration
	if val := os.Getenv("REFRESH_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.RefreshInterval = p
		}
	}
	if val := os.Getenv("STALE_TIME"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.StaleTime = p
		}
	}
	if val := os.Getenv("RPC_MAX_ATTEMPTS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.MaxAttempts = p
		}
	}

	// Cache configuration
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	// Redis configuration
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	// GeoIP configuration
	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	// Synthetic data
	if val := os.Getenv("SYNTHETIC_NODE_COUNT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Synthetic.NodeCount = p
		}
	}
	if val := os.Getenv("SYNTHETIC_SEED"); val != "" {
		if p, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Synthetic.Seed = p
		}
	}
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if _, err := models.ParseCluster(c.RPC.DefaultCluster); err != nil {
		return fmt.Errorf("rpc.default_cluster: %w", err)
	}
	for name := range c.Clusters {
		if _, err := models.ParseCluster(name); err != nil {
			return fmt.Errorf("clusters: %w", err)
		}
	}
	if c.Polling.RefreshInterval <= 0 {
		return fmt.Errorf("polling.refresh_interval_seconds must be positive, got %d", c.Polling.RefreshInterval)
	}
	if c.Polling.StaleTime < 0 {
		return fmt.Errorf("polling.stale_time_seconds must not be negative, got %d", c.Polling.StaleTime)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTL)
	}
	if c.Cache.TTL < c.Polling.StaleTime {
		return fmt.Errorf("cache.ttl_seconds (%d) must not be shorter than polling.stale_time_seconds (%d)", c.Cache.TTL, c.Polling.StaleTime)
	}
	if c.Polling.MaxAttempts <= 0 {
		return fmt.Errorf("polling.max_attempts must be positive, got %d", c.Polling.MaxAttempts)
	}
	if c.Synthetic.NodeCount <= 0 {
		return fmt.Errorf("synthetic.node_count must be positive, got %d", c.Synthetic.NodeCount)
	}
	return nil
}

// NetworkConfigs merges configured overrides into the built-in cluster table.
func (c *Config) NetworkConfigs() map[models.NetworkCluster]models.NetworkConfig {
	out := models.DefaultNetworkConfigs()
	for name, override := range c.Clusters {
		cluster, err := models.ParseCluster(name)
		if err != nil {
			continue
		}
		nc := out[cluster]
		if override.RPCEndpoint != "" {
			nc.RPCEndpoint = override.RPCEndpoint
		}
		if override.WSEndpoint != "" {
			nc.WSEndpoint = override.WSEndpoint
		}
		if override.Label != "" {
			nc.Label = override.Label
		}
		out[cluster] = nc
	}
	return out
}

// DefaultCluster returns the validated initial cluster selection.
func (c *Config) DefaultCluster() models.NetworkCluster {
	cluster, err := models.ParseCluster(c.RPC.DefaultCluster)
	if err != nil {
		return models.Devnet
	}
	return cluster
}

// Helper methods for duration conversion
func (c *Config) RPCTimeoutDuration() time.Duration {
	return time.Duration(c.RPC.Timeout) * time.Second
}

func (c *Config) RefreshIntervalDuration() time.Duration {
	return time.Duration(c.Polling.RefreshInterval) * time.Second
}

func (c *Config) StaleTimeDuration() time.Duration {
	return time.Duration(c.Polling.StaleTime) * time.Second
}

func (c *Config) DetailStaleTimeDuration() time.Duration {
	return time.Duration(c.Polling.DetailStaleTime) * time.Second
}

func (c *Config) RetryBaseDelayDuration() time.Duration {
	return time.Duration(c.Polling.RetryBaseDelayMs) * time.Millisecond
}

func (c *Config) RetryMaxDelayDuration() time.Duration {
	return time.Duration(c.Polling.RetryMaxDelay) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
