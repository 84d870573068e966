package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Addr     string            `yaml:"addr"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	Stream   RedisStreamConfig `yaml:"stream"`
}

type RedisStreamConfig struct {
	Key    string `yaml:"key"`
	MaxLen int64  `yaml:"max_len"`
}

type NetworkConfig struct {
	Name       string `yaml:"name"`
	ChainID    uint64 `yaml:"chain_id"`
	ENSAddress string `yaml:"ens_address"`
}

type EndpointConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GatewayConfig struct {
	EvaluationInterval time.Duration `yaml:"evaluation_interval"`
	PeriodicEvaluation bool          `yaml:"periodic_evaluation"`
	LenientNetworks    bool          `yaml:"lenient_networks"`
	VerifyChainID      bool          `yaml:"verify_chain_id"`
}

type HeadsConfig struct {
	WSURL        string        `yaml:"ws_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Config struct {
	Network     NetworkConfig    `yaml:"network"`
	Endpoints   []EndpointConfig `yaml:"endpoints"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Heads       HeadsConfig      `yaml:"heads"`
	PostgresDSN string           `yaml:"postgres_dsn"`
	Redis       RedisConfig      `yaml:"redis"`
	MetricsAddr string           `yaml:"metrics_addr"`
	LogLevel    string           `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Network: NetworkConfig{Name: "homestead", ChainID: 1},
		Gateway: GatewayConfig{EvaluationInterval: 30 * time.Second},
		Heads:   HeadsConfig{PollInterval: 12 * time.Second},
		Redis: RedisConfig{
			Stream: RedisStreamConfig{Key: "gateway:events", MaxLen: 100000},
		},
		MetricsAddr: ":9102",
		LogLevel:    "info",
	}
}

// Load reads the YAML file at path when path is not empty, then applies
// environment overrides.
func Load(path string) (Config, error) {
	c := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func FromEnv() (Config, error) {
	return Load("")
}

func applyEnv(c *Config) error {
	var err error

	c.Network.Name = getenvDefault("NETWORK_NAME", c.Network.Name)
	if c.Network.ChainID, err = uint64Env("CHAIN_ID", c.Network.ChainID); err != nil {
		return err
	}
	c.Network.ENSAddress = getenvDefault("ENS_ADDRESS", c.Network.ENSAddress)

	timeout, err := durationEnv("RPC_TIMEOUT", 0)
	if err != nil {
		return err
	}
	if urls := os.Getenv("RPC_HTTP_URLS"); urls != "" {
		c.Endpoints = c.Endpoints[:0]
		for i, u := range strings.Split(urls, ",") {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			c.Endpoints = append(c.Endpoints, EndpointConfig{Name: fmt.Sprintf("rpc-%d", i), URL: u})
		}
	}
	for i := range c.Endpoints {
		if timeout > 0 {
			c.Endpoints[i].Timeout = timeout
		}
		if c.Endpoints[i].Timeout <= 0 {
			c.Endpoints[i].Timeout = 15 * time.Second
		}
	}

	if c.Gateway.EvaluationInterval, err = durationEnv("EVALUATION_INTERVAL", c.Gateway.EvaluationInterval); err != nil {
		return err
	}
	if c.Gateway.PeriodicEvaluation, err = boolEnv("PERIODIC_EVALUATION", c.Gateway.PeriodicEvaluation); err != nil {
		return err
	}
	if c.Gateway.LenientNetworks, err = boolEnv("LENIENT_NETWORKS", c.Gateway.LenientNetworks); err != nil {
		return err
	}
	if c.Gateway.VerifyChainID, err = boolEnv("VERIFY_CHAIN_ID", c.Gateway.VerifyChainID); err != nil {
		return err
	}

	c.Heads.WSURL = getenvDefault("RPC_WS_URL", c.Heads.WSURL)
	if c.Heads.PollInterval, err = durationEnv("HEAD_POLL_INTERVAL", c.Heads.PollInterval); err != nil {
		return err
	}

	c.PostgresDSN = getenvDefault("PG_DSN", c.PostgresDSN)
	c.Redis.Addr = getenvDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenvDefault("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = intEnv("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	c.Redis.Stream.Key = getenvDefault("REDIS_STREAM_KEY", c.Redis.Stream.Key)
	maxLen, err := intEnv("REDIS_STREAM_MAXLEN", int(c.Redis.Stream.MaxLen))
	if err != nil {
		return err
	}
	c.Redis.Stream.MaxLen = int64(maxLen)

	c.MetricsAddr = getenvDefault("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	return nil
}

func (c Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New("no RPC endpoint configured (RPC_HTTP_URLS or endpoints)")
	}
	for i, e := range c.Endpoints {
		if e.URL == "" {
			return fmt.Errorf("endpoint %d has no url", i)
		}
	}
	if c.Network.Name == "" {
		return errors.New("missing network name")
	}
	if c.Gateway.EvaluationInterval <= 0 {
		return fmt.Errorf("EVALUATION_INTERVAL must be > 0")
	}
	if c.Heads.WSURL == "" && c.Heads.PollInterval <= 0 {
		return fmt.Errorf("HEAD_POLL_INTERVAL must be > 0 when RPC_WS_URL is not set")
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return i, nil
}

func uint64Env(k string, def uint64) (uint64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return u, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
