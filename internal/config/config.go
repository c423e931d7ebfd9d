package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	SIWE       SIWEConfig       `yaml:"siwe"`
	JWT        JWTConfig        `yaml:"jwt"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	CORS       CORSConfig       `yaml:"cors"`  // CORS configuration
	Admin      AdminConfig      `yaml:"admin"` // Admin API access control configuration
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the nonce store backend. An empty DSN keeps nonces
// in process memory.
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"` // postgres or sqlite
}

// NATSConfig NATS connection used for sign-in events. Empty URL disables events.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`        // seconds
	ReconnectWait int    `yaml:"reconnect_wait"` // seconds
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// SIWEConfig describes the relying party messages are built for and checked against.
type SIWEConfig struct {
	Domain        string        `yaml:"domain"`
	URI           string        `yaml:"uri"`
	ChainID       int64         `yaml:"chainId"`         // default chain for built messages
	AllowedChains []int64       `yaml:"allowedChainIds"` // further chains wallets may sign in on
	Statement     string        `yaml:"statement"`
	NonceTTL      time.Duration `yaml:"nonceTtl"`
	MessageTTL    time.Duration `yaml:"messageTtl"`    // expiration time stamped on built messages, 0 for none
	MaxMessageAge time.Duration `yaml:"maxMessageAge"` // 0 disables the issued-at age check
	ClockSkew     time.Duration `yaml:"clockSkew"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// AcceptsChain reports whether sign-in on chainID is allowed: the default
// chain or one of AllowedChains.
func (s SIWEConfig) AcceptsChain(chainID int64) bool {
	if chainID == s.ChainID {
		return true
	}
	for _, allowed := range s.AllowedChains {
		if allowed == chainID {
			return true
		}
	}
	return false
}

// JWTConfig session token settings
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// BlockchainConfig extra chains registered on top of the built-in registry
type BlockchainConfig struct {
	Networks map[string]NetworkConfig `yaml:"networks"`
}

// NetworkConfig NetworkConfiguration
type NetworkConfig struct {
	ChainID     int64  `yaml:"chainId"`
	Name        string `yaml:"name"`
	Symbol      string `yaml:"symbol"`
	ExplorerURL string `yaml:"explorerUrl"`
	Enabled     bool   `yaml:"enabled"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`   // List of allowed origins
	AllowCredentials bool     `yaml:"allowCredentials"` // Whether to allow credentials
	MaxAge           int      `yaml:"maxAge"`           // Max age for preflight requests (seconds)
}

// AdminConfig Admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // List of allowed IP addresses or CIDR ranges
}

// LogConfig logrus settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

var AppConfig *Config

// Default returns a configuration that runs a local, memory-backed service.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		NATS: NATSConfig{
			Timeout:       5,
			ReconnectWait: 2,
			MaxReconnects: 10,
			SubjectPrefix: "siwe",
		},
		SIWE: SIWEConfig{
			Domain:        "localhost:3000",
			URI:           "http://localhost:3000",
			ChainID:       1,
			Statement:     "Sign in with Ethereum to the app.",
			NonceTTL:      10 * time.Minute,
			MessageTTL:    10 * time.Minute,
			ClockSkew:     30 * time.Second,
			SweepInterval: time.Minute,
		},
		JWT: JWTConfig{
			Issuer: "siwe",
			TTL:    24 * time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig Load configuration file. An empty path prefers config.local.yaml
// over config.yaml; when neither exists the defaults plus environment are used.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			logrus.Info("🔧 Using local configuration file: config.local.yaml")
		} else if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			configPath = ""
			logrus.Info("📋 [Config] No configuration file found, using defaults")
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logrus.WithField("path", configPath).Info("✅ Loaded configuration file")
	}

	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if len(config.CORS.AllowedOrigins) > 0 {
		logrus.WithField("origins", config.CORS.AllowedOrigins).Info("📋 [Config] CORS allowed origins loaded")
	} else {
		logrus.Info("📋 [Config] CORS: not configured (will allow all origins *)")
	}
	if len(config.Admin.AllowedIPs) == 0 {
		logrus.Info("📋 [Config] Admin IP whitelist: not configured (localhost-only mode)")
	}

	AppConfig = config
	return config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.SIWE.Domain == "" {
		return errors.New("config: siwe.domain is required")
	}
	if c.SIWE.URI == "" {
		return errors.New("config: siwe.uri is required")
	}
	if c.SIWE.ChainID <= 0 {
		return fmt.Errorf("config: siwe.chainId must be positive, got %d", c.SIWE.ChainID)
	}
	for _, chainID := range c.SIWE.AllowedChains {
		if chainID <= 0 {
			return fmt.Errorf("config: siwe.allowedChainIds must be positive, got %d", chainID)
		}
	}
	if c.SIWE.NonceTTL <= 0 {
		return errors.New("config: siwe.nonceTtl must be positive")
	}
	if c.SIWE.MessageTTL < 0 || c.SIWE.MaxMessageAge < 0 || c.SIWE.ClockSkew < 0 {
		return errors.New("config: siwe durations must not be negative")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("config: jwt.ttl must be positive")
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	for name, network := range c.Blockchain.Networks {
		if network.Enabled && network.ChainID <= 0 {
			return fmt.Errorf("config: network %s has no chainId", name)
		}
	}
	return nil
}

// overrideFromEnv Override configuration from environment variables
func overrideFromEnv(config *Config) {
	// server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// DatabaseDSN
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}

	// NATSConfiguration
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	// SIWE relying party
	if domain := os.Getenv("SIWE_DOMAIN"); domain != "" {
		config.SIWE.Domain = domain
	}
	if uri := os.Getenv("SIWE_URI"); uri != "" {
		config.SIWE.URI = uri
	}
	if chainID := os.Getenv("SIWE_CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.SIWE.ChainID = id
		} else {
			logrus.WithError(err).Warn("⚠️ Ignoring invalid SIWE_CHAIN_ID")
		}
	}

	if chains := os.Getenv("SIWE_ALLOWED_CHAIN_IDS"); chains != "" {
		allowed := make([]int64, 0)
		for _, part := range splitList(chains) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				logrus.WithError(err).Warn("⚠️ Ignoring invalid SIWE_ALLOWED_CHAIN_IDS")
				allowed = nil
				break
			}
			allowed = append(allowed, id)
		}
		if allowed != nil {
			config.SIWE.AllowedChains = allowed
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}

	// CORS Configuration
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORS.AllowedOrigins = splitList(corsOrigins)
	}
	if adminIPs := os.Getenv("ADMIN_ALLOWED_IPS"); adminIPs != "" {
		config.Admin.AllowedIPs = splitList(adminIPs)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

// splitList splits a comma-separated environment value, dropping blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// GetNetworkConfigByChainID returns the enabled network configured for chainID.
func GetNetworkConfigByChainID(chainID int64) (*NetworkConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	for _, network := range AppConfig.Blockchain.Networks {
		if network.ChainID == chainID && network.Enabled {
			return &network, nil
		}
	}

	return nil, fmt.Errorf("network with chainID %d not found or disabled", chainID)
}
