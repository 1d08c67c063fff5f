// Package config loads the toolchain configuration (bullbear.config.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultConfigName is the file name searched for when no explicit path is given.
const DefaultConfigName = "bullbear.config"

// RemoteAccounts is the accounts value that delegates signing to the node.
const RemoteAccounts = "remote"

const (
	defaultNetworkName   = "localhost"
	defaultNetworkURL    = "http://127.0.0.1:8545"
	defaultChainID       = 31337
	defaultTimeout       = 20 * time.Second
	defaultConfirmations = 1
)

var (
	ErrUnknownNetwork = errors.New("config: unknown network")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)

// Config holds the toolchain configuration.
type Config struct {
	Solidity       SolidityConfig           `mapstructure:"solidity" validate:"required"`
	DefaultNetwork string                   `mapstructure:"default_network" validate:"required"`
	Networks       map[string]NetworkConfig `mapstructure:"networks" validate:"dive"`
	Paths          PathsConfig              `mapstructure:"paths"`

	// root is the directory relative paths are resolved against.
	root string
}

// SolidityConfig declares the compilers used by the external build step.
type SolidityConfig struct {
	Compilers []CompilerConfig `mapstructure:"compilers" validate:"required,min=1,dive"`
}

// CompilerConfig is a single compiler target. Settings are passed through untouched.
type CompilerConfig struct {
	Version  string         `mapstructure:"version" validate:"required,semver"`
	Settings map[string]any `mapstructure:"settings"`
}

// NetworkConfig describes one network profile.
type NetworkConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// ChainID is checked against the node when non-zero.
	ChainID int64 `mapstructure:"chain_id" validate:"gte=0"`
	// Accounts is either ["remote"] or a list of hex private keys.
	Accounts      []string      `mapstructure:"accounts" validate:"dive,eq=remote|hexadecimal"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Confirmations uint64        `mapstructure:"confirmations"`
}

// PathsConfig holds project paths.
type PathsConfig struct {
	Artifacts string `mapstructure:"artifacts" validate:"required"`
}

// Remote reports whether the node is expected to sign for the profile.
func (n NetworkConfig) Remote() bool {
	return len(n.Accounts) == 0 || (len(n.Accounts) == 1 && n.Accounts[0] == RemoteAccounts)
}

// Load reads configuration from path (or bullbear.config.yaml in the working
// directory when path is empty) and BULLBEAR_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BULLBEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.root = "."
	if used := v.ConfigFileUsed(); used != "" {
		cfg.root = filepath.Dir(used)
	}

	cfg.applyNetworkDefaults()
	cfg.applyDefaultChainID(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("solidity.compilers", []map[string]any{
		{"version": "0.8.4"},
		{"version": "0.7.0"},
	})

	v.SetDefault("default_network", defaultNetworkName)
	v.SetDefault("networks", map[string]any{
		defaultNetworkName: map[string]any{
			"url":      defaultNetworkURL,
			"accounts": RemoteAccounts,
		},
	})

	v.SetDefault("paths.artifacts", "artifacts")
}

func (c *Config) applyNetworkDefaults() {
	for name, n := range c.Networks {
		if n.Timeout == 0 {
			n.Timeout = defaultTimeout
		}
		if n.Confirmations == 0 {
			n.Confirmations = defaultConfirmations
		}
		c.Networks[name] = n
	}
}

// applyDefaultChainID pins the localhost profile to the Hardhat chain id only
// while it still points at the default endpoint and no chain id was given.
// An explicit chain id (file or environment) always wins, including 0.
func (c *Config) applyDefaultChainID(v *viper.Viper) {
	n, ok := c.Networks[defaultNetworkName]
	if !ok {
		return
	}
	key := "networks." + defaultNetworkName + ".chain_id"
	switch {
	case v.IsSet(key):
		n.ChainID = v.GetInt64(key)
	case n.URL == defaultNetworkURL:
		n.ChainID = defaultChainID
	}
	c.Networks[defaultNetworkName] = n
}

// Validate checks struct constraints and cross-field references.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, name := range c.NetworkNames() {
		accounts := c.Networks[name].Accounts
		if len(accounts) > 1 && slices.Contains(accounts, RemoteAccounts) {
			return fmt.Errorf("%w: network %s mixes %q with private keys", ErrInvalidConfig, name, RemoteAccounts)
		}
	}
	if _, ok := c.Networks[strings.ToLower(c.DefaultNetwork)]; !ok {
		return fmt.Errorf("%w: default_network %q is not declared", ErrInvalidConfig, c.DefaultNetwork)
	}
	return nil
}

// CompilerVersions returns the declared compiler versions in declaration order.
func (c *Config) CompilerVersions() []string {
	versions := make([]string, len(c.Solidity.Compilers))
	for i, compiler := range c.Solidity.Compilers {
		versions[i] = compiler.Version
	}
	return versions
}

// Network resolves a network profile by name. An empty name selects the default network.
// Names are case-insensitive.
func (c *Config) Network(name string) (string, NetworkConfig, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	name = strings.ToLower(name)

	n, ok := c.Networks[name]
	if !ok {
		return "", NetworkConfig{}, fmt.Errorf("%w: %q (configured: %s)", ErrUnknownNetwork, name, strings.Join(c.NetworkNames(), ", "))
	}
	return name, n, nil
}

// NetworkNames returns the configured network names, sorted.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArtifactsDir returns the artifacts directory, resolved against the config file location.
func (c *Config) ArtifactsDir() string {
	if filepath.IsAbs(c.Paths.Artifacts) {
		return c.Paths.Artifacts
	}
	root := c.root
	if root == "" {
		root, _ = os.Getwd()
	}
	return filepath.Join(root, c.Paths.Artifacts)
}
