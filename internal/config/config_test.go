package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bullbear.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "bullbear.config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"0.8.4", "0.7.0"}, cfg.CompilerVersions())

	name, network, err := cfg.Network("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", name)
	assert.Equal(t, "http://127.0.0.1:8545", network.URL)
	assert.Equal(t, int64(31337), network.ChainID)
	assert.True(t, network.Remote())
	assert.Equal(t, 20*time.Second, network.Timeout)
	assert.Equal(t, uint64(1), network.Confirmations)
}

func TestCompilerVersions_PreservesDeclaredOrder(t *testing.T) {
	path := writeConfig(t, `
solidity:
  compilers:
    - version: "0.7.0"
    - version: "0.8.4"
      settings:
        optimizer:
          enabled: true
          runs: 200
    - version: "0.7.0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"0.7.0", "0.8.4", "0.7.0"}, cfg.CompilerVersions())
	assert.NotNil(t, cfg.Solidity.Compilers[1].Settings["optimizer"])
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"0.8.4", "0.7.0"}, cfg.CompilerVersions())
	assert.Equal(t, "localhost", cfg.DefaultNetwork)
	assert.Equal(t, "artifacts", filepath.Base(cfg.ArtifactsDir()))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_Networks(t *testing.T) {
	path := writeConfig(t, `
default_network: sepolia
networks:
  sepolia:
    url: https://rpc.sepolia.org
    chain_id: 11155111
    accounts:
      - "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
    timeout: 1m
    confirmations: 3
paths:
  artifacts: out
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	name, network, err := cfg.Network("")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", name)
	assert.False(t, network.Remote())
	assert.Len(t, network.Accounts, 1)
	assert.Equal(t, time.Minute, network.Timeout)
	assert.Equal(t, uint64(3), network.Confirmations)

	// localhost is always available
	assert.Equal(t, []string{"localhost", "sepolia"}, cfg.NetworkNames())

	assert.Equal(t, filepath.Join(filepath.Dir(path), "out"), cfg.ArtifactsDir())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("BULLBEAR_NETWORKS_LOCALHOST_URL", "http://10.0.0.7:8545")

	cfg, err := Load(writeConfig(t, "default_network: localhost\n"))
	require.NoError(t, err)

	_, network, err := cfg.Network("localhost")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.7:8545", network.URL)
}

func TestLoad_LocalhostChainID(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		env      string
		expected int64
	}{
		{
			name:     "default endpoint",
			content:  "default_network: localhost\n",
			expected: 31337,
		},
		{
			name: "custom endpoint without chain id",
			content: `
networks:
  localhost:
    url: http://127.0.0.1:8546
`,
			expected: 0,
		},
		{
			name: "custom endpoint with chain id",
			content: `
networks:
  localhost:
    url: http://127.0.0.1:8546
    chain_id: 1337
`,
			expected: 1337,
		},
		{
			name: "explicit zero on default endpoint",
			content: `
networks:
  localhost:
    url: http://127.0.0.1:8545
    chain_id: 0
`,
			expected: 0,
		},
		{
			name:     "environment",
			content:  "default_network: localhost\n",
			env:      "1337",
			expected: 1337,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("BULLBEAR_NETWORKS_LOCALHOST_CHAIN_ID", tt.env)
			}
			cfg, err := Load(writeConfig(t, tt.content))
			require.NoError(t, err)

			_, network, err := cfg.Network("localhost")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, network.ChainID)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "compiler version is not semver",
			content: `
solidity:
  compilers:
    - version: "latest"
`,
		},
		{
			name: "network without url",
			content: `
networks:
  broken:
    chain_id: 5
`,
		},
		{
			name: "account is not hex",
			content: `
networks:
  sepolia:
    url: https://rpc.sepolia.org
    accounts: ["not-a-key"]
`,
		},
		{
			name: "remote mixed with private keys",
			content: `
networks:
  sepolia:
    url: https://rpc.sepolia.org
    accounts:
      - remote
      - "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
`,
		},
		{
			name:    "default network not declared",
			content: "default_network: mainnet\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNetwork_Unknown(t *testing.T) {
	cfg, err := Load(writeConfig(t, "default_network: localhost\n"))
	require.NoError(t, err)

	_, _, err = cfg.Network("mainnet")
	require.ErrorIs(t, err, ErrUnknownNetwork)
	assert.Contains(t, err.Error(), "localhost")
}

func TestNetwork_CaseInsensitive(t *testing.T) {
	cfg, err := Load(writeConfig(t, "default_network: localhost\n"))
	require.NoError(t, err)

	name, _, err := cfg.Network("LocalHost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", name)
}
