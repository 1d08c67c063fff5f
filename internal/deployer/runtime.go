// Package deployer deploys compiled contracts to the network selected by the toolchain.
package deployer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bullbear/contracts/internal/artifacts"
	"github.com/bullbear/contracts/internal/config"
)

const defaultPollInterval = time.Second

// Runtime binds an artifact store to a connected network and signer.
type Runtime struct {
	network       string
	backend       Backend
	signer        TransactionSigner
	chainID       *big.Int
	store         *artifacts.Store
	confirmations uint64
	pollInterval  time.Duration
	logger        *slog.Logger
	close         func()
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithConfirmations sets how many blocks a deployment must be buried under
// before it counts as confirmed. 1 means "mined".
func WithConfirmations(n uint64) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.confirmations = n
		}
	}
}

// WithPollInterval sets how often block height is polled while waiting for confirmations.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithNetworkName labels the runtime for logging.
func WithNetworkName(name string) Option {
	return func(r *Runtime) {
		r.network = name
	}
}

// NewRuntime creates a runtime over an existing backend and signer.
func NewRuntime(ctx context.Context, backend Backend, signer TransactionSigner, store *artifacts.Store, opts ...Option) (*Runtime, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain ID: %w", err)
	}

	r := &Runtime{
		backend:       backend,
		signer:        signer,
		chainID:       chainID,
		store:         store,
		confirmations: 1,
		pollInterval:  defaultPollInterval,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		close:         func() {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Connect dials the network profile, checks its chain ID and sets up the signer
// (first configured private key, or the node's first account for remote profiles).
func Connect(ctx context.Context, name string, network config.NetworkConfig, store *artifacts.Store, logger *slog.Logger) (*Runtime, error) {
	rpcClient, err := rpc.DialOptions(ctx, network.URL, rpc.WithHTTPClient(&http.Client{Timeout: network.Timeout}))
	if err != nil {
		return nil, fmt.Errorf("connect to network %s: %w", name, err)
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain ID: %w", err)
	}
	if network.ChainID != 0 && chainID.Int64() != network.ChainID {
		client.Close()
		return nil, fmt.Errorf("%w: network %s is configured for %d, node reports %d", ErrChainIDMismatch, name, network.ChainID, chainID.Int64())
	}

	var signer TransactionSigner
	if network.Remote() {
		signer, err = NewRemoteSigner(ctx, rpcClient, chainID)
	} else {
		signer, err = NewLocalSigner(network.Accounts[0], chainID)
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("set up signer: %w", err)
	}

	r, err := NewRuntime(ctx, client, signer, store,
		WithLogger(logger),
		WithNetworkName(name),
		WithConfirmations(network.Confirmations),
	)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.close = client.Close

	logger.Info("connected to network",
		slog.String("network", name),
		slog.String("chain_id", chainID.String()),
		slog.String("signer", signer.Address().Hex()),
	)
	return r, nil
}

// Close releases the network connection.
func (r *Runtime) Close() {
	r.close()
}

// Network returns the network name.
func (r *Runtime) Network() string {
	return r.network
}

// ChainID returns the connected chain's ID.
func (r *Runtime) ChainID() *big.Int {
	return new(big.Int).Set(r.chainID)
}

// Signer returns the deploying account.
func (r *Runtime) Signer() common.Address {
	return r.signer.Address()
}

// GetContractFactory looks up the compiled artifact for name and returns a
// factory able to deploy it. The name is not validated before the lookup.
func (r *Runtime) GetContractFactory(name string) (*ContractFactory, error) {
	artifact, err := r.store.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := artifact.Deployable(); err != nil {
		return nil, err
	}
	if _, err := artifact.GetParsedABI(); err != nil {
		return nil, fmt.Errorf("parse ABI of %s: %w", artifact.Name(), err)
	}

	return &ContractFactory{
		artifact: artifact,
		runtime:  r,
	}, nil
}
