package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bullbear/contracts/internal/artifacts"
)

// gasLimitBuffer is the percentage added on top of the gas estimate.
const gasLimitBuffer = 20

// ContractFactory deploys instances of one compiled contract.
type ContractFactory struct {
	artifact *artifacts.ContractArtifact
	runtime  *Runtime
}

// Artifact returns the artifact the factory deploys.
func (f *ContractFactory) Artifact() *artifacts.ContractArtifact {
	return f.artifact
}

// Deploy builds, signs and broadcasts one contract creation transaction. It does
// not wait for the transaction to be mined; call Deployed on the result for that.
func (f *ContractFactory) Deploy(ctx context.Context, args ...interface{}) (*Contract, error) {
	r := f.runtime
	name := f.artifact.Name()

	data, err := f.artifact.CreationData(args...)
	if err != nil {
		return nil, fmt.Errorf("encode deployment of %s: %w", name, err)
	}

	from := r.signer.Address()

	nonce, err := r.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	gasLimit, err := r.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    nil,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrGasEstimation, name, wrapNodeError("eth_estimateGas", err))
	}
	gasLimit = gasLimit * (100 + gasLimitBuffer) / 100

	tx, err := f.newCreation(ctx, nonce, gasLimit, data)
	if err != nil {
		return nil, err
	}

	signedTx, err := f.submit(ctx, tx)
	if err != nil {
		return nil, err
	}

	address := crypto.CreateAddress(from, signedTx.Nonce())

	r.logger.Info("deployment transaction sent",
		slog.String("contract", name),
		slog.String("network", r.network),
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.String("address", address.Hex()),
		slog.Uint64("nonce", signedTx.Nonce()),
		slog.Uint64("gas_limit", gasLimit),
	)

	return &Contract{
		name:    name,
		address: address,
		tx:      signedTx,
		runtime: r,
	}, nil
}

// nodeSender is implemented by signers whose node can sign and broadcast in one call.
type nodeSender interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// submit signs and broadcasts tx exactly once. When the node cannot sign without
// sending, the node broadcasts it and the recorded transaction is read back.
func (f *ContractFactory) submit(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	r := f.runtime

	signedTx, err := r.signer.SignTransaction(ctx, tx)
	if err == nil {
		if err := r.backend.SendTransaction(ctx, signedTx); err != nil {
			return nil, fmt.Errorf("send transaction: %w", wrapNodeError("eth_sendRawTransaction", err))
		}
		return signedTx, nil
	}

	sender, ok := r.signer.(nodeSender)
	if !ok || !errors.Is(err, ErrSignUnsupported) {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	r.logger.Debug("node does not sign without sending, using eth_sendTransaction",
		slog.String("signer", r.signer.Address().Hex()),
	)

	hash, err := sender.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", wrapNodeError("eth_sendTransaction", err))
	}

	sentTx, _, err := r.backend.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", hash.Hex(), err)
	}
	return sentTx, nil
}

// newCreation picks EIP-1559 fees when the chain reports a base fee and
// falls back to a legacy gas price otherwise.
func (f *ContractFactory) newCreation(ctx context.Context, nonce, gasLimit uint64, data []byte) (*types.Transaction, error) {
	r := f.runtime

	head, err := r.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := r.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			Value:    big.NewInt(0),
			Data:     data,
		}), nil
	}

	tip, err := r.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas tip cap: %w", err)
	}
	// Leave room for the base fee to double before the tx is included.
	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   r.ChainID(),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		Value:     big.NewInt(0),
		Data:      data,
	}), nil
}
