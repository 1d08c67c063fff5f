package deployer

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransactionSigner signs transactions on behalf of a single account.
type TransactionSigner interface {
	Address() common.Address
	SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// LocalSigner signs with a private key from the network profile.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewLocalSigner creates a LocalSigner from a hex-encoded private key (with or without 0x).
func NewLocalSigner(hexKey string, chainID *big.Int) (*LocalSigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &LocalSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    new(big.Int).Set(chainID),
	}, nil
}

// Address returns the signer's Ethereum address.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignTransaction signs a transaction using the local private key.
func (s *LocalSigner) SignTransaction(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signedTx, nil
}

// rpcCaller is satisfied by *rpc.Client.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RemoteSigner asks the node to sign with one of its own accounts. It prefers
// eth_signTransaction; nodes without it (Hardhat Network) sign and broadcast in
// one step through SendTransaction.
type RemoteSigner struct {
	rpc     rpcCaller
	address common.Address
	chainID *big.Int

	sendOnly atomic.Bool
}

// NewRemoteSigner uses the first account returned by eth_accounts.
func NewRemoteSigner(ctx context.Context, client rpcCaller, chainID *big.Int) (*RemoteSigner, error) {
	var accounts []common.Address
	if err := client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	return &RemoteSigner{
		rpc:     client,
		address: accounts[0],
		chainID: new(big.Int).Set(chainID),
	}, nil
}

// Address returns the node account used for signing.
func (s *RemoteSigner) Address() common.Address {
	return s.address
}

// SignTransaction signs via eth_signTransaction. Nodes answer either with the raw
// transaction (anvil) or with {"raw": ..., "tx": ...} (geth, clef).
// Returns ErrSignUnsupported when the node does not implement the method.
func (s *RemoteSigner) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if s.sendOnly.Load() {
		return nil, ErrSignUnsupported
	}

	var result json.RawMessage
	if err := s.rpc.CallContext(ctx, &result, "eth_signTransaction", s.buildTransactionArgs(tx)); err != nil {
		if isMethodUnsupported(err) {
			s.sendOnly.Store(true)
			return nil, fmt.Errorf("%w: %w", ErrSignUnsupported, err)
		}
		return nil, fmt.Errorf("eth_signTransaction: %w", err)
	}

	raw, err := decodeSignResult(result)
	if err != nil {
		return nil, err
	}

	var signedTx types.Transaction
	if err := signedTx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("unmarshal signed transaction: %w", err)
	}
	return &signedTx, nil
}

// SendTransaction has the node sign and broadcast tx (eth_sendTransaction), as
// ethers' JsonRpcSigner does, and returns the transaction hash.
func (s *RemoteSigner) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	var hash common.Hash
	if err := s.rpc.CallContext(ctx, &hash, "eth_sendTransaction", s.buildTransactionArgs(tx)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

type signTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func (s *RemoteSigner) buildTransactionArgs(tx *types.Transaction) signTxArgs {
	args := signTxArgs{
		From:    s.address,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(s.chainID),
	}

	switch tx.Type() {
	case types.DynamicFeeTxType:
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	default:
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}

func decodeSignResult(result json.RawMessage) ([]byte, error) {
	var raw hexutil.Bytes
	if err := json.Unmarshal(result, &raw); err == nil {
		return raw, nil
	}

	var obj struct {
		Raw hexutil.Bytes `json:"raw"`
	}
	if err := json.Unmarshal(result, &obj); err != nil || len(obj.Raw) == 0 {
		return nil, fmt.Errorf("unexpected eth_signTransaction result: %s", string(result))
	}
	return obj.Raw, nil
}

var (
	_ TransactionSigner = (*LocalSigner)(nil)
	_ TransactionSigner = (*RemoteSigner)(nil)
	_ nodeSender        = (*RemoteSigner)(nil)
)
