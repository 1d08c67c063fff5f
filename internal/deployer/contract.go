package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract is a deployed (or deploying) contract instance.
// Its address is derived from the sender and nonce and is only meaningful
// once Deployed has returned nil.
type Contract struct {
	name    string
	address common.Address
	tx      *types.Transaction
	receipt *types.Receipt
	runtime *Runtime
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// DeployTransaction returns the signed creation transaction.
func (c *Contract) DeployTransaction() *types.Transaction {
	return c.tx
}

// Receipt returns the creation receipt, or nil before Deployed succeeds.
func (c *Contract) Receipt() *types.Receipt {
	return c.receipt
}

// Deployed blocks until the creation transaction is mined with the configured
// number of confirmations and code exists at the contract address.
func (c *Contract) Deployed(ctx context.Context) error {
	r := c.runtime

	receipt, err := bind.WaitMined(ctx, r.backend, c.tx)
	if err != nil {
		return fmt.Errorf("wait for deployment of %s (tx %s): %w", c.name, c.tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s (tx %s)", ErrDeploymentReverted, c.name, c.tx.Hash().Hex())
	}
	if receipt.ContractAddress != (common.Address{}) {
		c.address = receipt.ContractAddress
	}

	if err := c.waitConfirmations(ctx, receipt); err != nil {
		return err
	}

	code, err := r.backend.CodeAt(ctx, c.address, nil)
	if err != nil {
		return fmt.Errorf("get code at %s: %w", c.address.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: %s at %s", ErrNoCodeAfterDeploy, c.name, c.address.Hex())
	}

	c.receipt = receipt

	r.logger.Info("contract deployed",
		slog.String("contract", c.name),
		slog.String("address", c.address.Hex()),
		slog.String("block", receipt.BlockNumber.String()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}

func (c *Contract) waitConfirmations(ctx context.Context, receipt *types.Receipt) error {
	r := c.runtime
	if r.confirmations <= 1 || receipt.BlockNumber == nil {
		return nil
	}
	target := receipt.BlockNumber.Uint64() + r.confirmations - 1

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		head, err := r.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get block number: %w", err)
		}
		if head >= target {
			return nil
		}

		r.logger.Debug("waiting for confirmations",
			slog.String("contract", c.name),
			slog.Uint64("head", head),
			slog.Uint64("target", target),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for confirmations of %s: %w", c.name, ctx.Err())
		case <-ticker.C:
		}
	}
}
