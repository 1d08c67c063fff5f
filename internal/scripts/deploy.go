package scripts

import (
	"context"
	"fmt"
	"io"
)

// BullBearContract is the artifact name the deploy script looks up.
const BullBearContract = "BullBear"

// DeployBullBear deploys BullBear, waits for it to be confirmed and prints its address.
func DeployBullBear(ctx context.Context, env Environment, out io.Writer) error {
	factory, err := env.GetContractFactory(BullBearContract)
	if err != nil {
		return fmt.Errorf("get contract factory %s: %w", BullBearContract, err)
	}

	contract, err := factory.Deploy(ctx)
	if err != nil {
		return fmt.Errorf("deploy %s: %w", BullBearContract, err)
	}

	if err := contract.Deployed(ctx); err != nil {
		return fmt.Errorf("confirm %s deployment: %w", BullBearContract, err)
	}

	_, err = fmt.Fprintf(out, "%s deployed to %s\n", BullBearContract, contract.Address().Hex())
	return err
}
