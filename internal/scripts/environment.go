// Package scripts holds the deployment procedures run by the bullbear task runner.
package scripts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bullbear/contracts/internal/deployer"
)

// Environment is what a script sees of the connected network.
type Environment interface {
	GetContractFactory(name string) (Factory, error)
}

// Factory deploys one compiled contract.
type Factory interface {
	Deploy(ctx context.Context, args ...interface{}) (Deployment, error)
}

// Deployment is a submitted contract creation.
type Deployment interface {
	Deployed(ctx context.Context) error
	Address() common.Address
}

type runtimeEnvironment struct {
	rt *deployer.Runtime
}

// NewEnvironment exposes a connected deployer runtime to scripts.
func NewEnvironment(rt *deployer.Runtime) Environment {
	return &runtimeEnvironment{rt: rt}
}

func (e *runtimeEnvironment) GetContractFactory(name string) (Factory, error) {
	f, err := e.rt.GetContractFactory(name)
	if err != nil {
		return nil, err
	}
	return &runtimeFactory{f: f}, nil
}

type runtimeFactory struct {
	f *deployer.ContractFactory
}

func (f *runtimeFactory) Deploy(ctx context.Context, args ...interface{}) (Deployment, error) {
	c, err := f.f.Deploy(ctx, args...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ Deployment = (*deployer.Contract)(nil)
