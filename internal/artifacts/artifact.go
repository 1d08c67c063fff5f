// Package artifacts reads compiled contract artifacts produced by the external compile step.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ContractArtifact represents a compiled Solidity contract with ABI and bytecode.
type ContractArtifact struct {
	Format           string          `json:"_format,omitempty"`
	ContractName     string          `json:"contractName,omitempty"`
	SourceName       string          `json:"sourceName,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         Bytecode        `json:"bytecode"`
	DeployedBytecode Bytecode        `json:"deployedBytecode,omitempty"`
	LinkReferences   LinkReferences  `json:"linkReferences,omitempty"`
}

// LinkReferences maps source name -> library name -> placeholder offsets.
type LinkReferences map[string]map[string][]LinkReference

// LinkReference is the position of a library address placeholder in bytecode.
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Bytecode contains contract bytecode.
// It handles both formats:
// - Hardhat: "0x608060..."
// - Foundry: {"object": "0x608060...", "linkReferences": {...}}
type Bytecode struct {
	hex            string
	linkReferences LinkReferences
}

// UnmarshalJSON handles both string and object bytecode formats.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object         string         `json:"object"`
		LinkReferences LinkReferences `json:"linkReferences"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		b.hex = obj.Object
		b.linkReferences = obj.LinkReferences
		return nil
	}

	return fmt.Errorf("bytecode must be a string or object with 'object' field")
}

// MarshalJSON marshals the bytecode as a string.
func (b Bytecode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.hex)
}

// String returns the bytecode hex string.
func (b Bytecode) String() string {
	return b.hex
}

// NewBytecode wraps a hex string.
func NewBytecode(hex string) Bytecode {
	return Bytecode{hex: hex}
}

// Name returns the fully qualified name (source:contract) when the source is known.
func (a *ContractArtifact) Name() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// Links returns the creation bytecode link references regardless of artifact format.
func (a *ContractArtifact) Links() LinkReferences {
	if len(a.LinkReferences) > 0 {
		return a.LinkReferences
	}
	return a.Bytecode.linkReferences
}

// Deployable reports why the artifact cannot be used for a contract creation, if at all.
func (a *ContractArtifact) Deployable() error {
	code := strings.TrimPrefix(a.Bytecode.hex, "0x")
	if code == "" {
		return fmt.Errorf("%w: %s is abstract or an interface", ErrEmptyBytecode, a.Name())
	}

	links := a.Links()
	if len(links) > 0 || strings.Contains(code, "__") {
		var libs []string
		for source, names := range links {
			for name := range names {
				libs = append(libs, source+":"+name)
			}
		}
		return fmt.Errorf("%w: %s needs %v", ErrUnlinkedLibraries, a.Name(), libs)
	}
	return nil
}

// GetParsedABI returns the parsed ABI.
func (a *ContractArtifact) GetParsedABI() (abi.ABI, error) {
	if len(a.ABI) == 0 {
		return abi.ABI{}, nil
	}
	return abi.JSON(bytes.NewReader(a.ABI))
}

// GetBytecodeBytes returns the creation bytecode as a byte slice.
func (a *ContractArtifact) GetBytecodeBytes() ([]byte, error) {
	code := a.Bytecode.hex
	if len(code) == 0 {
		return nil, fmt.Errorf("empty bytecode")
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	return hexutil.Decode(code)
}

// EncodeConstructorArgs encodes constructor arguments using the contract's ABI.
// Returns the encoded args (without bytecode prefix) ready to append to bytecode.
func (a *ContractArtifact) EncodeConstructorArgs(args ...interface{}) ([]byte, error) {
	parsedABI, err := a.GetParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	expected := len(parsedABI.Constructor.Inputs)
	if len(args) != expected {
		return nil, fmt.Errorf("constructor of %s expects %d arguments, got %d", a.Name(), expected, len(args))
	}
	if expected == 0 {
		return nil, nil
	}

	packed, err := parsedABI.Constructor.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor args: %w", err)
	}
	return packed, nil
}

// CreationData returns the bytecode with encoded constructor args appended.
func (a *ContractArtifact) CreationData(args ...interface{}) ([]byte, error) {
	bytecode, err := a.GetBytecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("get bytecode: %w", err)
	}

	encoded, err := a.EncodeConstructorArgs(args...)
	if err != nil {
		return nil, err
	}
	return append(bytecode, encoded...), nil
}
