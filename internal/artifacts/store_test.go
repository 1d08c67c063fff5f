package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// returnStopCode deploys a contract whose runtime code is a single STOP.
const returnStopCode = "0x6001600c60003960016000f300"

const hardhatArtifact = `{
  "_format": "hh-sol-artifact-1",
  "contractName": "BullBear",
  "sourceName": "contracts/BullBear.sol",
  "abi": [],
  "bytecode": "` + returnStopCode + `",
  "deployedBytecode": "0x00",
  "linkReferences": {},
  "deployedLinkReferences": {}
}`

const foundryArtifact = `{
  "abi": [{"type": "constructor", "inputs": [{"name": "start", "type": "uint256"}], "stateMutability": "nonpayable"}],
  "bytecode": {"object": "` + returnStopCode + `", "sourceMap": "", "linkReferences": {}},
  "deployedBytecode": {"object": "0x00", "sourceMap": "", "linkReferences": {}}
}`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_LookupHardhat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/BullBear.sol/BullBear.json", hardhatArtifact)
	writeFile(t, root, "contracts/BullBear.sol/BullBear.dbg.json", `{"_format": "hh-sol-dbg-1", "buildInfo": "../../build-info/abc.json"}`)
	writeFile(t, root, "build-info/abc.json", `{"solcVersion": "0.8.4"}`)

	artifact, err := NewStore(root).Lookup("BullBear")
	require.NoError(t, err)

	assert.Equal(t, "BullBear", artifact.ContractName)
	assert.Equal(t, "contracts/BullBear.sol:BullBear", artifact.Name())
	assert.Equal(t, returnStopCode, artifact.Bytecode.String())
	assert.NoError(t, artifact.Deployable())
}

func TestStore_LookupFoundry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "BullBear.sol/BullBear.json", foundryArtifact)

	store := NewStore(root)

	artifact, err := store.Lookup("BullBear")
	require.NoError(t, err)
	assert.Equal(t, "BullBear", artifact.ContractName)
	assert.Equal(t, "BullBear.sol", artifact.SourceName)

	qualified, err := store.Lookup("src/BullBear.sol:BullBear")
	require.NoError(t, err)
	assert.Equal(t, artifact.Bytecode.String(), qualified.Bytecode.String())
}

func TestStore_LookupQualified(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/BullBear.sol/BullBear.json", hardhatArtifact)
	writeFile(t, root, "contracts/legacy/BullBear.sol/BullBear.json", hardhatArtifact)

	store := NewStore(root)

	_, err := store.Lookup("BullBear")
	require.ErrorIs(t, err, ErrAmbiguousArtifact)
	assert.Contains(t, err.Error(), "contracts/legacy/BullBear.sol:BullBear")

	artifact, err := store.Lookup("contracts/legacy/BullBear.sol:BullBear")
	require.NoError(t, err)
	assert.Equal(t, "BullBear", artifact.ContractName)
}

func TestStore_LookupErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/Broken.sol/Broken.json", `{"abi": [`)
	writeFile(t, root, "contracts/NoAbi.sol/NoAbi.json", `{"bytecode": "0x00"}`)

	tests := []struct {
		name     string
		root     string
		contract string
		target   error
	}{
		{name: "missing contract", root: root, contract: "BullBear", target: ErrArtifactNotFound},
		{name: "missing qualified contract", root: root, contract: "contracts/BullBear.sol:BullBear", target: ErrArtifactNotFound},
		{name: "missing directory", root: filepath.Join(root, "nope"), contract: "BullBear", target: ErrArtifactNotFound},
		{name: "malformed json", root: root, contract: "Broken", target: ErrMalformedArtifact},
		{name: "missing abi", root: root, contract: "NoAbi", target: ErrMalformedArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.root).Lookup(tt.contract)
			require.ErrorIs(t, err, tt.target)

			var lookupErr *LookupError
			require.True(t, errors.As(err, &lookupErr))
			assert.Equal(t, tt.contract, lookupErr.Name)
		})
	}
}

func TestStore_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/BullBear.sol/BullBear.json", hardhatArtifact)
	writeFile(t, root, "contracts/BullBear.sol/BullBear.dbg.json", `{}`)
	writeFile(t, root, "@openzeppelin/contracts/access/Ownable.sol/Ownable.json", hardhatArtifact)
	writeFile(t, root, "contracts/Vault.vy/Vault.json", hardhatArtifact)
	writeFile(t, root, "cache/solidity-files-cache.json", `{"_format": "hh-sol-cache-2"}`)

	names, err := NewStore(root).List()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"@openzeppelin/contracts/access/Ownable.sol:Ownable",
		"contracts/BullBear.sol:BullBear",
	}, names)
}

func TestWrapLookupError_Nil(t *testing.T) {
	assert.Nil(t, wrapLookupError("BullBear", nil))
}
