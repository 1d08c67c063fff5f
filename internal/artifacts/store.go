package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// buildInfoDir holds compiler inputs/outputs, not per-contract artifacts.
const buildInfoDir = "build-info"

// Store looks up artifacts by contract name under an artifacts directory.
// The layout is <root>/<source path>/<Contract>.json, which both Hardhat
// (artifacts/contracts/X.sol/X.json) and Foundry (out/X.sol/X.json) produce.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the artifacts directory.
func (s *Store) Root() string {
	return s.root
}

// Lookup loads the artifact for name. Name is either a bare contract name
// ("BullBear") or a fully qualified one ("contracts/BullBear.sol:BullBear").
func (s *Store) Lookup(name string) (*ContractArtifact, error) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		artifact, err := s.lookupQualified(name[:i], name[i+1:])
		return artifact, wrapLookupError(name, err)
	}

	paths, err := s.find(name)
	if err != nil {
		return nil, wrapLookupError(name, err)
	}

	switch len(paths) {
	case 0:
		return nil, wrapLookupError(name, fmt.Errorf("%w in %s (compile the contracts first)", ErrArtifactNotFound, s.root))
	case 1:
		artifact, err := s.load(paths[0], name)
		return artifact, wrapLookupError(name, err)
	default:
		candidates := make([]string, len(paths))
		for i, p := range paths {
			candidates[i] = s.qualifiedName(p, name)
		}
		return nil, wrapLookupError(name, fmt.Errorf("%w: use one of %s", ErrAmbiguousArtifact, strings.Join(candidates, ", ")))
	}
}

// List returns the fully qualified names of all artifacts in the store.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.walk(func(path string) {
		contract := strings.TrimSuffix(filepath.Base(path), ".json")
		names = append(names, s.qualifiedName(path, contract))
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) lookupQualified(source, contract string) (*ContractArtifact, error) {
	candidates := []string{
		filepath.Join(s.root, filepath.FromSlash(source), contract+".json"),
		// Foundry flattens source directories.
		filepath.Join(s.root, filepath.Base(source), contract+".json"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return s.load(path, contract)
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrArtifactNotFound, s.root)
}

func (s *Store) find(contract string) ([]string, error) {
	var matches []string
	err := s.walk(func(path string) {
		if filepath.Base(path) == contract+".json" {
			matches = append(matches, path)
		}
	})
	sort.Strings(matches)
	return matches, err
}

// walk calls fn for every contract artifact file under the root.
func (s *Store) walk(fn func(path string)) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !isArtifactFile(path) {
			return nil
		}
		fn(path)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: directory %s does not exist (compile the contracts first)", ErrArtifactNotFound, s.root)
	}
	return err
}

func isArtifactFile(path string) bool {
	if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
		return false
	}
	// Only files inside a source directory (X.sol/) are contract artifacts.
	return filepath.Ext(filepath.Dir(path)) == ".sol"
}

func (s *Store) qualifiedName(path, contract string) string {
	source, err := filepath.Rel(s.root, filepath.Dir(path))
	if err != nil {
		source = filepath.Dir(path)
	}
	return filepath.ToSlash(source) + ":" + contract
}

func (s *Store) load(path, contract string) (*ContractArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var artifact ContractArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformedArtifact, path, err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("%w: %s has no abi", ErrMalformedArtifact, path)
	}

	if artifact.ContractName == "" {
		artifact.ContractName = contract
	}
	if artifact.SourceName == "" {
		artifact.SourceName = strings.TrimSuffix(s.qualifiedName(path, contract), ":"+contract)
	}
	return &artifact, nil
}
