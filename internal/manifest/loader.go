package manifest

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tungetti/golem/internal/errors"
)

// Load reads and parses a manifest file without validating it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.Configuration, "failed to read manifest", err).
			WithOp("manifest.Load")
	}
	return Parse(data)
}

// Parse parses manifest bytes without validating them.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.Configuration, "failed to parse manifest", err).
			WithOp("manifest.Parse")
	}
	return &m, nil
}

// LoadAndValidate loads a manifest and validates it.
func LoadAndValidate(path string) (*Manifest, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
