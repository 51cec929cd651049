package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mvbarbosa/docpipe/internal/provider"
)

var manifestValidate = validator.New()

// ProvidersManifest is the YAML file describing the configured analysis
// providers. One provider is single mode; two is dual mode.
type ProvidersManifest struct {
	Providers []provider.Config `yaml:"providers" validate:"required,min=1,max=2,dive"`
}

// LoadProviders parses and validates the provider manifest.
func LoadProviders(path string) ([]provider.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers manifest: %w", err)
	}

	var manifest ProvidersManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse providers manifest: %w", err)
	}

	if err := manifestValidate.Struct(&manifest); err != nil {
		return nil, fmt.Errorf("invalid providers manifest: %w", err)
	}

	seen := make(map[string]bool, len(manifest.Providers))
	for _, p := range manifest.Providers {
		if seen[p.Name] {
			return nil, fmt.Errorf("invalid providers manifest: duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true
	}

	return manifest.Providers, nil
}
