package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"variantcore/pkg/domain"
)

// LoadModificationConfig reads a YAML modification configuration:
//
//	lighting:
//	  watts_per_area:
//	    method: percentage
//	    range: [-30, -10]
func LoadModificationConfig(path string) (domain.ModificationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := DecodeModificationConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeModificationConfig decodes and validates YAML from r. Unknown fields
// are rejected; every enabled entry must carry the operands its method needs.
func DecodeModificationConfig(r io.Reader) (domain.ModificationConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	cfg := domain.ModificationConfig{}
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode modification config: %w", err)
	}
	for category, params := range cfg {
		for key, pc := range params {
			if !pc.IsEnabled() {
				continue
			}
			if err := pc.Validate(); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", category, key, err)
			}
		}
	}
	return cfg, nil
}
