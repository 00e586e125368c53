package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys, one per Config section.
const (
	keyData        = "data"
	keyCalculation = "calculation"
	keyCache       = "cache"
	keyStore       = "store"
	keyLogging     = "logging"
	keyOutput      = "output"
	keyMetrics     = "metrics"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A section present in the overlay replaces the whole section in
// target, with fields the overlay omits taking their built-in defaults.
// Absent sections are left unchanged. Unknown keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	defaults := New()
	for key, node := range overlay {
		if err = mergeSection(target, defaults, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// mergeSection decodes node over the default section so the target section
// is replaced rather than merged field by field.
func mergeSection(target, defaults *Config, key string, node *yaml.Node) error {
	switch key {
	case keyData:
		return replace(node, &target.Data, defaults.Data)
	case keyCalculation:
		return replace(node, &target.Calculation, defaults.Calculation)
	case keyCache:
		return replace(node, &target.Cache, defaults.Cache)
	case keyStore:
		return replace(node, &target.Store, defaults.Store)
	case keyLogging:
		return replace(node, &target.Logging, defaults.Logging)
	case keyOutput:
		return replace(node, &target.Output, defaults.Output)
	case keyMetrics:
		return replace(node, &target.Metrics, defaults.Metrics)
	default:
		return nil
	}
}

func replace[T any](node *yaml.Node, dst *T, base T) error {
	v := base
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
