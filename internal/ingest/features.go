package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
)

// featureConfig is the YAML layout of features.yaml.
type featureConfig struct {
	Features []featureEntry `yaml:"features"`
}

type featureEntry struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	NegatedDescription string   `yaml:"negated_description"`
	Category           string   `yaml:"category"`
	Type               string   `yaml:"type"`
	Values             []string `yaml:"values"`
}

// readFeatureConfig parses the feature declarations. Feature validation
// (closed type enum, categorical-only values) happens in the domain
// constructor, so a bad declaration aborts the run with a clear message.
func readFeatureConfig(path string) ([]domfeature.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg featureConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Features) == 0 {
		return nil, fmt.Errorf("%s: no features declared", path)
	}

	features := make([]domfeature.Feature, 0, len(cfg.Features))
	for _, entry := range cfg.Features {
		f, err := domfeature.New(
			entry.Name, entry.Description, entry.NegatedDescription,
			entry.Category, domfeature.Type(entry.Type), entry.Values,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		features = append(features, f)
	}
	return features, nil
}
