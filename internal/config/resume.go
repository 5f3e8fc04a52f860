package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/applyhawk/applyhawk/internal/model"
)

// LoadResume reads the plain-text resume YAML at path: a flat mapping of
// section name to section text.
func LoadResume(path string) (*model.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}

	sections := make(map[string]string)
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse resume: %w", err)
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("resume at %s has no sections", path)
	}

	return &model.Resume{Sections: sections}, nil
}
