package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCorrections reads corrections from a JSON file, or YAML when the
// extension is .yaml or .yml
func LoadCorrections(path string) ([]Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corrections: %w", err)
	}

	var out []Correction
	if isYAML(path) {
		err = yaml.Unmarshal(data, &out)
	} else {
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse corrections %s: %w", path, err)
	}
	return out, nil
}

// WriteItems saves review items in the format implied by the extension
func WriteItems(path string, items []Item) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(items)
	} else {
		data, err = json.MarshalIndent(items, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode review items: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
