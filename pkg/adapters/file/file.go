// Package file loads ontology, ACL and seed entity files (YAML or JSON) into
// the in-memory adapters.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decode reads path and unmarshals it by extension. Anything but .json is YAML.
// A missing file leaves out untouched and reports found=false.
func decode(path string, out any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, out); err != nil {
			return true, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return true, nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}
