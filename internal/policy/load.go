package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cerebric/cerebric/pkg/model"
)

// Load reads and decodes a YAML policy document from path.
func Load(path string) (model.PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PolicyDocument{}, fmt.Errorf("read policy file: %w", err)
	}
	var doc model.PolicyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.PolicyDocument{}, fmt.Errorf("parse policy file: %w", err)
	}
	return doc, nil
}
