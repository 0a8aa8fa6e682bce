package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk product catalog layout. JSON files decode too,
// since YAML is a superset of JSON.
type catalogFile struct {
	Products []Document `yaml:"products"`
}

// LoadDocuments reads a product catalog from a YAML or JSON file. The file is
// either a {products: [...]} object or a bare list.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseDocuments(data)
}

// ParseDocuments decodes a product catalog.
func ParseDocuments(data []byte) ([]Document, error) {
	var list []Document
	if err := yaml.Unmarshal(data, &list); err == nil {
		return validateDocuments(list)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return validateDocuments(file.Products)
}

func validateDocuments(docs []Document) ([]Document, error) {
	for i, d := range docs {
		if d.ID() == "" {
			return nil, fmt.Errorf("product %d: missing string id", i)
		}
	}
	return docs, nil
}
