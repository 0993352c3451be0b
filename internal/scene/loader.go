package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentVersion is the only document format version this package reads.
const DocumentVersion = 1

// LoadDocument loads a scene document from a JSON or YAML file, chosen by
// extension.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a scene document from JSON.
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene document JSON: %w", err)
	}
	return checkVersion(&doc)
}

// ParseYAML decodes a scene document from YAML.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene document YAML: %w", err)
	}
	return checkVersion(&doc)
}

func checkVersion(doc *Document) (*Document, error) {
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported scene document version: %d", doc.Version)
	}
	return doc, nil
}
