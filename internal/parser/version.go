package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/branchcast/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadVersion reads an exported tree version (JSON).
func LoadVersion(path string) (*models.TreeVersion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}

	var v models.TreeVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%s: decode version: %w", path, err)
	}
	if v.Tree == nil || v.Tree.Root() == nil {
		return nil, fmt.Errorf("%s: version has no tree", path)
	}
	return &v, nil
}

// WriteVersion encodes a tree version as indented JSON or YAML.
// YAML output goes through JSON so field names match.
func WriteVersion(w io.Writer, v *models.TreeVersion, format Format) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version: %w", err)
	}

	if format == FormatYAML {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode version: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode version yaml: %w", err)
		}
		return enc.Close()
	}

	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
