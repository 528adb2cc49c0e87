// Package parser reads extract files and exported tree versions.
//
// Extracts can be YAML, JSON, or a Markdown scenario brief whose YAML
// frontmatter holds the extract and whose first heading names the map.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/validation"
	"gopkg.in/yaml.v3"
)

// Format is an input file encoding.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ExtractFile is an extract plus the map metadata carried in the file.
type ExtractFile struct {
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	models.Extract `yaml:",inline"`
}

// DetectFormat picks a format from the file extension. Unknown extensions
// are read as YAML, which also accepts JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatYAML
	}
}

// LoadExtract reads and validates an extract file.
func LoadExtract(path string) (*ExtractFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read extract: %w", err)
	}
	f, err := ParseExtract(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.MapID == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		f.MapID = models.Slugify(base)
	}
	return f, nil
}

// ParseExtract decodes and validates extract content.
func ParseExtract(data []byte, format Format) (*ExtractFile, error) {
	var f ExtractFile

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}

	case FormatMarkdown:
		fm, body, ok := splitFrontmatter(string(data))
		if !ok {
			return nil, fmt.Errorf("markdown brief has no frontmatter: %w", models.ErrNoSourceData)
		}
		if err := yaml.Unmarshal([]byte(fm), &f); err != nil {
			return nil, fmt.Errorf("decode frontmatter: %w", err)
		}
		if f.Name == "" {
			f.Name = firstHeading(body)
		}

	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	if err := validation.ValidateExtract(&f.Extract); err != nil {
		return nil, err
	}
	return &f, nil
}
