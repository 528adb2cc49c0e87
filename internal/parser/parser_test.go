package parser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlExtract = `name: Retail outlook
seed_context:
  initial_state: today
transitions:
  - from: "*"
    to: boom
    observed_frequency: 0.6
    occurrences: 4
    trigger: demand
    factors:
      - {category: market, direction: positive, severity: 40}
  - to: bust
    observed_frequency: 0.4
`

const markdownBrief = `---
seed_context:
  initial_state: today
transitions:
  - to: boom
    observed_frequency: 0.7
---
# Harbor expansion

Notes from the planning session.
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExtractYAML(t *testing.T) {
	f, err := LoadExtract(writeFile(t, "Retail Q3.yaml", yamlExtract))
	require.NoError(t, err)

	assert.Equal(t, "Retail outlook", f.Name)
	assert.Equal(t, "retail-q3", f.MapID)
	assert.Equal(t, "today", f.InitialState())
	require.Len(t, f.Transitions, 2)
	assert.Equal(t, "*->boom", f.Transitions[0].Signature())
	assert.Equal(t, 4, f.Transitions[0].Occurrences)
	assert.Equal(t, models.DirectionPositive, f.Transitions[0].Factors[0].Direction)
	assert.Equal(t, "*->bust", f.Transitions[1].Signature())
}

func TestLoadExtractJSON(t *testing.T) {
	f, err := LoadExtract(writeFile(t, "x.json", `{"map_id":"m7","transitions":[{"from":"a","to":"b","observed_frequency":0.5}]}`))
	require.NoError(t, err)
	assert.Equal(t, "m7", f.MapID)
	assert.Equal(t, "a->b", f.Transitions[0].Signature())

	_, err = LoadExtract(writeFile(t, "bad.json", `{"transitions":[],"bogus":1}`))
	assert.Error(t, err)
}

func TestLoadExtractMarkdown(t *testing.T) {
	f, err := LoadExtract(writeFile(t, "brief.md", markdownBrief))
	require.NoError(t, err)
	assert.Equal(t, "Harbor expansion", f.Name)
	assert.Equal(t, "brief", f.MapID)
	require.Len(t, f.Transitions, 1)

	_, err = ParseExtract([]byte("# no frontmatter\n"), FormatMarkdown)
	assert.True(t, errors.Is(err, models.ErrNoSourceData))
}

func TestParseExtractValidates(t *testing.T) {
	_, err := ParseExtract([]byte("transitions: []\n"), FormatYAML)
	assert.True(t, errors.Is(err, models.ErrNoSourceData))

	_, err = ParseExtract([]byte("transitions:\n  - to: x\n    observed_frequency: 1.5\n"), FormatYAML)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("a.JSON"))
	assert.Equal(t, FormatMarkdown, DetectFormat("a.md"))
	assert.Equal(t, FormatYAML, DetectFormat("a.yml"))
	assert.Equal(t, FormatYAML, DetectFormat("a"))
}

func TestVersionRoundTrip(t *testing.T) {
	v := &models.TreeVersion{
		MapID:   "m1",
		Version: 2,
		Tree: &models.Tree{
			RootID: "r",
			Nodes:  []*models.Node{{ID: "r", Type: models.NodeTypeRoot, Label: "start", Children: []string{}}},
			Edges:  []models.Edge{},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVersion(&buf, v, FormatJSON))
	path := writeFile(t, "v.json", buf.String())

	got, err := LoadVersion(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "start", got.Tree.Root().Label)

	buf.Reset()
	require.NoError(t, WriteVersion(&buf, v, FormatYAML))
	assert.Contains(t, buf.String(), "map_id: m1")
}

func TestLoadVersionRequiresTree(t *testing.T) {
	_, err := LoadVersion(writeFile(t, "v.json", `{"map_id":"m1","version":1}`))
	assert.Error(t, err)
}
