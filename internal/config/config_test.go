package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const minimalYAML = `
sample:
  percentage: 0.5
  seed: 42
rng:
  variant: pcg
  seed: 42
scenario:
  habitat:
    kind: non_spatial
    width: 4
    height: 4
    deme: 3
  dispersal:
    kind: non_spatial
  speciation:
    kind: uniform
    probability: 0.001
  turnover:
    kind: uniform
    rate: 1.0
algorithm:
  kind: classical
partitioning:
  kind: monolithic
`

func TestParseMinimalDocument(t *testing.T) {
	doc, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, 0.5, doc.Sample.Percentage)
	assert.Equal(t, "non_spatial", doc.Scenario.Habitat.Kind)
	assert.Equal(t, uint32(4), doc.Scenario.Habitat.Width)
}

func TestValidateRejectsBadPercentage(t *testing.T) {
	doc, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	doc.Sample.Percentage = 0
	assert.Error(t, doc.Validate())
}

func TestParseRejectsUnknownHabitatKind(t *testing.T) {
	const badYAML = `
sample:
  percentage: 0.5
scenario:
  habitat:
    kind: not-a-real-kind
algorithm:
  kind: classical
`
	_, err := Parse([]byte(badYAML))
	assert.Error(t, err)
}

func TestValidateRejectsMeshWithoutPeers(t *testing.T) {
	doc, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	doc.Partitioning.Kind = "mesh"
	doc.Partitioning.Peers = nil
	assert.Error(t, doc.Validate())
}

func TestEventSliceAcceptsIntegerForm(t *testing.T) {
	var spec EventSliceSpec
	require.NoError(t, yaml.Unmarshal([]byte("1000"), &spec))
	assert.True(t, spec.IsSet)
	assert.Equal(t, uint64(1000), spec.Fixed)
}

func TestEventSliceAcceptsNamedForm(t *testing.T) {
	var spec EventSliceSpec
	require.NoError(t, yaml.Unmarshal([]byte(`"epoch"`), &spec))
	assert.True(t, spec.IsSet)
	assert.Equal(t, "epoch", spec.Named)
}

func TestEventSliceRejectsUnknownName(t *testing.T) {
	var spec EventSliceSpec
	assert.Error(t, yaml.Unmarshal([]byte(`"not-a-policy"`), &spec))
}
