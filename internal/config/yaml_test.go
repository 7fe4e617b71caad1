package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
identity:
  name: Widget Press 1
  vendor: Acme
assemblies:
  - alias: Input1
    class_id: 0x64
    instance_id: 100
    direction: input
    size: 8
  - alias: Output1
    class_id: 0x64
    instance_id: 150
    direction: output
    size: 4
    members:
      - name: speed
        offset: 0
        size: 2
`

func TestLoadYAMLParsesAssemblies(t *testing.T) {
	cfg, err := LoadYAML([]byte(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "Widget Press 1", cfg.Identity.Name)
	require.Len(t, cfg.Assemblies, 2)
	require.Equal(t, uint16(100), cfg.Assemblies[0].InstanceID)
	require.True(t, cfg.Assemblies[0].IsInput())
	require.True(t, cfg.Assemblies[1].IsOutput())
	require.Len(t, cfg.Assemblies[1].Members, 1)
}

func TestLoadYAMLRejectsDuplicateAlias(t *testing.T) {
	doc := `
assemblies:
  - alias: Input1
    class_id: 1
    instance_id: 1
    direction: input
  - alias: input1
    class_id: 2
    instance_id: 2
    direction: input
`
	_, err := LoadYAML([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestLoadYAMLRejectsInvalidDirection(t *testing.T) {
	doc := `
assemblies:
  - alias: Bad
    class_id: 1
    instance_id: 1
    direction: sideways
`
	_, err := LoadYAML([]byte(doc))
	require.Error(t, err)
}

func TestLoadYAMLAcceptsConfigurationDirectionAndConfigAlias(t *testing.T) {
	doc := `
assemblies:
  - alias: Params
    class_id: 1
    instance_id: 1
    direction: configuration
  - alias: Params2
    class_id: 1
    instance_id: 2
    direction: config
`
	cfg, err := LoadYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cfg.Assemblies, 2)
	require.Equal(t, DirectionConfiguration, cfg.Assemblies[0].Direction)
	require.Equal(t, DirectionConfiguration, cfg.Assemblies[1].Direction)
	require.False(t, cfg.Assemblies[0].IsInput())
	require.False(t, cfg.Assemblies[0].IsOutput())
}

func TestAliasMapping(t *testing.T) {
	cfg, err := LoadYAML([]byte(sampleYAML))
	require.NoError(t, err)
	mapping := cfg.AliasMapping()
	require.Equal(t, [2]uint16{0x64, 100}, mapping["input1"])
}
