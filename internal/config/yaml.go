package config

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// yamlDocument mirrors DeviceConfiguration's shape for YAML unmarshaling.
// This loader is a convenience for local/dev use; the device's XML
// configuration format is parsed by an external collaborator, not this repo.
type yamlDocument struct {
	Identity struct {
		Name         string `yaml:"name"`
		Vendor       string `yaml:"vendor"`
		ProductCode  string `yaml:"product_code"`
		Revision     string `yaml:"revision"`
		SerialNumber string `yaml:"serial_number"`
	} `yaml:"identity"`
	Assemblies []struct {
		Alias      string `yaml:"alias"`
		ClassID    uint16 `yaml:"class_id"`
		InstanceID uint16 `yaml:"instance_id"`
		Direction  string `yaml:"direction"`
		Size       *int   `yaml:"size"`
		Members    []struct {
			Name        string `yaml:"name"`
			DataType    string `yaml:"datatype"`
			Direction   string `yaml:"direction"`
			Offset      *int   `yaml:"offset"`
			Size        *int   `yaml:"size"`
			Description string `yaml:"description"`
		} `yaml:"members"`
	} `yaml:"assemblies"`
}

// LoadYAML parses a YAML device configuration document into a
// DeviceConfiguration, validating the same invariants the spec places on any
// configuration source: every assembly declares a direction, and aliases are
// unique once normalised.
func LoadYAML(data []byte) (DeviceConfiguration, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DeviceConfiguration{}, errors.Wrap(err, "config: malformed YAML payload")
	}

	cfg := DeviceConfiguration{
		Identity: DeviceIdentity{
			Name:         doc.Identity.Name,
			Vendor:       doc.Identity.Vendor,
			ProductCode:  doc.Identity.ProductCode,
			Revision:     doc.Identity.Revision,
			SerialNumber: doc.Identity.SerialNumber,
		},
	}

	seen := map[string]bool{}
	for _, a := range doc.Assemblies {
		key := normaliseAlias(a.Alias)
		if key == "" {
			return DeviceConfiguration{}, errors.New("config: assembly alias must not be empty")
		}
		if seen[key] {
			return DeviceConfiguration{}, errors.Errorf("config: duplicate assembly alias %q", a.Alias)
		}
		seen[key] = true

		direction := a.Direction
		if direction == "config" {
			direction = DirectionConfiguration
		}
		switch direction {
		case DirectionInput, DirectionOutput, DirectionConfiguration, DirectionBidirectional:
		default:
			return DeviceConfiguration{}, errors.Errorf("config: assembly %q has invalid direction %q", a.Alias, a.Direction)
		}

		members := make([]AssemblyMember, 0, len(a.Members))
		for _, m := range a.Members {
			members = append(members, AssemblyMember{
				Name:        m.Name,
				DataType:    m.DataType,
				Direction:   m.Direction,
				Offset:      m.Offset,
				Size:        m.Size,
				Description: m.Description,
			})
		}

		cfg.Assemblies = append(cfg.Assemblies, AssemblyDefinition{
			Alias:      a.Alias,
			ClassID:    a.ClassID,
			InstanceID: a.InstanceID,
			Direction:  direction,
			Size:       a.Size,
			Members:    members,
		})
	}

	return cfg, nil
}
