package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/set-night/aishifts/internal/domain"
	"gopkg.in/yaml.v3"
)

type profilesFile struct {
	Models []struct {
		ID     string   `yaml:"id"`
		Fields []string `yaml:"fields"`
	} `yaml:"models"`
}

// ModelProfiles maps image model ids to the attachment field names they expect.
// Models without a profile receive every known field.
type ModelProfiles struct {
	profiles map[string]domain.ModelProfile
}

func NewModelProfiles(profiles ...domain.ModelProfile) *ModelProfiles {
	p := &ModelProfiles{profiles: make(map[string]domain.ModelProfile, len(profiles))}
	for _, prof := range profiles {
		p.profiles[prof.ID] = prof
	}
	return p
}

// LoadModelProfiles reads profiles from a yaml file. An empty path yields no profiles.
func LoadModelProfiles(path string) (*ModelProfiles, error) {
	if path == "" {
		return NewModelProfiles(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model profiles: %w", err)
	}
	return ParseModelProfiles(data)
}

func ParseModelProfiles(data []byte) (*ModelProfiles, error) {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model profiles: %w", err)
	}

	profiles := make([]domain.ModelProfile, 0, len(file.Models))
	for _, m := range file.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("model profile without id")
		}
		if len(m.Fields) == 0 {
			return nil, fmt.Errorf("model profile %q has no fields", id)
		}
		for _, f := range m.Fields {
			if !isKnownField(f) {
				return nil, fmt.Errorf("model profile %q: unknown field %q", id, f)
			}
		}
		profiles = append(profiles, domain.ModelProfile{ID: id, AttachmentFields: m.Fields})
	}
	return NewModelProfiles(profiles...), nil
}

// Lookup returns the profile for modelID, falling back to all attachment fields.
func (p *ModelProfiles) Lookup(modelID string) domain.ModelProfile {
	if prof, ok := p.profiles[modelID]; ok {
		return prof
	}
	return domain.ModelProfile{ID: modelID, AttachmentFields: domain.AllAttachmentFields}
}

func (p *ModelProfiles) Len() int {
	return len(p.profiles)
}

func isKnownField(f string) bool {
	for _, known := range domain.AllAttachmentFields {
		if f == known {
			return true
		}
	}
	return false
}
