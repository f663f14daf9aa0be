package persona

import (
	"fmt"
	"os"
	"strings"

	"fortuna/internal/models"

	"gopkg.in/yaml.v3"
)

// Persona is one fortune teller entry in the catalog file.
type Persona struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Specialty    string `yaml:"specialty"`
	AvatarURL    string `yaml:"avatar_url"`
	Greeting     string `yaml:"greeting"`
	Instructions string `yaml:"instructions"`
	Disabled     bool   `yaml:"disabled"`
}

type catalogFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads a persona catalog from disk.
func LoadFile(path string) ([]models.Counterparty, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse decodes catalog YAML into counterparties, keeping file order as sort order.
func Parse(content []byte) ([]models.Counterparty, error) {
	var f catalogFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Personas))
	out := make([]models.Counterparty, 0, len(f.Personas))
	for i, p := range f.Personas {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("persona %d: id is required", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("persona %q: duplicate id", id)
		}
		seen[id] = true
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = id
		}
		out = append(out, models.Counterparty{
			ID:           id,
			Name:         name,
			Specialty:    p.Specialty,
			AvatarURL:    p.AvatarURL,
			Greeting:     strings.TrimSpace(p.Greeting),
			Instructions: strings.TrimSpace(p.Instructions),
			SortOrder:    i,
			IsActive:     !p.Disabled,
		})
	}
	return out, nil
}
