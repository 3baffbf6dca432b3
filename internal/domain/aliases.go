package domain

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasYAML []byte

// Alias maps a lower-cased place substring to fixed coordinates. The alias
// table is consulted before any geocoding and bypasses it entirely on a hit.
type Alias struct {
	Match string  `yaml:"match" validate:"required,lowercase"`
	Lat   float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon   float64 `yaml:"lon" validate:"gte=-180,lte=180"`
	Name  string  `yaml:"name" validate:"required"`
}

// AliasTable is an ordered list of aliases plus the skip-list of phrases
// known to be non-geocodable. Order matters: the first matching alias wins.
type AliasTable struct {
	Aliases []Alias  `yaml:"aliases" validate:"required,dive"`
	Skip    []string `yaml:"skip"`
}

// DefaultAliases parses and validates the embedded alias table.
func DefaultAliases() (AliasTable, error) {
	return parseAliases(defaultAliasYAML)
}

// LoadAliases reads an alias table from a YAML file, falling back to the
// embedded table when path is empty.
func LoadAliases(path string) (AliasTable, error) {
	if path == "" {
		return DefaultAliases()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AliasTable{}, fmt.Errorf("read alias table: %w", err)
	}
	return parseAliases(data)
}

func parseAliases(data []byte) (AliasTable, error) {
	var t AliasTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return AliasTable{}, fmt.Errorf("parse alias table: %w", err)
	}
	v := validator.New()
	if err := v.Struct(t); err != nil {
		return AliasTable{}, fmt.Errorf("validate alias table: %w", err)
	}
	return t, nil
}

// Resolve matches free text against the alias table by substring. The text
// is normalized the same way alias keys are curated (lower-case, plain
// dashes and spaces).
func (t AliasTable) Resolve(text string) (Alias, bool) {
	if text == "" {
		return Alias{}, false
	}
	norm := NormalizePlace(text)
	for _, a := range t.Aliases {
		if strings.Contains(norm, a.Match) {
			return a, true
		}
	}
	return Alias{}, false
}

// ShouldSkipGeocode reports whether the phrase is on the skip-list of known
// non-geocodable strings.
func (t AliasTable) ShouldSkipGeocode(text string) bool {
	norm := NormalizePlace(text)
	for _, s := range t.Skip {
		if norm == s {
			return true
		}
	}
	return false
}
