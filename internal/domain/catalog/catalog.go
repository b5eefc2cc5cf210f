// Package catalog holds the read-only reference lists used to classify
// badge names.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog groups the ordered reference lists.
type Catalog struct {
	// SpecialEvents force a game classification before the generic scan.
	SpecialEvents []string `koanf:"special_events" json:"special_events"`
	// GameKeywords are substrings that mark a game badge.
	GameKeywords []string `koanf:"game_keywords" json:"game_keywords"`
	// SkillBadges are skill badge titles, fuzzy matched.
	SkillBadges []string `koanf:"skill_badges" json:"skill_badges"`
	// LabFree are lab-free course titles, matched exactly after normalization.
	LabFree []string `koanf:"lab_free" json:"lab_free"`
}

// Default returns a fresh copy of the embedded catalog.
func Default() Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return unmarshal(k)
}

// Load reads a YAML catalog file from path.
func Load(path string) (Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Catalog{}, fmt.Errorf("%w: %s: %v", ErrLoadCatalog, path, err)
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (Catalog, error) {
	var c Catalog
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate rejects blank entries; a blank keyword would match every name.
func (c Catalog) Validate() error {
	lists := []struct {
		name    string
		entries []string
	}{
		{"special_events", c.SpecialEvents},
		{"game_keywords", c.GameKeywords},
		{"skill_badges", c.SkillBadges},
		{"lab_free", c.LabFree},
	}
	for _, l := range lists {
		for i, e := range l.entries {
			if strings.TrimSpace(e) == "" {
				return fmt.Errorf("%w: %s[%d] is blank", ErrInvalidCatalog, l.name, i)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate shared lists.
func (c Catalog) Clone() Catalog {
	return Catalog{
		SpecialEvents: append([]string(nil), c.SpecialEvents...),
		GameKeywords:  append([]string(nil), c.GameKeywords...),
		SkillBadges:   append([]string(nil), c.SkillBadges...),
		LabFree:       append([]string(nil), c.LabFree...),
	}
}

// Size returns the total number of entries across all lists.
func (c Catalog) Size() int {
	return len(c.SpecialEvents) + len(c.GameKeywords) + len(c.SkillBadges) + len(c.LabFree)
}
