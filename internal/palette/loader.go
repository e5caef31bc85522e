package palette

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/diamondgrid/assets"
)

// tomlDocument is the TOML layout: palettes = [["#aaa", ...], ...].
type tomlDocument struct {
	Palettes [][]string `toml:"palettes"`
}

// yamlDocument accepts either a bare list of lists or a "palettes" key.
type yamlDocument struct {
	Palettes [][]string `yaml:"palettes"`
}

// Default loads the palette collection embedded in the binary.
func Default() ([]Palette, error) {
	data, err := fs.ReadFile(assets.PalettesFS, assets.DefaultPalettesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded palettes: %w", err)
	}
	return Parse(data, ".json")
}

// Load returns the palettes in path, or the embedded default when path is empty.
func Load(path string) ([]Palette, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads a palette collection from a .json, .yaml/.yml or .toml file.
func LoadFile(path string) ([]Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palettes %s: %w", path, err)
	}
	pals, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse palettes %s: %w", path, err)
	}
	return pals, nil
}

// Parse decodes a palette collection in the format implied by ext.
func Parse(data []byte, ext string) ([]Palette, error) {
	var raw [][]string

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			var doc yamlDocument
			if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
				return nil, fmt.Errorf("invalid yaml: %w", err)
			}
			raw = doc.Palettes
		}
	case ".toml":
		var doc tomlDocument
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
		raw = doc.Palettes
	default:
		return nil, fmt.Errorf("unsupported palette format %q", ext)
	}

	out := make([]Palette, 0, len(raw))
	for i, hexes := range raw {
		p, err := FromHex(hexes)
		if err != nil {
			return nil, fmt.Errorf("palette %d: %w", i, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoPalettes
	}
	return out, nil
}
