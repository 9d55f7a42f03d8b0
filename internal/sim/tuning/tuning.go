package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Rotation given to non-line placements when a request omits one.
	DefaultRotation int `yaml:"default_rotation"`

	// Largest pointer-gesture bounding box (in cells) a preview may cover.
	MaxGestureCells int `yaml:"max_gesture_cells"`

	World WorldGen `yaml:"world"`
}

type WorldGen struct {
	Seed          int64 `yaml:"seed"`
	Islands       int   `yaml:"islands"`
	IslandRadius  int   `yaml:"island_radius"`
	IslandSpacing int   `yaml:"island_spacing"`

	SettlementRadius int `yaml:"settlement_radius"`

	RockPermille int `yaml:"rock_permille"`
	TreePermille int `yaml:"tree_permille"`
}

func Defaults() Tuning {
	return Tuning{
		DefaultRotation: 0,
		MaxGestureCells: 64 * 64,
		World: WorldGen{
			Seed:             1337,
			Islands:          4,
			IslandRadius:     24,
			IslandSpacing:    80,
			SettlementRadius: 12,
			RockPermille:     40,
			TreePermille:     120,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	if t.MaxGestureCells <= 0 {
		t.MaxGestureCells = Defaults().MaxGestureCells
	}
	if t.World.IslandSpacing < 2*t.World.IslandRadius+1 {
		t.World.IslandSpacing = 2*t.World.IslandRadius + 1
	}
}

func (t Tuning) Validate() error {
	if t.World.Islands < 0 {
		return fmt.Errorf("world.islands must be >= 0")
	}
	if t.World.IslandRadius <= 0 {
		return fmt.Errorf("world.island_radius must be > 0")
	}
	if t.World.SettlementRadius < 0 {
		return fmt.Errorf("world.settlement_radius must be >= 0")
	}
	if t.World.RockPermille < 0 || t.World.RockPermille > 1000 {
		return fmt.Errorf("world.rock_permille must be in [0,1000]")
	}
	if t.World.TreePermille < 0 || t.World.TreePermille > 1000 {
		return fmt.Errorf("world.tree_permille must be in [0,1000]")
	}
	return nil
}

// Digest hashes the effective (normalized) tuning, so two files that differ
// only in comments or defaulted keys share a digest.
func (t Tuning) Digest() string {
	b, err := yaml.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
