package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Building shapes select the traversal used to turn a pointer gesture into
// candidate anchors.
const (
	ShapeSingle            = "single"
	ShapeRect              = "rect"
	ShapeLine              = "line"
	ShapeSingleSurrounding = "single_with_surrounding"
)

// GroundNone is palette id 0: the cell carries no island tile.
const GroundNone = "NONE"

type Catalogs struct {
	Buildings BuildingCatalog
	Grounds   GroundCatalog
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	Digest string
}

type BuildingDef struct {
	ID          string   `json:"id"`
	Size        [2]int   `json:"size"` // width, height in cells
	Classes     []string `json:"classes,omitempty"`
	Shape       string   `json:"shape"`
	Radius      int      `json:"radius,omitempty"`
	Surrounding string   `json:"surrounding,omitempty"`
}

type GroundCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]GroundDef
	PaletteDigest string
	DefsDigest    string
}

type GroundDef struct {
	ID      string   `json:"id"`
	Classes []string `json:"classes,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadGrounds(filepath.Join(configDir, "grounds.json"), &c.Grounds); err != nil {
		return nil, err
	}
	return &c, nil
}

// Building looks up a building type by id.
func (c BuildingCatalog) Building(id string) (BuildingDef, bool) {
	d, ok := c.ByID[id]
	return d, ok
}

// IDs returns all building ids in stable order.
func (c BuildingCatalog) IDs() []string {
	ids := lo.Keys(c.ByID)
	sort.Strings(ids)
	return ids
}

func (c GroundCatalog) ByIndex(id uint16) (GroundDef, bool) {
	if int(id) >= len(c.Palette) {
		return GroundDef{}, false
	}
	d, ok := c.Defs[c.Palette[id]]
	return d, ok
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = map[string]BuildingDef{}
	for _, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("buildings.json: duplicate id %s", d.ID)
		}
		if d.Shape == "" {
			d.Shape = ShapeSingle
		}
		out.ByID[d.ID] = d
	}
	for _, id := range out.IDs() {
		if err := out.Validate(out.ByID[id]); err != nil {
			return fmt.Errorf("buildings.json: %w", err)
		}
	}
	return nil
}

// Validate checks a single definition against the rest of the catalog.
func (c BuildingCatalog) Validate(d BuildingDef) error {
	if d.Size[0] <= 0 || d.Size[1] <= 0 {
		return fmt.Errorf("building %s: size must be >= 1x1, got %dx%d", d.ID, d.Size[0], d.Size[1])
	}
	if d.Radius < 0 {
		return fmt.Errorf("building %s: radius must be >= 0", d.ID)
	}
	switch d.Shape {
	case ShapeSingle, ShapeRect, ShapeLine:
	case ShapeSingleSurrounding:
		if d.Surrounding == "" {
			return fmt.Errorf("building %s: shape %s requires surrounding", d.ID, d.Shape)
		}
		if _, ok := c.ByID[d.Surrounding]; !ok {
			return fmt.Errorf("building %s: unknown surrounding building %q", d.ID, d.Surrounding)
		}
	default:
		return fmt.Errorf("building %s: unknown shape %q", d.ID, d.Shape)
	}
	return nil
}

func loadGrounds(path string, out *GroundCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []GroundDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("grounds.json: %w", err)
	}
	out.Defs = map[string]GroundDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("grounds.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	// Ensure NONE exists and is palette id 0.
	if _, ok := out.Defs[GroundNone]; !ok {
		return fmt.Errorf("grounds.json: missing %s", GroundNone)
	}
	ids := lo.Without(lo.Keys(out.Defs), GroundNone)
	sort.Strings(ids)
	ids = append([]string{GroundNone}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}
