// Package terrain maps terrain categories to stat modifiers and generates
// deterministic terrain assignments over the battle grid.
package terrain

import (
	"math/rand"

	"emberfall/sim/internal/stats"
)

type Type string

const (
	TypePlains   Type = "plains"
	TypeForest   Type = "forest"
	TypeMountain Type = "mountain"
	TypeSwamp    Type = "swamp"
	TypeRuins    Type = "ruins"
)

// Types lists every terrain category in generation order.
func Types() []Type {
	return []Type{TypePlains, TypeForest, TypeMountain, TypeSwamp, TypeRuins}
}

var modifierTable = map[Type]stats.Delta{
	TypePlains: {},
	TypeForest: {
		stats.StatDefense: 5,
		stats.StatSpeed:   -1,
	},
	TypeMountain: {
		stats.StatDefense: 10,
		stats.StatSpeed:   -2,
	},
	TypeSwamp: {
		stats.StatSpeed:       -3,
		stats.StatMagicResist: 5,
	},
	TypeRuins: {
		stats.StatMagicPower: 8,
		stats.StatDefense:    -3,
	},
}

// Modifiers returns the stat adjustment for a terrain category. Unknown
// categories behave like plains.
func Modifiers(t Type) stats.Delta {
	if delta, ok := modifierTable[t]; ok {
		return delta
	}
	return stats.Delta{}
}

// Map is a row-major terrain assignment over a 2-D grid.
type Map struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tiles  [][]Type `json:"tiles"`
}

// Generate produces a terrain assignment drawn from the injected rng. Given
// the same rng state it always yields the same map.
func Generate(width, height int, rng *rand.Rand) Map {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	kinds := Types()
	tiles := make([][]Type, height)
	for y := 0; y < height; y++ {
		row := make([]Type, width)
		for x := 0; x < width; x++ {
			if rng == nil {
				row[x] = TypePlains
				continue
			}
			row[x] = kinds[rng.Intn(len(kinds))]
		}
		tiles[y] = row
	}
	return Map{Width: width, Height: height, Tiles: tiles}
}

// At returns the terrain at a grid position, defaulting to plains outside the
// map bounds.
func (m Map) At(x, y int) Type {
	if y < 0 || y >= len(m.Tiles) {
		return TypePlains
	}
	row := m.Tiles[y]
	if x < 0 || x >= len(row) {
		return TypePlains
	}
	return row[x]
}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	cloned := Map{Width: m.Width, Height: m.Height}
	if m.Tiles == nil {
		return cloned
	}
	cloned.Tiles = make([][]Type, len(m.Tiles))
	for i, row := range m.Tiles {
		cloned.Tiles[i] = append([]Type(nil), row...)
	}
	return cloned
}
