package store

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"islebuild.ai/internal/geom"
)

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}

// Get returns the ground id at p; cells in unloaded chunks have no tile.
func (s *ChunkStore) Get(p geom.Point) uint16 {
	ch, ok := s.Chunks[ChunkKey{CX: geom.FloorDiv(p.X, ChunkSize), CY: geom.FloorDiv(p.Y, ChunkSize)}]
	if !ok {
		return 0
	}
	return ch.Get(geom.Mod(p.X, ChunkSize), geom.Mod(p.Y, ChunkSize))
}

func (s *ChunkStore) Set(p geom.Point, g uint16) {
	k := ChunkKey{CX: geom.FloorDiv(p.X, ChunkSize), CY: geom.FloorDiv(p.Y, ChunkSize)}
	ch, ok := s.Chunks[k]
	if !ok {
		if g == 0 {
			return
		}
		ch = newChunk(k.CX, k.CY)
		s.Chunks[k] = ch
	}
	ch.Set(geom.Mod(p.X, ChunkSize), geom.Mod(p.Y, ChunkSize), g)
}

// Digest hashes every loaded chunk in key order.
func (s *ChunkStore) Digest() string {
	h := sha256.New()
	for _, k := range s.LoadedChunkKeys() {
		d := s.Chunks[k].Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
