package store

import (
	"crypto/sha256"
	"encoding/binary"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
}

// Chunk holds ground palette ids for a 16x16 patch. Id 0 means no tile.
type Chunk struct {
	CX, CY  int
	Grounds []uint16

	dirty bool
	hash  [32]byte
}

func newChunk(cx, cy int) *Chunk {
	return &Chunk{CX: cx, CY: cy, Grounds: make([]uint16, ChunkSize*ChunkSize), dirty: true}
}

func (c *Chunk) index(x, y int) int {
	return x + y*ChunkSize
}

func (c *Chunk) Get(x, y int) uint16 {
	return c.Grounds[c.index(x, y)]
}

func (c *Chunk) Set(x, y int, g uint16) {
	i := c.index(x, y)
	if c.Grounds[i] == g {
		return
	}
	c.Grounds[i] = g
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Grounds {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type ChunkStore struct {
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{Chunks: map[ChunkKey]*Chunk{}}
}
