package gen

import "islebuild.ai/internal/geom"

func Hash2(seed int64, x, y int) uint64 {
	return geom.Hash2(seed, x, y)
}

// Roll reports whether the cell's deterministic roll falls under permille.
func Roll(seed int64, x, y, permille int) bool {
	return Hash2(seed, x, y)%1000 < uint64(ClampPermille(permille))
}

func ClampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// WithinRadius reports whether (x,y) lies in the disc of radius r around c.
func WithinRadius(c geom.Point, x, y, r int) bool {
	if r <= 0 {
		return false
	}
	dx := int64(x - c.X)
	dy := int64(y - c.Y)
	rr := int64(r)
	return dx*dx+dy*dy <= rr*rr
}

// CoastRadius jitters the island outline per 8 angular sectors so islands
// are not perfect discs.
func CoastRadius(seed int64, c geom.Point, x, y, r int) int {
	sector := 0
	dx, dy := x-c.X, y-c.Y
	if dx < 0 {
		sector += 4
	}
	if dy < 0 {
		sector += 2
	}
	if geom.AbsInt(dx) < geom.AbsInt(dy) {
		sector++
	}
	cut := int(Hash2(seed, c.X*8+sector, c.Y) % uint64(r/4+1))
	return r - cut
}

func InCluster(seed int64, x, y, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := geom.FloorDiv(x, grid)
	gy := geom.FloorDiv(y, grid)
	r2 := radius * radius

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cgx := gx + dx
			cgy := gy + dy
			h := Hash2(seed, cgx, cgy)
			if h%1000 >= probPermille {
				continue
			}

			ox := int((h >> 10) % uint64(grid))
			oy := int((h >> 20) % uint64(grid))
			cx := cgx*grid + ox
			cy := cgy*grid + oy

			ddx := x - cx
			ddy := y - cy
			if ddx*ddx+ddy*ddy <= r2 {
				return true
			}
		}
	}
	return false
}
