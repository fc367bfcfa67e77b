package main

import "math"

// SpatialCellSize is ~2x the player collision radius.
const SpatialCellSize = 32.0

// SpatialGrid is a fixed-size grid for broad-phase collision queries over a
// square region centered on the origin. Positions outside the region clamp to
// the border cells, so queries stay a superset of the true overlaps.
type SpatialGrid struct {
	cols, rows int
	half       float64
	cells      [][]int
}

// NewSpatialGrid creates a grid covering [-extent/2, extent/2] on both axes.
func NewSpatialGrid(extent float64) *SpatialGrid {
	n := int(math.Ceil(extent/SpatialCellSize)) + 1
	if n < 1 {
		n = 1
	}
	return &SpatialGrid{
		cols:  n,
		rows:  n,
		half:  extent / 2,
		cells: make([][]int, n*n),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) col(x float64) int {
	c := int(math.Floor((x + g.half) / SpatialCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) row(y float64) int {
	r := int(math.Floor((y + g.half) / SpatialCellSize))
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// Insert adds an entity index at the given position
func (g *SpatialGrid) Insert(x, y float64, idx int) {
	cell := g.row(y)*g.cols + g.col(x)
	g.cells[cell] = append(g.cells[cell], idx)
}

// InsertCircle adds an entity index to all cells overlapping its bounding box
func (g *SpatialGrid) InsertCircle(x, y, radius float64, idx int) {
	minCX, maxCX := g.col(x-radius), g.col(x+radius)
	minCY, maxCY := g.row(y-radius), g.row(y+radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			cell := cy*g.cols + cx
			g.cells[cell] = append(g.cells[cell], idx)
		}
	}
}

// QueryBuf appends the indices in cells overlapping the bounding box to buf and
// returns the extended slice. An index may appear more than once.
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []int) []int {
	minCX, maxCX := g.col(x-radius), g.col(x+radius)
	minCY, maxCY := g.row(y-radius), g.row(y+radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}

// Query returns all entity indices in cells that overlap the given bounding box
func (g *SpatialGrid) Query(x, y, radius float64) []int {
	return g.QueryBuf(x, y, radius, nil)
}
