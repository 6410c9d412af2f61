package calculator

import "math"

// 风扇位置
type FanPosition struct {
	Index  int     `json:"index"`
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Placed bool    `json:"placed"` // 落在被掩掉的区域时为 false
}

// Layout returns the rows x cols packing grid for n fans. Both values are
// clamped to at least 1, so callers never divide by zero.
func Layout(n int) (rows, cols int) {
	rows = int(math.Sqrt(float64(n)))
	if rows < 1 {
		rows = 1
	}
	cols = int(math.Ceil(float64(n) / float64(rows)))
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}

// Positions centres n fans in equal cells of the rows x cols grid spanning
// the whole bounding box. Fans fill row by row.
func Positions(n int, width, length float64) []FanPosition {
	if n <= 0 {
		return nil
	}
	rows, cols := Layout(n)
	cellW, cellL := width/float64(cols), length/float64(rows)
	fans := make([]FanPosition, n)
	for i := 0; i < n; i++ {
		col, row := i%cols, i/cols
		fans[i] = FanPosition{
			Index: i,
			Row:   row,
			Col:   col,
			X:     (float64(col) + 0.5) * cellW,
			Y:     (float64(row) + 0.5) * cellL,
		}
	}
	return fans
}
