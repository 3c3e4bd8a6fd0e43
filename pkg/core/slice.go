package core

import (
	"fmt"
	"math"
)

// Slice represents a single 2D cross-section of a Core.
type Slice struct {
	// Data is the 2D brightness data as a 1D array in row-major order,
	// indexed as row*Cols + col.
	Data []float64

	// Rows and Cols are the pixel counts along each axis of the section.
	Rows, Cols int

	// PixelDimensions is the physical size of each pixel in mm as
	// (row pitch, column pitch).
	PixelDimensions [2]float64
}

// NewSlice builds a Slice from flat row-major data and its axis lengths.
func NewSlice(data []float64, rows, cols int, pixelDimensions [2]float64) (*Slice, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("core: slice axis lengths must be positive, got (%d, %d)", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("core: data length %d does not match shape (%d, %d)", len(data), rows, cols)
	}
	return &Slice{Data: data, Rows: rows, Cols: cols, PixelDimensions: pixelDimensions}, nil
}

// At returns the brightness value of the pixel at (row, col).
func (s *Slice) At(row, col int) float64 {
	return s.Data[row*s.Cols+col]
}

// Shape returns the pixel counts as (rows, cols).
func (s *Slice) Shape() [2]int {
	return [2]int{s.Rows, s.Cols}
}

// Dimensions returns the physical size of the section in mm as
// (depth, width).
func (s *Slice) Dimensions() [2]float64 {
	return [2]float64{
		float64(s.Rows) * s.PixelDimensions[0],
		float64(s.Cols) * s.PixelDimensions[1],
	}
}

// Row returns the row at index r as a view into the slice data. The
// returned samples must not be modified.
func (s *Slice) Row(r int) []float64 {
	return s.Data[r*s.Cols : (r+1)*s.Cols]
}

// Column returns a copy of the column at index c.
func (s *Slice) Column(c int) []float64 {
	col := make([]float64, s.Rows)
	for r := 0; r < s.Rows; r++ {
		col[r] = s.At(r, c)
	}
	return col
}

// Sections returns all rows of the slice in top-to-bottom order, each a
// view into the slice data. This is the traversal handed to the
// brightness-trace reduction: one section per physical position down the
// core.
func (s *Slice) Sections() [][]float64 {
	sections := make([][]float64, s.Rows)
	for r := 0; r < s.Rows; r++ {
		sections[r] = s.Row(r)
	}
	return sections
}

// Trim removes locStart pixels from the beginning and locEnd pixels from
// the end of the given axis, returning a new Slice. Axis 0 trims rows
// (horizontal cuts), axis 1 trims columns (vertical cuts). Callers wanting
// a symmetric trim pass the same amount for both ends.
func (s *Slice) Trim(axis, locStart, locEnd int) (*Slice, error) {
	if axis != 0 && axis != 1 {
		return nil, fmt.Errorf("core: axis must be an integer either 0 or 1, got %d", axis)
	}
	if locStart < 0 || locEnd < 0 {
		return nil, fmt.Errorf("core: trim amounts must be non-negative, got (%d, %d)", locStart, locEnd)
	}
	if s.Shape()[axis]-locEnd < locStart {
		return nil, fmt.Errorf("core: starting index exceeds ending index on axis %d", axis)
	}

	rowStart, rowEnd := 0, s.Rows
	colStart, colEnd := 0, s.Cols
	if axis == 0 {
		rowStart, rowEnd = locStart, s.Rows-locEnd
	} else {
		colStart, colEnd = locStart, s.Cols-locEnd
	}

	rows := rowEnd - rowStart
	cols := colEnd - colStart
	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		copy(data[r*cols:(r+1)*cols], s.Row(rowStart+r)[colStart:colEnd])
	}
	return NewSlice(data, rows, cols, s.PixelDimensions)
}

// Filter returns a new Slice in which every pixel rejected by keep is
// replaced with NaN. The shape and pixel dimensions are unchanged.
func (s *Slice) Filter(keep func(float64) bool) *Slice {
	data := make([]float64, len(s.Data))
	for i, v := range s.Data {
		if keep(v) {
			data[i] = v
		} else {
			data[i] = math.NaN()
		}
	}
	return &Slice{Data: data, Rows: s.Rows, Cols: s.Cols, PixelDimensions: s.PixelDimensions}
}
