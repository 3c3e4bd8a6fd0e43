// Package core provides the volumetric containers for CT scans of rock cores
// and the geometric operations used to isolate regions of interest before
// analysis. A Core holds the full 3D scan; a Slice is a single 2D
// cross-section extracted from it.
package core

import (
	"fmt"
	"math"
)

// Core represents the CT scan of a rock core sample.
type Core struct {
	// Data is the 3D brightness data as a 1D array in row-major order,
	// indexed as (x*NY + y)*NZ + z. Voxels removed by masking operations
	// (TrimRadial, Filter) are set to NaN.
	Data []float64

	// NX, NY, NZ are the voxel counts along each axis.
	NX, NY, NZ int

	// PixelDimensions is the physical size of each voxel in mm along
	// the x, y and z axes.
	PixelDimensions [3]float64
}

// NewCore builds a Core from flat row-major data and its axis lengths.
func NewCore(data []float64, nx, ny, nz int, pixelDimensions [3]float64) (*Core, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("core: axis lengths must be positive, got (%d, %d, %d)", nx, ny, nz)
	}
	if len(data) != nx*ny*nz {
		return nil, fmt.Errorf("core: data length %d does not match shape (%d, %d, %d)", len(data), nx, ny, nz)
	}
	return &Core{
		Data:            data,
		NX:              nx,
		NY:              ny,
		NZ:              nz,
		PixelDimensions: pixelDimensions,
	}, nil
}

// At returns the brightness value of the voxel at (x, y, z).
func (c *Core) At(x, y, z int) float64 {
	return c.Data[(x*c.NY+y)*c.NZ+z]
}

func (c *Core) set(x, y, z int, v float64) {
	c.Data[(x*c.NY+y)*c.NZ+z] = v
}

// Shape returns the voxel counts along each axis.
func (c *Core) Shape() [3]int {
	return [3]int{c.NX, c.NY, c.NZ}
}

// axisLen returns the voxel count along the given axis.
func (c *Core) axisLen(axis int) int {
	switch axis {
	case 0:
		return c.NX
	case 1:
		return c.NY
	default:
		return c.NZ
	}
}

// Dimensions returns the physical size of the core in mm along each axis.
func (c *Core) Dimensions() [3]float64 {
	return [3]float64{
		float64(c.NX) * c.PixelDimensions[0],
		float64(c.NY) * c.PixelDimensions[1],
		float64(c.NZ) * c.PixelDimensions[2],
	}
}

// Volume returns the physical volume of the scanned material in mm^3,
// counting only voxels that have not been masked out with NaN.
func (c *Core) Volume() float64 {
	voxel := c.PixelDimensions[0] * c.PixelDimensions[1] * c.PixelDimensions[2]
	count := 0
	for _, v := range c.Data {
		if !math.IsNaN(v) {
			count++
		}
	}
	return float64(count) * voxel
}

// Slice extracts the 2D cross-section at loc along the given axis. The
// normal vector of the resulting plane is parallel to the collapsed axis,
// and the slice inherits the pixel dimensions of the two remaining axes.
func (c *Core) Slice(axis, loc int) (*Slice, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}
	if loc < 0 || loc >= c.axisLen(axis) {
		return nil, fmt.Errorf("core: location %d is out of bounds for axis %d with length %d", loc, axis, c.axisLen(axis))
	}

	var rows, cols int
	var pixDim [2]float64
	switch axis {
	case 0:
		rows, cols = c.NY, c.NZ
		pixDim = [2]float64{c.PixelDimensions[1], c.PixelDimensions[2]}
	case 1:
		rows, cols = c.NX, c.NZ
		pixDim = [2]float64{c.PixelDimensions[0], c.PixelDimensions[2]}
	case 2:
		rows, cols = c.NX, c.NY
		pixDim = [2]float64{c.PixelDimensions[0], c.PixelDimensions[1]}
	}

	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			switch axis {
			case 0:
				data[i*cols+j] = c.At(loc, i, j)
			case 1:
				data[i*cols+j] = c.At(i, loc, j)
			case 2:
				data[i*cols+j] = c.At(i, j, loc)
			}
		}
	}

	return NewSlice(data, rows, cols, pixDim)
}

// Trim removes locStart voxels from the beginning and locEnd voxels from the
// end of the given axis, returning a new Core. Callers wanting a symmetric
// trim pass the same amount for both ends.
func (c *Core) Trim(axis, locStart, locEnd int) (*Core, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}
	if locStart < 0 || locEnd < 0 {
		return nil, fmt.Errorf("core: trim amounts must be non-negative, got (%d, %d)", locStart, locEnd)
	}
	n := c.axisLen(axis)
	if n-locEnd < locStart {
		return nil, fmt.Errorf("core: starting index exceeds ending index on axis %d", axis)
	}

	start := [3]int{0, 0, 0}
	end := [3]int{c.NX, c.NY, c.NZ}
	start[axis] = locStart
	end[axis] = n - locEnd
	return c.Chunk(start, end)
}

// Chunk extracts the 3D subregion bounded by start (inclusive) and end
// (exclusive) on each axis. Inverted bounds are swapped, and bounds are
// clamped to the shape of the core.
func (c *Core) Chunk(start, end [3]int) (*Core, error) {
	shape := c.Shape()
	for axis := 0; axis < 3; axis++ {
		if end[axis] < start[axis] {
			start[axis], end[axis] = end[axis], start[axis]
		}
		if start[axis] < 0 {
			start[axis] = 0
		}
		if end[axis] > shape[axis] {
			end[axis] = shape[axis]
		}
		if end[axis] <= start[axis] {
			return nil, fmt.Errorf("core: empty chunk on axis %d", axis)
		}
	}

	nx := end[0] - start[0]
	ny := end[1] - start[1]
	nz := end[2] - start[2]
	out := &Core{
		Data:            make([]float64, nx*ny*nz),
		NX:              nx,
		NY:              ny,
		NZ:              nz,
		PixelDimensions: c.PixelDimensions,
	}
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				out.set(x, y, z, c.At(start[0]+x, start[1]+y, start[2]+z))
			}
		}
	}
	return out, nil
}

// TrimRadial masks out all voxels whose physical in-plane distance from the
// center exceeds radius, then crops the result to the bounding box of the
// kept disk. The plane is perpendicular to the given axis; iCenter and
// jCenter index the remaining two axes in ascending order. Voxels at exactly
// radius are kept; masked voxels become NaN. Physical pixel dimensions are
// honored, so anisotropic voxels produce an elliptical mask in index space.
func (c *Core) TrimRadial(axis int, radius float64, iCenter, jCenter int) (*Core, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("core: radius must be positive, got %g", radius)
	}

	// The two in-plane axes, ascending.
	p, q := planeAxes(axis)
	pd := c.PixelDimensions
	shape := c.Shape()

	// Bounding window of the kept disk on each in-plane axis.
	iHalf := int(math.Floor(radius / pd[p]))
	jHalf := int(math.Floor(radius / pd[q]))
	iMin, iMax := clampWindow(iCenter, iHalf, shape[p])
	jMin, jMax := clampWindow(jCenter, jHalf, shape[q])

	start := [3]int{0, 0, 0}
	end := [3]int{c.NX, c.NY, c.NZ}
	start[p], end[p] = iMin, iMax+1
	start[q], end[q] = jMin, jMax+1

	out, err := c.Chunk(start, end)
	if err != nil {
		return nil, err
	}

	// Mask everything outside the physical radius.
	outShape := out.Shape()
	idx := [3]int{}
	for i := 0; i < outShape[p]; i++ {
		di := float64(i+iMin-iCenter) * pd[p]
		for j := 0; j < outShape[q]; j++ {
			dj := float64(j+jMin-jCenter) * pd[q]
			if math.Hypot(di, dj) <= radius {
				continue
			}
			idx[p], idx[q] = i, j
			for k := 0; k < outShape[axis]; k++ {
				idx[axis] = k
				out.set(idx[0], idx[1], idx[2], math.NaN())
			}
		}
	}
	return out, nil
}

func planeAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func clampWindow(center, half, n int) (int, int) {
	lo := center - half
	hi := center + half
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// SwapAxes returns a new Core with axes a and b exchanged, carrying the
// pixel dimensions along with their axes.
func (c *Core) SwapAxes(a, b int) (*Core, error) {
	if a < 0 || a > 2 || b < 0 || b > 2 {
		return nil, fmt.Errorf("core: axes must be values between 0 and 2 (inclusive), got (%d, %d)", a, b)
	}

	shape := c.Shape()
	shape[a], shape[b] = shape[b], shape[a]
	pd := c.PixelDimensions
	pd[a], pd[b] = pd[b], pd[a]

	out := &Core{
		Data:            make([]float64, len(c.Data)),
		NX:              shape[0],
		NY:              shape[1],
		NZ:              shape[2],
		PixelDimensions: pd,
	}
	for x := 0; x < c.NX; x++ {
		for y := 0; y < c.NY; y++ {
			for z := 0; z < c.NZ; z++ {
				idx := [3]int{x, y, z}
				idx[a], idx[b] = idx[b], idx[a]
				out.set(idx[0], idx[1], idx[2], c.At(x, y, z))
			}
		}
	}
	return out, nil
}

// Flip returns a new Core with the voxel order reversed along the given
// axis. Pixel dimensions are unchanged.
func (c *Core) Flip(axis int) (*Core, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}

	out := &Core{
		Data:            make([]float64, len(c.Data)),
		NX:              c.NX,
		NY:              c.NY,
		NZ:              c.NZ,
		PixelDimensions: c.PixelDimensions,
	}
	shape := c.Shape()
	for x := 0; x < c.NX; x++ {
		for y := 0; y < c.NY; y++ {
			for z := 0; z < c.NZ; z++ {
				idx := [3]int{x, y, z}
				idx[axis] = shape[axis] - 1 - idx[axis]
				out.set(idx[0], idx[1], idx[2], c.At(x, y, z))
			}
		}
	}
	return out, nil
}

// Rotate rotates the core by k 90-degree steps about the given axis. The
// rotation is counterclockwise in the plane of the two remaining axes unless
// clockwise is set. For odd k the in-plane axis lengths and pixel dimensions
// are exchanged.
func (c *Core) Rotate(axis, k int, clockwise bool) (*Core, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}

	k = ((k % 4) + 4) % 4
	if clockwise {
		k = (4 - k) % 4
	}

	out := c
	for step := 0; step < k; step++ {
		out = out.rotate90(axis)
	}
	if out == c {
		// k == 0: still return a copy so callers may mutate freely.
		out = &Core{
			Data:            append([]float64(nil), c.Data...),
			NX:              c.NX,
			NY:              c.NY,
			NZ:              c.NZ,
			PixelDimensions: c.PixelDimensions,
		}
	}
	return out, nil
}

// rotate90 performs a single counterclockwise quarter turn in the plane of
// the two axes other than axis: the in-plane index (i, j) of the result maps
// to (j, Nq-1-i) of the source, with the in-plane extents exchanged.
func (c *Core) rotate90(axis int) *Core {
	p, q := planeAxes(axis)

	shape := c.Shape()
	outShape := shape
	outShape[p], outShape[q] = shape[q], shape[p]
	pd := c.PixelDimensions
	pd[p], pd[q] = pd[q], pd[p]

	out := &Core{
		Data:            make([]float64, len(c.Data)),
		NX:              outShape[0],
		NY:              outShape[1],
		NZ:              outShape[2],
		PixelDimensions: pd,
	}

	src := [3]int{}
	for i := 0; i < outShape[p]; i++ {
		for j := 0; j < outShape[q]; j++ {
			src[p] = j
			src[q] = shape[q] - 1 - i
			for k := 0; k < outShape[axis]; k++ {
				src[axis] = k
				dst := src
				dst[p], dst[q] = i, j
				dst[axis] = k
				out.set(dst[0], dst[1], dst[2], c.At(src[0], src[1], src[2]))
			}
		}
	}
	return out
}

// Filter returns a new Core in which every voxel rejected by keep is
// replaced with NaN. The shape and pixel dimensions are unchanged.
func (c *Core) Filter(keep func(float64) bool) *Core {
	data := make([]float64, len(c.Data))
	for i, v := range c.Data {
		if keep(v) {
			data[i] = v
		} else {
			data[i] = math.NaN()
		}
	}
	return &Core{
		Data:            data,
		NX:              c.NX,
		NY:              c.NY,
		NZ:              c.NZ,
		PixelDimensions: c.PixelDimensions,
	}
}

// Join concatenates other onto the end of this core along the given axis.
// Both cores must have identical pixel dimensions and identical lengths on
// the other two axes.
func (c *Core) Join(other *Core, axis int) (*Core, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("core: axis must be a value between 0 and 2 (inclusive), got %d", axis)
	}
	if other.PixelDimensions != c.PixelDimensions {
		return nil, fmt.Errorf("core: pixel dimensions do not match: %v != %v", other.PixelDimensions, c.PixelDimensions)
	}
	shape, otherShape := c.Shape(), other.Shape()
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		if shape[a] != otherShape[a] {
			return nil, fmt.Errorf("core: shapes do not match on axis %d: %d != %d", a, otherShape[a], shape[a])
		}
	}

	outShape := shape
	outShape[axis] = shape[axis] + otherShape[axis]
	out := &Core{
		Data:            make([]float64, outShape[0]*outShape[1]*outShape[2]),
		NX:              outShape[0],
		NY:              outShape[1],
		NZ:              outShape[2],
		PixelDimensions: c.PixelDimensions,
	}
	for x := 0; x < outShape[0]; x++ {
		for y := 0; y < outShape[1]; y++ {
			for z := 0; z < outShape[2]; z++ {
				idx := [3]int{x, y, z}
				src := c
				if idx[axis] >= shape[axis] {
					src = other
					idx[axis] -= shape[axis]
				}
				out.set(x, y, z, src.At(idx[0], idx[1], idx[2]))
			}
		}
	}
	return out, nil
}
