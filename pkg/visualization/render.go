// Package visualization renders core containers and analysis output to
// image files.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"corect/pkg/core"
)

// Colormap selects how brightness values are mapped to pixel colors.
type Colormap int

const (
	// Grayscale maps the finite value range onto 16-bit gray.
	Grayscale Colormap = iota

	// Heat maps the finite value range onto a dark-blue-to-yellow
	// gradient blended in Lab space.
	Heat
)

// ParseColormap resolves a colormap name from configuration.
func ParseColormap(name string) (Colormap, error) {
	switch name {
	case "", "gray", "grayscale":
		return Grayscale, nil
	case "heat":
		return Heat, nil
	default:
		return Grayscale, fmt.Errorf("visualization: unknown colormap %q", name)
	}
}

// heatStops are the gradient keypoints for the Heat colormap.
var heatStops = []colorful.Color{
	{R: 0.07, G: 0.04, B: 0.33},
	{R: 0.47, G: 0.11, B: 0.43},
	{R: 0.87, G: 0.29, B: 0.20},
	{R: 0.99, G: 0.91, B: 0.14},
}

// heatColor blends the gradient keypoints in Lab space at position t in
// [0, 1].
func heatColor(t float64) color.NRGBA {
	if t <= 0 {
		t = 0
	} else if t >= 1 {
		t = 1
	}
	scaled := t * float64(len(heatStops)-1)
	i := int(scaled)
	if i >= len(heatStops)-1 {
		i = len(heatStops) - 2
	}
	c := heatStops[i].BlendLab(heatStops[i+1], scaled-float64(i)).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// finiteRange returns the smallest and largest finite values in the data.
func finiteRange(data []float64) (min, max float64, ok bool) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, min <= max
}

// RenderSlice rasterizes a cross-section. Finite values are scaled to the
// full range of the colormap; masked (NaN) pixels render as transparent
// black.
func RenderSlice(s *core.Slice, cmap Colormap) image.Image {
	min, max, ok := finiteRange(s.Data)
	span := max - min
	norm := func(v float64) float64 {
		if !ok || span == 0 {
			return 0
		}
		return (v - min) / span
	}

	switch cmap {
	case Heat:
		img := image.NewNRGBA(image.Rect(0, 0, s.Cols, s.Rows))
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				v := s.At(r, c)
				if math.IsNaN(v) {
					img.SetNRGBA(c, r, color.NRGBA{})
					continue
				}
				img.SetNRGBA(c, r, heatColor(norm(v)))
			}
		}
		return img
	default:
		img := image.NewGray16(image.Rect(0, 0, s.Cols, s.Rows))
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				v := s.At(r, c)
				if math.IsNaN(v) {
					img.SetGray16(c, r, color.Gray16{})
					continue
				}
				img.SetGray16(c, r, color.Gray16{Y: uint16(math.Max(0, math.Min(65535, norm(v)*65535)))})
			}
		}
		return img
	}
}

// RenderTrim rasterizes a cross-section with red lines overlaid where a
// Trim with the same arguments would cut. Axis 0 draws horizontal lines,
// axis 1 vertical ones. The trim arguments are validated exactly as
// Slice.Trim validates them.
func RenderTrim(s *core.Slice, axis, locStart, locEnd int) (image.Image, error) {
	if axis != 0 && axis != 1 {
		return nil, fmt.Errorf("visualization: axis must be an integer either 0 or 1, got %d", axis)
	}
	if locStart < 0 || locEnd < 0 {
		return nil, fmt.Errorf("visualization: trim amounts must be non-negative, got (%d, %d)", locStart, locEnd)
	}
	if s.Shape()[axis]-locEnd < locStart {
		return nil, fmt.Errorf("visualization: starting index exceeds ending index on axis %d", axis)
	}

	base := RenderSlice(s, Grayscale)
	img := image.NewNRGBA(base.Bounds())
	for y := 0; y < s.Rows; y++ {
		for x := 0; x < s.Cols; x++ {
			img.Set(x, y, base.At(x, y))
		}
	}

	red := color.NRGBA{R: 255, A: 255}
	drawLine := func(loc int) {
		if axis == 0 {
			y := clampIndex(loc, s.Rows)
			for x := 0; x < s.Cols; x++ {
				img.SetNRGBA(x, y, red)
			}
		} else {
			x := clampIndex(loc, s.Cols)
			for y := 0; y < s.Rows; y++ {
				img.SetNRGBA(x, y, red)
			}
		}
	}
	drawLine(locStart)
	drawLine(s.Shape()[axis] - locEnd)
	return img, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// RenderOrthogonal renders the three center cross-sections of a core, one
// per collapsed axis, to aid in understanding the core orientation.
func RenderOrthogonal(c *core.Core, cmap Colormap) ([3]image.Image, error) {
	var views [3]image.Image
	shape := c.Shape()
	for axis := 0; axis < 3; axis++ {
		s, err := c.Slice(axis, shape[axis]/2)
		if err != nil {
			return views, err
		}
		views[axis] = RenderSlice(s, cmap)
	}
	return views, nil
}

// SaveImage writes an image to disk, choosing the encoding from the file
// extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("visualization: saving %s: %w", path, err)
	}
	return nil
}
