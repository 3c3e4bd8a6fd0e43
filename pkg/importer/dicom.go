// Package importer loads CT scan datasets from disk into core containers.
package importer

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"corect/pkg/core"
)

// Options controls how a DICOM dataset is loaded.
type Options struct {
	// Dir is the directory containing the DICOM dataset. Ignored when
	// Files is set.
	Dir string

	// Files is an explicit list of file paths belonging to the dataset.
	Files []string

	// Force skips files that fail to parse or lack slice-location
	// metadata instead of aborting the import.
	Force bool

	// IncludeHiddenFiles disables the default skipping of dot-files.
	IncludeHiddenFiles bool
}

// sliceImage is one parsed DICOM slice awaiting assembly into a Core.
type sliceImage struct {
	location  float64
	rows      int
	cols      int
	pixels    []float64
	spacing   [2]float64
	thickness float64
	hasPixDim bool
}

// Dicom loads a DICOM dataset into a Core. Slices are ordered by their
// SliceLocation header ascending along axis 2, and the voxel dimensions are
// taken from the PixelSpacing and SliceThickness headers of the first slice.
func Dicom(opts Options) (*core.Core, error) {
	files, err := collectFiles(opts)
	if err != nil {
		return nil, err
	}

	var slices []sliceImage
	var skipped []string
	for _, f := range files {
		ds, err := dicom.ParseFile(f, nil)
		if err != nil {
			if opts.Force {
				continue
			}
			return nil, fmt.Errorf("importer: parsing %s: %w", f, err)
		}

		loc, ok := sliceLocation(&ds)
		if !ok {
			if !opts.Force {
				return nil, fmt.Errorf("importer: file does not contain SliceLocation in header: %s", f)
			}
			skipped = append(skipped, f)
			continue
		}

		img, err := slicePixels(&ds)
		if err != nil {
			if opts.Force {
				skipped = append(skipped, f)
				continue
			}
			return nil, fmt.Errorf("importer: reading pixel data from %s: %w", f, err)
		}
		img.location = loc
		slices = append(slices, img)
	}

	if len(slices) == 0 {
		return nil, fmt.Errorf("importer: no usable slices found (%d files skipped)", len(skipped))
	}

	return assembleCore(slices, opts.Force)
}

// assembleCore orders the parsed slices by physical location, validates
// that they share one shape, and stacks them along axis 2.
func assembleCore(slices []sliceImage, force bool) (*core.Core, error) {
	// Re-sort to put the slices in physical order.
	sort.Slice(slices, func(i, j int) bool {
		return slices[i].location < slices[j].location
	})

	rows, cols := slices[0].rows, slices[0].cols
	for i, s := range slices {
		if s.rows != rows || s.cols != cols {
			return nil, fmt.Errorf("importer: slice %d has dimensions %dx%d, expected %dx%d", i, s.rows, s.cols, rows, cols)
		}
	}

	// Voxel dimensions, assuming all slices share the first one's spacing.
	pixDim := [3]float64{1.0, 1.0, 1.0}
	if slices[0].hasPixDim {
		pixDim = [3]float64{slices[0].spacing[0], slices[0].spacing[1], slices[0].thickness}
	} else if !force {
		return nil, fmt.Errorf("importer: first slice carries no PixelSpacing metadata")
	}

	// Stack the slices along axis 2.
	nz := len(slices)
	data := make([]float64, rows*cols*nz)
	for z, s := range slices {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				data[(r*cols+c)*nz+z] = s.pixels[r*cols+c]
			}
		}
	}

	return core.NewCore(data, rows, cols, nz, pixDim)
}

// collectFiles resolves the set of candidate dataset files from the options.
func collectFiles(opts Options) ([]string, error) {
	files := opts.Files
	if len(files) == 0 {
		if opts.Dir == "" {
			return nil, fmt.Errorf("importer: must provide a directory or file list")
		}
		entries, err := os.ReadDir(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("importer: reading directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, filepath.Join(opts.Dir, e.Name()))
		}
	}

	if !opts.IncludeHiddenFiles {
		kept := files[:0:0]
		for _, f := range files {
			if strings.HasPrefix(filepath.Base(f), ".") {
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("importer: no candidate files to load")
	}
	return files, nil
}

// sliceLocation extracts the SliceLocation header as a float.
func sliceLocation(ds *dicom.Dataset) (float64, bool) {
	loc, ok := decimalValue(ds, tag.SliceLocation)
	if !ok || math.IsNaN(loc) {
		return 0, false
	}
	return loc, true
}

// decimalValue reads a single decimal-string element from the dataset.
func decimalValue(ds *dicom.Dataset, t tag.Tag) (float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	strs, ok := el.Value.GetValue().([]string)
	if !ok || len(strs) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strs[0]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// slicePixels decodes the first frame of the dataset's pixel data along
// with its physical spacing metadata.
func slicePixels(ds *dicom.Dataset) (sliceImage, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return sliceImage{}, fmt.Errorf("no PixelData element: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return sliceImage{}, fmt.Errorf("PixelData element has no frames")
	}
	native, err := info.Frames[0].GetNativeFrame()
	if err != nil {
		return sliceImage{}, fmt.Errorf("decoding native frame: %w", err)
	}

	img := sliceImage{
		rows:   native.Rows,
		cols:   native.Cols,
		pixels: make([]float64, native.Rows*native.Cols),
	}
	for i, sample := range native.Data {
		// First channel only; core scans are single-sample grayscale.
		img.pixels[i] = float64(sample[0])
	}

	if spacing, ok := pixelSpacing(ds); ok {
		img.spacing = spacing
		img.thickness = 1.0
		if z, ok := decimalValue(ds, tag.SliceThickness); ok {
			img.thickness = z
		}
		img.hasPixDim = true
	}
	return img, nil
}

// pixelSpacing reads the two-valued PixelSpacing header.
func pixelSpacing(ds *dicom.Dataset) ([2]float64, bool) {
	el, err := ds.FindElementByTag(tag.PixelSpacing)
	if err != nil {
		return [2]float64{}, false
	}
	strs, ok := el.Value.GetValue().([]string)
	if !ok || len(strs) < 2 {
		return [2]float64{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(strs[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(strs[1]), 64)
	if errX != nil || errY != nil {
		return [2]float64{}, false
	}
	return [2]float64{x, y}, true
}
