package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"corect/pkg/analysis"
	"corect/pkg/config"
	"corect/pkg/core"
	"corect/pkg/importer"
	"corect/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing the DICOM dataset of the core scan")
	configPath := flag.String("config", "corect.yaml", "Path to YAML configuration file")
	axis := flag.Int("axis", 2, "Axis collapsed when extracting the cross-section (0, 1 or 2)")
	loc := flag.Int("loc", -1, "Location of the cross-section along the axis (-1 for center)")
	trimStart := flag.Int("trim-start", 0, "Rows to trim from the top of the cross-section")
	trimEnd := flag.Int("trim-end", 0, "Rows to trim from the bottom of the cross-section")
	radius := flag.Float64("radius", 0, "Radial trim radius in mm (0 disables radial trimming)")
	filterMin := flag.Float64("filter-min", 0, "Lower brightness bound kept by the filter")
	filterMax := flag.Float64("filter-max", 0, "Upper brightness bound kept by the filter (0 disables filtering)")
	colormap := flag.String("colormap", "", "Colormap for the slice raster (gray or heat)")
	sliceOut := flag.String("slice-out", "slice.png", "Output path for the cross-section raster")
	traceOut := flag.String("trace-out", "trace.png", "Output path for the brightness trace figure")
	trimPreview := flag.String("trim-preview", "", "Optional output path for a trim preview raster")
	flag.Parse()

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration, then let explicitly set flags override it
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "axis":
			cfg.Trace.Axis = *axis
		case "loc":
			cfg.Trace.Loc = *loc
		case "trim-start":
			cfg.Trim.Start = *trimStart
		case "trim-end":
			cfg.Trim.End = *trimEnd
		case "radius":
			cfg.Trim.Radius = *radius
		case "filter-min":
			cfg.Filter.Min = *filterMin
			cfg.Filter.Enabled = true
		case "filter-max":
			cfg.Filter.Max = *filterMax
			cfg.Filter.Enabled = true
		case "colormap":
			cfg.Output.Colormap = *colormap
		}
	})

	cmap, err := visualization.ParseColormap(cfg.Output.Colormap)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Import the scan
	if cfg.Output.Verbose {
		fmt.Printf("Importing DICOM dataset from %s...\n", *inputDir)
	}
	c, err := importer.Dicom(importer.Options{
		Dir:                *inputDir,
		Force:              cfg.Import.Force,
		IncludeHiddenFiles: cfg.Import.IncludeHiddenFiles,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	shape := c.Shape()
	dims := c.Dimensions()
	if cfg.Output.Verbose {
		fmt.Printf("Imported core: %d x %d x %d voxels, %.2f x %.2f x %.2f mm\n",
			shape[0], shape[1], shape[2], dims[0], dims[1], dims[2])
	}

	// Radial trim around the center of the cross-section plane
	if cfg.Trim.Radius > 0 {
		c = radialTrim(c, cfg.Trace.Axis, cfg.Trim.Radius)
		shape = c.Shape()
	}

	// Extract the cross-section
	sliceLoc := cfg.Trace.Loc
	if sliceLoc < 0 {
		sliceLoc = shape[cfg.Trace.Axis] / 2
	}
	s, err := c.Slice(cfg.Trace.Axis, sliceLoc)
	if err != nil {
		log.Fatalf("Slicing failed: %v", err)
	}

	// Preview the linear trim before applying it
	if *trimPreview != "" && (cfg.Trim.Start > 0 || cfg.Trim.End > 0) {
		img, err := visualization.RenderTrim(s, 0, cfg.Trim.Start, cfg.Trim.End)
		if err != nil {
			log.Fatalf("Trim preview failed: %v", err)
		}
		if err := visualization.SaveImage(img, *trimPreview); err != nil {
			log.Fatalf("Trim preview failed: %v", err)
		}
		fmt.Printf("Trim preview saved to: %s\n", *trimPreview)
	}

	// Linear trim of the cross-section rows
	if cfg.Trim.Start > 0 || cfg.Trim.End > 0 {
		s, err = s.Trim(0, cfg.Trim.Start, cfg.Trim.End)
		if err != nil {
			log.Fatalf("Trim failed: %v", err)
		}
	}

	// Brightness thresholding
	if cfg.Filter.Enabled {
		s = s.Filter(brightnessFilter(cfg.Filter.Min, cfg.Filter.Max))
	}

	// Save the cross-section raster
	if err := visualization.SaveImage(visualization.RenderSlice(s, cmap), *sliceOut); err != nil {
		log.Fatalf("Saving slice raster failed: %v", err)
	}
	fmt.Printf("Cross-section raster saved to: %s\n", *sliceOut)

	// Reduce the cross-section to its brightness trace and plot it
	trace, err := analysis.BrightnessTrace(s)
	if err != nil {
		log.Fatalf("Brightness trace failed: %v", err)
	}
	if err := visualization.PlotTrace(trace, s.PixelDimensions[0], *traceOut); err != nil {
		log.Fatalf("Plotting brightness trace failed: %v", err)
	}
	fmt.Printf("Brightness trace figure saved to: %s\n", *traceOut)

	// Print the summary statistics
	fmt.Printf("\nCore summary:\n")
	fmt.Printf("=============\n")
	dims = c.Dimensions()
	fmt.Printf("Shape: %d x %d x %d voxels\n", shape[0], shape[1], shape[2])
	fmt.Printf("Physical size: %.2f x %.2f x %.2f mm\n", dims[0], dims[1], dims[2])
	fmt.Printf("Material volume: %.2f mm^3\n", c.Volume())
	fmt.Printf("Trace sections: %d\n", trace.Len())
	fmt.Printf("Brightness range: %.2f to %.2f HU\n", minOf(trace.Mean), maxOf(trace.Mean))
}

// radialTrim masks the core outside the given radius about the center of
// the plane perpendicular to axis.
func radialTrim(c *core.Core, axis int, radius float64) *core.Core {
	shape := c.Shape()
	var iCenter, jCenter int
	switch axis {
	case 0:
		iCenter, jCenter = shape[1]/2, shape[2]/2
	case 1:
		iCenter, jCenter = shape[0]/2, shape[2]/2
	default:
		iCenter, jCenter = shape[0]/2, shape[1]/2
	}
	trimmed, err := c.TrimRadial(axis, radius, iCenter, jCenter)
	if err != nil {
		log.Fatalf("Radial trim failed: %v", err)
	}
	return trimmed
}

// brightnessFilter keeps values within [min, max]. A zero max leaves the
// filter unbounded above, so a lower threshold can be used on its own.
func brightnessFilter(min, max float64) func(float64) bool {
	return func(v float64) bool {
		if v < min {
			return false
		}
		return max == 0 || v <= max
	}
}

func minOf(values []float64) float64 {
	min := math.Inf(1)
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	return min
}

func maxOf(values []float64) float64 {
	max := math.Inf(-1)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
