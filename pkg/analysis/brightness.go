// Package analysis provides quantitative reductions over CT core scan data.
package analysis

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"corect/pkg/core"
)

var (
	// ErrEmptySlice reports a brightness trace requested over a
	// cross-section with no sections.
	ErrEmptySlice = errors.New("analysis: cross-section has no sections")

	// ErrEmptySection reports a section with no samples, for which mean
	// and standard deviation are undefined.
	ErrEmptySection = errors.New("analysis: section has no samples")
)

// Trace holds the per-section brightness statistics of a cross-section.
// Mean[i] and StdDev[i] always describe the same section at the same
// physical position, in the order the sections were supplied.
type Trace struct {
	// Mean is the arithmetic mean brightness of each section.
	Mean []float64

	// StdDev is the population standard deviation of each section's
	// brightness. The population estimator (divide by N, not N-1) is
	// deliberate: profiles are compared across sections of varying size
	// and must match the convention of the existing plots.
	StdDev []float64
}

// Len returns the number of sections described by the trace.
func (t *Trace) Len() int {
	return len(t.Mean)
}

// BrightnessTrace computes the mean brightness and its population standard
// deviation for each row of the slice, top to bottom. The two profiles are
// returned as a single Trace so their index correspondence cannot be lost.
func BrightnessTrace(s *core.Slice) (*Trace, error) {
	return BrightnessTraceSections(s.Sections())
}

// BrightnessTraceSections computes the brightness trace over an ordered
// sequence of sections. Sections may have unequal lengths; each section's
// statistics depend only on its own samples. The input is never modified,
// and output index i always corresponds to sections[i].
//
// An empty outer sequence yields ErrEmptySlice; any section with zero
// samples yields ErrEmptySection. No partial trace is ever returned.
func BrightnessTraceSections(sections [][]float64) (*Trace, error) {
	if len(sections) == 0 {
		return nil, ErrEmptySlice
	}
	for _, section := range sections {
		if len(section) == 0 {
			return nil, ErrEmptySection
		}
	}

	t := &Trace{
		Mean:   make([]float64, 0, len(sections)),
		StdDev: make([]float64, 0, len(sections)),
	}
	for _, section := range sections {
		t.Mean = append(t.Mean, stat.Mean(section, nil))
		t.StdDev = append(t.StdDev, stat.PopStdDev(section, nil))
	}
	return t, nil
}
