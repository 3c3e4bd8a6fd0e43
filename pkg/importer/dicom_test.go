package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not a dicom file"), 0644))
	return path
}

func TestCollectFilesRequiresInput(t *testing.T) {
	_, err := collectFiles(Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must provide a directory or file list")
}

func TestCollectFilesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dcm")
	b := writeFile(t, dir, "b.dcm")
	writeFile(t, dir, ".hidden.dcm")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	// Hidden files and directories are skipped by default
	files, err := collectFiles(Options{Dir: dir})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a, b}, files)

	// Hidden files can be kept on request
	files, err = collectFiles(Options{Dir: dir, IncludeHiddenFiles: true})
	require.NoError(t, err)
	require.Len(t, files, 3)
}

func TestCollectFilesExplicitList(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dcm")
	hidden := writeFile(t, dir, ".hidden.dcm")

	// An explicit file list still honors hidden-file skipping
	files, err := collectFiles(Options{Files: []string{a, hidden}})
	require.NoError(t, err)
	require.Equal(t, []string{a}, files)

	files, err = collectFiles(Options{Files: []string{a, hidden}, IncludeHiddenFiles: true})
	require.NoError(t, err)
	require.Equal(t, []string{a, hidden}, files)

	// A list of only hidden files leaves nothing to load
	_, err = collectFiles(Options{Files: []string{hidden}})
	require.Error(t, err)
}

func TestDicomRejectsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "garbage.dcm")

	// Without Force the parse failure aborts the import
	_, err := Dicom(Options{Dir: dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing")

	// With Force the file is skipped, leaving no usable slices
	_, err = Dicom(Options{Dir: dir, Force: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no usable slices")
}

func TestDicomEmptyDirectory(t *testing.T) {
	_, err := Dicom(Options{Dir: t.TempDir()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no candidate files")
}

// testSlice builds one parsed slice whose 2x2 pixels all carry value v.
func testSlice(location, v float64) sliceImage {
	return sliceImage{
		location:  location,
		rows:      2,
		cols:      2,
		pixels:    []float64{v, v, v, v},
		spacing:   [2]float64{0.43, 0.43},
		thickness: 0.5,
		hasPixDim: true,
	}
}

func TestAssembleCoreOrdersByLocation(t *testing.T) {
	// Slices arrive in file-listing order, not physical order
	slices := []sliceImage{
		testSlice(5.0, 50),
		testSlice(-3.2, 10),
		testSlice(1.0, 30),
	}

	c, err := assembleCore(slices, false)
	require.NoError(t, err)

	// Stacked along axis 2 in ascending location order
	require.Equal(t, [3]int{2, 2, 3}, c.Shape())
	for r := 0; r < 2; r++ {
		for col := 0; col < 2; col++ {
			require.Equal(t, 10.0, c.At(r, col, 0))
			require.Equal(t, 30.0, c.At(r, col, 1))
			require.Equal(t, 50.0, c.At(r, col, 2))
		}
	}

	// Voxel dimensions come from PixelSpacing and SliceThickness
	require.Equal(t, [3]float64{0.43, 0.43, 0.5}, c.PixelDimensions)
}

func TestAssembleCoreRejectsMismatchedShapes(t *testing.T) {
	big := testSlice(2.0, 20)
	big.rows, big.cols = 3, 3
	big.pixels = make([]float64, 9)
	slices := []sliceImage{testSlice(1.0, 10), big}

	_, err := assembleCore(slices, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "3x3")
}

func TestAssembleCoreMissingSpacing(t *testing.T) {
	bare := testSlice(1.0, 10)
	bare.hasPixDim = false

	// Without Force the missing metadata aborts the import
	_, err := assembleCore([]sliceImage{bare}, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PixelSpacing")

	// With Force the core falls back to 1 mm voxels
	c, err := assembleCore([]sliceImage{bare}, true)
	require.NoError(t, err)
	require.Equal(t, [3]float64{1.0, 1.0, 1.0}, c.PixelDimensions)
}
