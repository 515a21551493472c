package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOptions() Options {
	return Options{Extensions: config.DefaultExtensions}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"c.NEF":     "raw",
		"a.raf":     "raw",
		"b.CR2":     "raw",
		"notes.txt": "not raw",
		"img.jpg":   "not raw",
		"raf":       "no extension",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.dng"), 0755))
	testutils.WriteFile(t, filepath.Join(dir, "sub.dng"), "nested.RAF", []byte("raw"))

	cat, err := Scan(dir, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.raf", "b.CR2", "c.NEF"}, names(cat.Entries()))
	assert.Equal(t, 3, cat.Len())

	for _, e := range cat.Entries() {
		assert.True(t, filepath.IsAbs(e.Path))
		assert.Equal(t, filepath.Join(cat.Dir(), e.Name), e.Path)
		assert.Equal(t, int64(3), e.Size)
		assert.False(t, e.ModTime.IsZero())
	}
}

func TestScanCountMatchesFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"DSCF0003.RAF", "DSCF0001.RAF", "DSCF0002.RAF", "DSC_0001.NEF"} {
		testutils.WriteFile(t, dir, name, []byte("x"))
	}

	cat, err := Scan(dir, defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"DSCF0001.RAF", "DSCF0002.RAF", "DSCF0003.RAF", "DSC_0001.NEF"}, names(cat.Entries()))
}

func TestScanEmptyDirectory(t *testing.T) {
	cat, err := Scan(t.TempDir(), defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
	assert.Empty(t, cat.Entries())
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), defaultOptions())
	require.Error(t, err)
	assert.True(t, errors.IsDirectoryNotFound(err))

	var fileErr *errors.FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Contains(t, fileErr.Path(), "missing")
}

func TestScanFileIsNotDirectory(t *testing.T) {
	path := testutils.WriteFile(t, t.TempDir(), "a.raf", []byte("x"))
	_, err := Scan(path, defaultOptions())
	require.Error(t, err)
	assert.True(t, errors.IsDirectoryNotFound(err))
}

func TestScanRequiresExtensions(t *testing.T) {
	_, err := Scan(t.TempDir(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestNaturalSort(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"IMG_10.CR2", "IMG_2.CR2", "IMG_1.CR2"} {
		testutils.WriteFile(t, dir, name, []byte("x"))
	}

	plain, err := Scan(dir, defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG_1.CR2", "IMG_10.CR2", "IMG_2.CR2"}, names(plain.Entries()))

	natural, err := Scan(dir, Options{Extensions: []string{"cr2"}, NaturalSort: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG_1.CR2", "IMG_2.CR2", "IMG_10.CR2"}, names(natural.Entries()))
}

func TestCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"a.raf": "x",
		"b.nef": "x",
	})

	cat, err := Scan(dir, Options{Extensions: []string{".RAF"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.raf"}, names(cat.Entries()))
	assert.True(t, cat.Matches("X.Raf"))
	assert.False(t, cat.Matches("b.nef"))
}

func TestRescanAndLookup(t *testing.T) {
	dir := t.TempDir()
	a := testutils.WriteFile(t, dir, "a.raf", []byte("x"))
	cat, err := Scan(dir, defaultOptions())
	require.NoError(t, err)

	e, ok := cat.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, "a.raf", e.Name)
	assert.Equal(t, 0, cat.Index(a))

	b := testutils.WriteFile(t, dir, "0.raf", []byte("x"))
	require.NoError(t, os.Remove(a))
	require.NoError(t, cat.Rescan())

	_, ok = cat.Lookup(a)
	assert.False(t, ok)
	assert.Equal(t, -1, cat.Index(a))
	assert.Equal(t, 0, cat.Index(b))

	require.NoError(t, os.RemoveAll(dir))
	err = cat.Rescan()
	assert.True(t, errors.IsDirectoryNotFound(err))
	assert.Equal(t, 1, cat.Len(), "failed rescan keeps the previous entries")
}
