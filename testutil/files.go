package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/spf13/afero"
)

/** PopulateFs creates the test files in the filesystem, relative to its root. */
func PopulateFs(t *testing.T, fs afero.Fs, testfiles map[string][]byte) {
	t.Helper()
	for file, content := range testfiles {
		dir := filepath.Dir(file)
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, file, content, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// CheckFileContains checks the content of a single file.
func CheckFileContains(t *testing.T, fs afero.Fs, path string, content string) {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("Found differences in file %s:\n%s", path, diff.CharacterDiff(string(data), content))
	}
}

// CheckFileMode checks the permission bits of a single file.
func CheckFileMode(t *testing.T, fs afero.Fs, path string, mode os.FileMode) {
	t.Helper()
	info, err := fs.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != mode {
		t.Errorf("Unexpected mode for %s: %v != %v", path, info.Mode().Perm(), mode)
	}
}

// CheckFileExists checks the presence of a single file.
// The path argument can contains glob patterns.
func CheckFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	matches, err := afero.Glob(fs, path)
	if err != nil {
		t.Errorf("Globbing error in path expression %s", path)
		return
	}
	if len(matches) == 0 {
		t.Errorf("Missing file matching %s", path)
	}
}

// CheckFileMissing checks the absence of a single file.
func CheckFileMissing(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if _, err := fs.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Unexpected file %s", path)
	}
}
