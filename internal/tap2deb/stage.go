package tap2deb

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Stage creates the source package tree <root>/<BuildDirName> and returns its path.
// A previous tree with the same name is removed first.
// The tree is left as is when an error occurs.
func Stage(fs afero.Fs, root string, v Vars) (string, error) {
	dir := filepath.Join(root, v.BuildDirName)

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return "", errors.Wrapf(err, "checking %s", dir)
	}
	if exists {
		if err := fs.RemoveAll(dir); err != nil {
			return "", errors.Wrapf(err, "removing previous build directory %s", dir)
		}
	}

	if err := fs.MkdirAll(filepath.Join(dir, "debian", "source"), 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}

	// The configuration file is installed by debian/rules from the root of the tree
	tap, err := afero.ReadFile(fs, v.TapFile)
	if err != nil {
		return "", errors.Wrapf(err, "reading tap file")
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, v.BaseTapFileName), tap, 0644); err != nil {
		return "", errors.Wrapf(err, "copying %s", v.TapFile)
	}

	for _, f := range Files {
		content, err := Render(f.Path, v)
		if err != nil {
			return "", err
		}
		dest := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := afero.WriteFile(fs, dest, content, 0644); err != nil {
			return "", errors.Wrapf(err, "writing %s", dest)
		}
		if f.Mode != 0644 {
			// Explicit chmod as the umask applies to WriteFile
			if err := fs.Chmod(dest, f.Mode); err != nil {
				return "", errors.Wrapf(err, "changing mode of %s", dest)
			}
		}
	}

	return dir, nil
}

// StagedFiles returns the regular files of a staging tree, relative to dir.
func StagedFiles(fs afero.Fs, dir string) (map[string]os.FileMode, error) {
	ret := make(map[string]os.FileMode)
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		ret[filepath.ToSlash(rel)] = info.Mode().Perm()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
