package dpkg

import (
	"strings"

	"github.com/julien-sobczak/deb822"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultStatusFile is the dpkg database file listing the installed packages.
const DefaultStatusFile = "/var/lib/dpkg/status"

// BuildTools are the packages needed to build the generated source packages.
var BuildTools = []string{"dpkg-dev", "debhelper", "fakeroot"}

// Status is the content of the dpkg status file.
type Status struct {
	Content deb822.Document
	states  map[string]string // Package => Ex: installed, config-files
}

// LoadStatus reads the dpkg status file.
func LoadStatus(fs afero.Fs, path string) (*Status, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parser, err := deb822.NewParser(f)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed status file %s", path)
	}
	content, err := parser.Parse()
	if err != nil {
		return nil, errors.Wrapf(err, "malformed status file %s", path)
	}

	status := &Status{
		Content: content,
		states:  make(map[string]string),
	}
	for _, paragraph := range content.Paragraphs {
		// Ex: Status: install ok installed
		statusValues := strings.Fields(paragraph.Value("Status"))
		if len(statusValues) != 3 {
			continue
		}
		status.states[paragraph.Value("Package")] = statusValues[2]
	}
	return status, nil
}

// Installed reports whether the package is fully installed.
func (s *Status) Installed(name string) bool {
	return s.states[name] == "installed"
}

// Missing returns the packages that are not installed.
func (s *Status) Missing(names ...string) []string {
	var ret []string
	for _, name := range names {
		if !s.Installed(name) {
			ret = append(ret, name)
		}
	}
	return ret
}
