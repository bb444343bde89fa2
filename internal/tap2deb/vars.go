package tap2deb

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/julien-sobczak/tap2deb/internal/dpkg"
	"github.com/pkg/errors"
)

// Vars are the values substituted in the packaging templates.
type Vars struct {
	TapFile         string // As given on the command line
	BaseTapFileName string // Ex: echo.tap
	Protocol        string // Ex: echo
	PackageName     string // Ex: twisted-echo
	Version         string // Ex: 1.0
	Maintainer      string // Ex: Jane Doe <jane@example.com>
	Description     string
	LongDescription string
	BuildDirName    string // Ex: twisted-echo-1.0
	RuntimeVersion  string // Ex: 3.11 => python3.11-twisted, /usr/bin/twistd3.11
	TwistdOption    string // Ex: file => twistd --file=/etc/echo.tap
	BuildDate       string // Ex: Fri, 16 Oct 2026 09:30:00 -0000
}

// Derive computes the template variables from the options.
// The package name, given or derived, must be a valid Debian package name.
func Derive(opts Options, runtimeVersion string, now time.Time) (Vars, error) {
	twistdOption, err := opts.Type.TwistdOption()
	if err != nil {
		return Vars{}, err
	}

	base := filepath.Base(opts.TapFile)
	protocol := opts.Protocol
	if protocol == "" {
		protocol = stripExtension(base)
	}
	packageName := opts.DebFile
	if packageName == "" {
		packageName = "twisted-" + protocol
	}
	// The package name names the staging directory
	if !dpkg.ValidPackageName(packageName) {
		return Vars{}, errors.Errorf("invalid package name %q", packageName)
	}
	description := opts.Description
	if description == "" {
		description = "A Twisted-based server for " + protocol
	}
	longDescription := opts.LongDescription
	if longDescription == "" {
		longDescription = DefaultLongDescription
	}

	return Vars{
		TapFile:         opts.TapFile,
		BaseTapFileName: base,
		Protocol:        protocol,
		PackageName:     packageName,
		Version:         opts.Version,
		Maintainer:      opts.Maintainer,
		Description:     description,
		LongDescription: longDescription,
		BuildDirName:    packageName + "-" + opts.Version,
		RuntimeVersion:  runtimeVersion,
		TwistdOption:    twistdOption,
		BuildDate:       FormatDate(now),
	}, nil
}

// FormatDate formats a timestamp as expected in debian/changelog (RFC 2822).
func FormatDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " -0000"
}

// stripExtension removes the last extension of a file name.
// Leading dots are not considered as an extension separator (.tap => .tap).
func stripExtension(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.Trim(stem, ".") == "" {
		return name
	}
	return stem
}
