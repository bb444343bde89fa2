package tap2deb

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Defaults applied when the corresponding flag is not set.
const (
	DefaultTapFile         = "twistd.tap"
	DefaultVersion         = "1.0"
	DefaultLongDescription = "Automatically created by tap2deb"
	DefaultBuildRoot       = ".build"
)

// ErrUnknownConfigType is returned for a configuration type outside tap, xml, source and python.
var ErrUnknownConfigType = errors.New("unknown configuration type")

// ConfigType is the kind of Twisted configuration file shipped in the package.
type ConfigType string

const (
	TypeTap    ConfigType = "tap"
	TypeXML    ConfigType = "xml"
	TypeSource ConfigType = "source"
	TypePython ConfigType = "python"
)

// ConfigTypes lists the accepted values of --type.
var ConfigTypes = []ConfigType{TypeTap, TypeXML, TypeSource, TypePython}

// ParseConfigType converts a --type literal.
func ParseConfigType(s string) (ConfigType, error) {
	for _, t := range ConfigTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q, expected one of %s", ErrUnknownConfigType, s, configTypeList())
}

// TwistdOption returns the twistd flag name (--<option>=file) matching the type.
func (t ConfigType) TwistdOption() (string, error) {
	switch t {
	case TypeTap:
		return "file", nil
	case TypePython:
		return "python", nil
	case TypeSource:
		return "source", nil
	case TypeXML:
		return "xml", nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownConfigType, string(t))
}

// String, Set and Type make *ConfigType usable as a command-line flag value.
func (t *ConfigType) String() string { return string(*t) }

func (t *ConfigType) Set(s string) error {
	parsed, err := ParseConfigType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *ConfigType) Type() string { return "type" }

func configTypeList() string {
	var names []string
	for _, t := range ConfigTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// Options holds the command-line parameters of a single run.
type Options struct {
	TapFile         string     // Input file copied in the package (--tapfile)
	Maintainer      string     // "Name <email>" (--maintainer)
	Protocol        string     // Service name, derived from TapFile when empty (--protocol)
	Description     string     // One-line description (--description)
	LongDescription string     // Extended description (--long_description)
	Version         string     // Package version (--set-version)
	DebFile         string     // Package name, twisted-<protocol> when empty (--debfile)
	Type            ConfigType // Kind of configuration file (--type)
	Unsigned        bool       // Pass -uc -us to dpkg-buildpackage (--unsigned)

	BuildRoot      string // Parent directory of the staging tree
	RuntimeVersion string // Python version token, detected when empty
	Keyring        string // Keyring used to verify the signed .changes file
	StageOnly      bool   // Stop after rendering the staging tree
}

// DefaultOptions returns the options used when no flag is given.
func DefaultOptions() Options {
	return Options{
		TapFile:   DefaultTapFile,
		Version:   DefaultVersion,
		Type:      TypeTap,
		BuildRoot: DefaultBuildRoot,
	}
}

// UsageError reports invalid command-line parameters.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Validate checks the options before anything is written to disk.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Maintainer) == "" {
		return usageErrorf("maintainer must be specified.")
	}
	if o.TapFile == "" {
		return usageErrorf("tapfile must not be empty")
	}
	if o.Version == "" {
		return usageErrorf("version must not be empty")
	}
	if _, err := o.Type.TwistdOption(); err != nil {
		return &UsageError{Err: err}
	}
	// These values end up in deb822 fields and shell assignments
	singleLine := []struct {
		flag  string
		value string
	}{
		{"maintainer", o.Maintainer},
		{"protocol", o.Protocol},
		{"description", o.Description},
		{"long_description", o.LongDescription},
		{"set-version", o.Version},
		{"debfile", o.DebFile},
	}
	for _, field := range singleLine {
		if strings.ContainsAny(field.value, "\r\n") {
			return usageErrorf("%s must fit on a single line", field.flag)
		}
	}
	// The version names the staging directory
	if o.Version == "." || o.Version == ".." || strings.ContainsAny(o.Version, `/\`) {
		return usageErrorf("invalid version %q", o.Version)
	}
	return nil
}
