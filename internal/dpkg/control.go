package dpkg

import (
	"io"
	"regexp"

	"github.com/hashicorp/go-multierror"
	"github.com/julien-sobczak/deb822"
	"github.com/pkg/errors"
)

// Debian policy 5.6.1: at least two characters, lowercase letters, digits, + - .
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

// ValidPackageName reports whether name can be used as a Debian package name.
func ValidPackageName(name string) bool {
	return packageNamePattern.MatchString(name)
}

// LintControl checks a debian/control file of a source tree before building it.
// Every problem found is reported.
func LintControl(r io.Reader) error {
	parser, err := deb822.NewParser(r)
	if err != nil {
		return errors.Wrap(err, "malformed control file")
	}
	doc, err := parser.Parse()
	if err != nil {
		return errors.Wrap(err, "malformed control file")
	}
	if len(doc.Paragraphs) != 2 {
		return errors.Errorf("expected a source and a binary paragraph in control file, found %d paragraph(s)", len(doc.Paragraphs))
	}
	source, binary := doc.Paragraphs[0], doc.Paragraphs[1]

	var result *multierror.Error
	checkName := func(p deb822.Paragraph, field string) {
		name := p.Value(field)
		if name == "" {
			result = multierror.Append(result, errors.Errorf("missing field %s", field))
		} else if !ValidPackageName(name) {
			result = multierror.Append(result, errors.Errorf("invalid package name %q in field %s", name, field))
		}
	}
	checkPresent := func(p deb822.Paragraph, field string) {
		if p.Value(field) == "" {
			result = multierror.Append(result, errors.Errorf("missing field %s", field))
		}
	}

	checkName(source, "Source")
	checkPresent(source, "Maintainer")
	checkName(binary, "Package")
	checkPresent(binary, "Architecture")
	checkPresent(binary, "Depends")
	checkPresent(binary, "Description")

	return result.ErrorOrNil()
}
