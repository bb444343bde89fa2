package dpkg_test

import (
	"strings"
	"testing"

	"github.com/julien-sobczak/tap2deb/internal/dpkg"
)

func TestLintControl(t *testing.T) {
	var tests = []struct {
		name    string
		control string
		errors  []string // Expected substrings in the error message
	}{
		{
			name: "valid",
			control: `Source: twisted-echo
Section: net
Priority: extra
Maintainer: Jane Doe <jane@example.com>
Build-Depends-Indep: debhelper
Standards-Version: 3.5.6

Package: twisted-echo
Architecture: all
Depends: python3.11-twisted
Description: A Twisted-based server for echo
 Automatically created by tap2deb
`,
		},
		{
			name: "invalid names",
			control: `Source: twisted-Echo
Maintainer: Jane Doe <jane@example.com>

Package: twisted_echo
Architecture: all
Depends: python3-twisted
Description: A Twisted-based server for Echo
 Automatically created by tap2deb
`,
			errors: []string{`invalid package name "twisted-Echo" in field Source`, `invalid package name "twisted_echo" in field Package`},
		},
		{
			name: "missing fields",
			control: `Source: twisted-echo

Package: twisted-echo
Description: A Twisted-based server for echo
 Automatically created by tap2deb
`,
			errors: []string{"missing field Maintainer", "missing field Architecture", "missing field Depends"},
		},
		{
			name: "single paragraph",
			control: `Source: twisted-echo
Maintainer: Jane Doe <jane@example.com>
`,
			errors: []string{"found 1 paragraph(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dpkg.LintControl(strings.NewReader(tt.control))
			if len(tt.errors) == 0 {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected errors %v", tt.errors)
			}
			for _, expected := range tt.errors {
				if !strings.Contains(err.Error(), expected) {
					t.Errorf("Missing %q in error:\n%v", expected, err)
				}
			}
		})
	}
}

func TestValidPackageName(t *testing.T) {
	for name, expected := range map[string]bool{
		"twisted-echo":    true,
		"python3.11-foo+": true,
		"a":               false,
		"Twisted":         false,
		"-twisted":        false,
		"twisted echo":    false,
	} {
		if got := dpkg.ValidPackageName(name); got != expected {
			t.Errorf("ValidPackageName(%q) = %v, expected %v", name, got, expected)
		}
	}
}
