package tap2deb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
)

// testdata/golden contains the files generated for echo.tap by Jane Doe on 16 Oct 2026 with Python 3.11.
const goldenDir = "testdata/golden/twisted-echo-1.0"

func echoVars(t *testing.T) Vars {
	v, err := Derive(echoOptions(), "3.11", buildTime)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestRenderGolden(t *testing.T) {
	v := echoVars(t)
	for _, f := range Files {
		t.Run(f.Path, func(t *testing.T) {
			expected, err := os.ReadFile(filepath.Join(goldenDir, filepath.FromSlash(f.Path)))
			if err != nil {
				t.Fatal(err)
			}
			content, err := Render(f.Path, v)
			if err != nil {
				t.Fatal(err)
			}
			if string(content) != string(expected) {
				t.Errorf("Found differences in %s:\n%s", f.Path, diff.CharacterDiff(string(content), string(expected)))
			}
		})
	}
}

func TestRenderFixedFiles(t *testing.T) {
	v := echoVars(t)
	for path, expected := range map[string]string{
		"debian/compat":        "7\n",
		"debian/source/format": "3.0 (native)\n",
		"debian/README.Debian": "This package was auto-generated by tap2deb\n",
	} {
		content, err := Render(path, v)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != expected {
			t.Errorf("Unexpected content for %s: %q", path, content)
		}
	}
}

func TestRenderDependsOnRuntimeVersion(t *testing.T) {
	for _, runtimeVersion := range []string{"3", "3.12", "2.7"} {
		v, err := Derive(echoOptions(), runtimeVersion, buildTime)
		if err != nil {
			t.Fatal(err)
		}
		control, err := Render("debian/control", v)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(control), "\nDepends: python"+runtimeVersion+"-twisted\n") {
			t.Errorf("Missing Depends line for Python %s in:\n%s", runtimeVersion, control)
		}
		initd, err := Render("debian/init.d", v)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(initd), "--exec /usr/bin/twistd"+runtimeVersion+" -- ") {
			t.Errorf("Missing twistd%s in init script", runtimeVersion)
		}
	}
}

func TestRenderTwistdOption(t *testing.T) {
	for _, typ := range ConfigTypes {
		opts := echoOptions()
		opts.Type = typ
		v, err := Derive(opts, "3", buildTime)
		if err != nil {
			t.Fatal(err)
		}
		initd, err := Render("debian/init.d", v)
		if err != nil {
			t.Fatal(err)
		}
		option, _ := typ.TwistdOption()
		if !strings.Contains(string(initd), "--"+option+"=$file") {
			t.Errorf("Missing --%s=$file in init script for type %s", option, typ)
		}
	}
}

func TestRenderAll(t *testing.T) {
	rendered, err := RenderAll(echoVars(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(rendered) != 14 {
		t.Errorf("Expected 14 files, got %d", len(rendered))
	}
	if _, err := Render("debian/watch", echoVars(t)); err == nil {
		t.Errorf("Expected an error for an unknown template")
	}
}
