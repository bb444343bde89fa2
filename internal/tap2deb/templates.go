package tap2deb

import (
	"bytes"
	"embed"
	"os"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed templates
var templateFS embed.FS

// File is a generated file of the staging tree.
type File struct {
	Path string      // Relative to the staging directory
	Mode os.FileMode // Permissions applied after writing
}

// Files lists the packaging files, in the order they are written.
var Files = []File{
	{Path: "debian/README.Debian", Mode: 0644},
	{Path: "debian/conffiles", Mode: 0644},
	{Path: "debian/default", Mode: 0644},
	{Path: "debian/init.d", Mode: 0755},
	{Path: "debian/postinst", Mode: 0644},
	{Path: "debian/prerm", Mode: 0644},
	{Path: "debian/postrm", Mode: 0644},
	{Path: "debian/changelog", Mode: 0644},
	{Path: "debian/control", Mode: 0644},
	{Path: "debian/compat", Mode: 0644},
	{Path: "debian/copyright", Mode: 0644},
	{Path: "debian/dirs", Mode: 0644},
	{Path: "debian/source/format", Mode: 0644},
	{Path: "debian/rules", Mode: 0755},
}

var templates = parseTemplates()

func parseTemplates() map[string]*template.Template {
	ret := make(map[string]*template.Template)
	for _, f := range Files {
		// Ex: debian/source/format => templates/debian/source/format.tmpl
		body, err := templateFS.ReadFile("templates/" + f.Path + ".tmpl")
		if err != nil {
			panic(err)
		}
		ret[f.Path] = template.Must(template.New(f.Path).Option("missingkey=error").Parse(string(body)))
	}
	return ret
}

// Render returns the content of the file at the relative path path.
func Render(path string, v Vars) ([]byte, error) {
	tmpl, ok := templates[path]
	if !ok {
		return nil, errors.Errorf("no template for %s", path)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return nil, errors.Wrapf(err, "rendering %s", path)
	}
	return buf.Bytes(), nil
}

// RenderAll renders every file of the staging tree, indexed by relative path.
func RenderAll(v Vars) (map[string][]byte, error) {
	ret := make(map[string][]byte, len(Files))
	for _, f := range Files {
		content, err := Render(f.Path, v)
		if err != nil {
			return nil, err
		}
		ret[f.Path] = content
	}
	return ret, nil
}
