package dpkg

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/julien-sobczak/deb822"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// Archive describes a binary package produced by the build.
type Archive struct {
	Path      string
	Paragraph deb822.Paragraph // DEBIAN/control
	Members   []string         // Ex: debian-binary, control.tar.xz, data.tar.xz
	Conffiles []string
}

func (a *Archive) Name() string {
	return a.Paragraph.Value("Package")
}

func (a *Archive) Version() string {
	return a.Paragraph.Value("Version")
}

func (a *Archive) Architecture() string {
	return a.Paragraph.Value("Architecture")
}

// Inspect reads the control information of a .deb archive.
func Inspect(fs afero.Fs, archivePath string) (*Archive, error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := ar.NewReader(f)

	archive := &Archive{
		Path: archivePath,
	}
	foundControl := false
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", archivePath)
		}
		// GNU ar terminates member names with a slash
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		archive.Members = append(archive.Members, name)

		if !strings.HasPrefix(name, "control.tar") {
			continue
		}
		var bufControl bytes.Buffer
		if err := extractTar(name, &bufControl, reader); err != nil {
			return nil, errors.Wrapf(err, "extracting %s from %s", name, archivePath)
		}
		if err := archive.parseControl(bufControl); err != nil {
			return nil, errors.Wrapf(err, "malformed %s in %s", name, archivePath)
		}
		foundControl = true
	}

	if len(archive.Members) == 0 || archive.Members[0] != "debian-binary" {
		return nil, errors.Errorf("%s is not a Debian archive", archivePath)
	}
	if !foundControl {
		return nil, errors.Errorf("missing control.tar in %s", archivePath)
	}
	return archive, nil
}

// extractTar decompresses a tar member according to its extension.
func extractTar(filename string, writer io.Writer, reader io.Reader) error {
	if strings.HasSuffix(filename, ".gz") {
		gzf, err := gzip.NewReader(reader)
		if err != nil {
			return err
		}
		reader = gzf
	} else if strings.HasSuffix(filename, ".xz") {
		xzf, err := xz.NewReader(reader)
		if err != nil {
			return err
		}
		reader = xzf
	} else if filename != "control.tar" {
		return errors.Errorf("unsupported compression for %s", filename)
	}
	_, err := io.Copy(writer, reader)
	return err
}

func (a *Archive) parseControl(buf bytes.Buffer) error {
	tr := tar.NewReader(&buf)
	foundControl := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return err
		}

		switch filepath.Base(hdr.Name) {
		case "control":
			parser, err := deb822.NewParser(strings.NewReader(buf.String()))
			if err != nil {
				return err
			}
			document, err := parser.Parse()
			if err != nil {
				return err
			}
			if len(document.Paragraphs) == 0 {
				return errors.New("empty control file")
			}
			a.Paragraph = document.Paragraphs[0]
			foundControl = true
		case "conffiles":
			a.Conffiles = ParseLines(buf.String())
		}
	}

	if !foundControl {
		return errors.New("missing control file")
	}
	return nil
}
