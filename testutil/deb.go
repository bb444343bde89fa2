package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/blakesmith/ar"
	"github.com/ulikunitz/xz"
)

/** BuildDeb creates a Debian archive in memory. The control files are compressed according to the extension of controlMember (control.tar, control.tar.gz or control.tar.xz). */
func BuildDeb(t *testing.T, controlMember string, controlFiles map[string]string) []byte {
	t.Helper()

	controlTarball := tarballPack(t, controlFiles)
	var compressed bytes.Buffer
	switch {
	case strings.HasSuffix(controlMember, ".gz"):
		w := gzip.NewWriter(&compressed)
		if _, err := w.Write(controlTarball); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	case strings.HasSuffix(controlMember, ".xz"):
		w, err := xz.NewWriter(&compressed)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(controlTarball); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		compressed.Write(controlTarball)
	}

	var deb bytes.Buffer
	writer := ar.NewWriter(&deb)
	if err := writer.WriteGlobalHeader(); err != nil {
		t.Fatal(err)
	}
	arPutFile(t, writer, "debian-binary", []byte("2.0\n"))
	arPutFile(t, writer, controlMember, compressed.Bytes())
	arPutFile(t, writer, "data.tar", tarballPack(t, nil))
	return deb.Bytes()
}

/** arPutFile appends a new file in an ar archive. */
func arPutFile(t *testing.T, w *ar.Writer, name string, body []byte) {
	hdr := &ar.Header{
		Name: name,
		Uid:  0,
		Gid:  0,
		Mode: 0644,
		Size: int64(len(body)),
	}
	if err := w.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(body); err != nil {
		t.Fatal(err)
	}
}

/** tarballPack creates a tar archive containing the files. */
func tarballPack(t *testing.T, files map[string]string) []byte {
	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var bufdata bytes.Buffer
	twdata := tar.NewWriter(&bufdata)
	for _, name := range names {
		content := files[name]
		hdr := &tar.Header{
			Name: "./" + name, // Ex: ./control
			Uid:  0,           // root
			Gid:  0,           // root
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := twdata.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := twdata.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := twdata.Close(); err != nil {
		t.Fatal(err)
	}
	return bufdata.Bytes()
}

/** FormatChanges returns a .changes file listing the given files. */
func FormatChanges(pkg, version string, files map[string][]byte) string {
	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`Format: 1.8
Date: Fri, 16 Oct 2026 09:30:00 -0000
Source: %[1]s
Binary: %[1]s
Architecture: source all
Version: %[2]s
Distribution: unstable
Urgency: low
Maintainer: Jane Doe <jane@example.com>
Changed-By: Jane Doe <jane@example.com>
Description:
 %[1]s - A Twisted-based server
Changes:
 %[1]s (%[2]s) unstable; urgency=low
 .
   * Created by tap2deb
Files:
`, pkg, version))
	for _, name := range names {
		sb.WriteString(fmt.Sprintf(" %x %d net extra %s\n", md5.Sum(files[name]), len(files[name]), name))
	}
	return sb.String()
}
