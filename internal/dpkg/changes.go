package dpkg

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/julien-sobczak/deb822"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/clearsign"
)

// Changes is the .changes file written by dpkg-buildpackage next to the source tree.
type Changes struct {
	Path      string
	Paragraph deb822.Paragraph
	Files     []ChangesFile
	Signed    bool // True when wrapped in a PGP clearsign envelope
	Verified  bool // True when the signature was checked against a keyring
}

// ChangesFile is an entry of the Files field.
// Ex: 1f3870be274f6c49b3e31a0c6728957f 1696 net extra twisted-echo_1.0_all.deb
type ChangesFile struct {
	MD5sum   string
	Size     int64
	Section  string
	Priority string
	Name     string
}

// FindChanges returns the .changes file of the package in dir.
func FindChanges(fs afero.Fs, dir, pkg, version string) (string, error) {
	// Ex: twisted-echo_1.0_amd64.changes
	pattern := filepath.Join(dir, fmt.Sprintf("%s_%s_*.changes", pkg, version))
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.Errorf("no file matching %s", pattern)
	}
	// Several architectures: the last one in name order wins
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ReadChanges parses a .changes file.
// When keyring is not empty, the file must be signed by one of its keys.
func ReadChanges(fs afero.Fs, path string, keyring string) (*Changes, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	changes := &Changes{
		Path: path,
	}
	content := data
	if b, _ := clearsign.Decode(data); b != nil {
		changes.Signed = true
		content = b.Plaintext
		if keyring != "" {
			if err := checkSignature(fs, b, keyring); err != nil {
				return nil, errors.Wrapf(err, "the signature of %s couldn't be verified", path)
			}
			changes.Verified = true
		}
	} else if keyring != "" {
		return nil, errors.Errorf("%s is not PGP signed", path)
	}

	parser, err := deb822.NewParser(strings.NewReader(string(content)))
	if err != nil {
		return nil, errors.Wrapf(err, "malformed changes file %s", path)
	}
	doc, err := parser.Parse()
	if err != nil {
		return nil, errors.Wrapf(err, "malformed changes file %s", path)
	}
	if len(doc.Paragraphs) == 0 {
		return nil, errors.Errorf("empty changes file %s", path)
	}
	changes.Paragraph = doc.Paragraphs[0]

	changes.Files, err = ParseChangesFiles(changes.Paragraph.Value("Files"))
	if err != nil {
		return nil, errors.Wrapf(err, "malformed Files field in %s", path)
	}
	return changes, nil
}

func checkSignature(fs afero.Fs, b *clearsign.Block, keyring string) error {
	rk, err := fs.Open(keyring)
	if err != nil {
		return errors.Wrapf(err, "error opening keyring")
	}
	defer rk.Close()

	raw, err := io.ReadAll(rk)
	if err != nil {
		return err
	}
	var entities openpgp.EntityList
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("-----BEGIN")) {
		entities, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(raw))
	} else {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(raw)) // binary
	}
	if err != nil {
		return errors.Wrapf(err, "failed to parse keyring %s", keyring)
	}

	_, err = openpgp.CheckDetachedSignature(entities, bytes.NewBuffer(b.Bytes), b.ArmoredSignature.Body)
	return err
}

var whitespaces = regexp.MustCompile(`\s+`)

// ParseChangesFiles parses the multiline Files field of a .changes file.
func ParseChangesFiles(value string) ([]ChangesFile, error) {
	var files []ChangesFile
	for _, line := range ParseLines(value) {
		fields := whitespaces.Split(strings.TrimSpace(line), -1)
		if len(fields) != 5 {
			return nil, errors.Errorf("expected 5 fields in %q", line)
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid size in %q", line)
		}
		files = append(files, ChangesFile{
			MD5sum:   fields[0],
			Size:     size,
			Section:  fields[2],
			Priority: fields[3],
			Name:     fields[4],
		})
	}
	return files, nil
}

// Debs returns the paths of the binary packages listed in the changes file.
func (c *Changes) Debs() []string {
	var ret []string
	for _, f := range c.Files {
		if strings.HasSuffix(f.Name, ".deb") {
			ret = append(ret, filepath.Join(filepath.Dir(c.Path), f.Name))
		}
	}
	return ret
}

// VerifyFiles checks the size and MD5 sum of every file listed in the changes file.
func (c *Changes) VerifyFiles(fs afero.Fs) error {
	var result *multierror.Error
	dir := filepath.Dir(c.Path)
	for _, f := range c.Files {
		path := filepath.Join(dir, f.Name)
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "missing file %s", f.Name))
			continue
		}
		if int64(len(content)) != f.Size {
			result = multierror.Append(result, errors.Errorf("found size mismatch for %s: %d != %d", f.Name, len(content), f.Size))
			continue
		}
		md5sum := fmt.Sprintf("%x", md5.Sum(content))
		if md5sum != f.MD5sum {
			result = multierror.Append(result, errors.Errorf("found MD5 mismatch for %s: %v != %v", f.Name, md5sum, f.MD5sum))
		}
	}
	return result.ErrorOrNil()
}

// ParseLines returns the non-blank lines of a file or multiline field.
func ParseLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines
}
