// Package tap2deb turns a Twisted application configuration file into a Debian
// source package and builds it with dpkg-buildpackage.
package tap2deb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/julien-sobczak/tap2deb/internal/dpkg"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Generator runs the whole conversion: validate, derive, stage and build.
type Generator struct {
	Fs         afero.Fs
	Runner     dpkg.Runner
	Logger     hclog.Logger
	Now        func() time.Time
	StatusFile string // dpkg database used to check the build tools, skipped when empty
}

// NewGenerator returns a generator working on the real filesystem.
func NewGenerator(logger hclog.Logger) *Generator {
	return &Generator{
		Fs:         afero.NewOsFs(),
		Runner:     dpkg.ExecRunner{},
		Logger:     logger,
		Now:        time.Now,
		StatusFile: dpkg.DefaultStatusFile,
	}
}

// Result describes what a run produced.
type Result struct {
	Vars       Vars
	StagingDir string
	Args       []string      // dpkg-buildpackage command line, empty with StageOnly
	Output     []byte        // Combined output of dpkg-buildpackage
	Changes    *dpkg.Changes // Nil when no .changes file was found
	Archives   []*dpkg.Archive
}

// Run generates the source package described by opts and builds it.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := g.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	now := g.Now
	if now == nil {
		now = time.Now
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.BuildRoot == "" {
		opts.BuildRoot = DefaultBuildRoot
	}

	runtimeVersion := opts.RuntimeVersion
	if runtimeVersion == "" {
		runtimeVersion = DetectRuntimeVersion(ctx, g.Runner, logger)
	}
	vars, err := Derive(opts, runtimeVersion, now())
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	logger.Debug("derived variables", "package", vars.PackageName, "version", vars.Version, "protocol", vars.Protocol, "twistd_option", vars.TwistdOption)

	dir, err := Stage(g.Fs, opts.BuildRoot, vars)
	if err != nil {
		return nil, err
	}
	logger.Info("staged source package", "dir", dir)
	if logger.IsTrace() {
		files, err := StagedFiles(g.Fs, dir)
		if err == nil {
			for _, name := range sortedKeys(files) {
				logger.Trace("staged file", "path", name, "mode", files[name])
			}
		}
	}

	control, err := afero.ReadFile(g.Fs, filepath.Join(dir, "debian", "control"))
	if err != nil {
		return nil, err
	}
	if err := dpkg.LintControl(bytes.NewReader(control)); err != nil {
		return nil, errors.Wrap(err, "invalid debian/control")
	}

	result := &Result{
		Vars:       vars,
		StagingDir: dir,
	}
	if opts.StageOnly {
		return result, nil
	}

	g.checkBuildTools(logger)
	result.Args = dpkg.BuildArgs(opts.Unsigned)
	result.Output, err = dpkg.BuildPackage(ctx, g.Runner, dir, opts.Unsigned, logger)
	if err != nil {
		return result, err
	}

	if err := g.collectArtifacts(result, opts, logger); err != nil {
		return result, err
	}
	return result, nil
}

// checkBuildTools warns about missing packages. dpkg-buildpackage reports them too but later.
func (g *Generator) checkBuildTools(logger hclog.Logger) {
	if g.StatusFile == "" {
		return
	}
	status, err := dpkg.LoadStatus(g.Fs, g.StatusFile)
	if err != nil {
		logger.Warn("unable to read the dpkg database", "error", err)
		return
	}
	if missing := status.Missing(dpkg.BuildTools...); len(missing) > 0 {
		logger.Warn("build tools are not installed", "packages", strings.Join(missing, " "))
	}
}

// collectArtifacts checks the files listed in the .changes file left by dpkg-buildpackage.
func (g *Generator) collectArtifacts(result *Result, opts Options, logger hclog.Logger) error {
	path, err := dpkg.FindChanges(g.Fs, opts.BuildRoot, result.Vars.PackageName, result.Vars.Version)
	if err != nil {
		logger.Warn("no changes file found, skipping artifact checks", "error", err)
		return nil
	}

	keyring := opts.Keyring
	if opts.Unsigned {
		keyring = ""
	}
	changes, err := dpkg.ReadChanges(g.Fs, path, keyring)
	if err != nil {
		return err
	}
	result.Changes = changes
	if err := changes.VerifyFiles(g.Fs); err != nil {
		return errors.Wrapf(err, "checking files of %s", path)
	}
	logger.Info("verified changes file", "path", path, "files", len(changes.Files), "signed", changes.Signed, "verified", changes.Verified)

	for _, deb := range changes.Debs() {
		archive, err := dpkg.Inspect(g.Fs, deb)
		if err != nil {
			return err
		}
		result.Archives = append(result.Archives, archive)
		logger.Info("built package", "path", deb, "package", archive.Name(), "version", archive.Version(), "architecture", archive.Architecture())
	}
	return nil
}

func sortedKeys(m map[string]os.FileMode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
