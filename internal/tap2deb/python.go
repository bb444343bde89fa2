package tap2deb

import (
	"context"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/julien-sobczak/tap2deb/internal/dpkg"
)

// FallbackRuntimeVersion matches the python3-twisted package and /usr/bin/twistd3.
const FallbackRuntimeVersion = "3"

var runtimeVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// DetectRuntimeVersion asks the local python3 interpreter for its major.minor version.
func DetectRuntimeVersion(ctx context.Context, runner dpkg.Runner, logger hclog.Logger) string {
	output, err := runner.Run(ctx, "", "python3", "-c", `import sys; print("%d.%d" % sys.version_info[:2])`)
	version := strings.TrimSpace(string(output))
	if err != nil || !runtimeVersionPattern.MatchString(version) {
		logger.Warn("unable to determine the Python version, using fallback", "fallback", FallbackRuntimeVersion, "error", err)
		return FallbackRuntimeVersion
	}
	logger.Debug("detected Python version", "version", version)
	return version
}
