package main

import (
	"github.com/julien-sobczak/tap2deb/internal/tap2deb"
	"github.com/spf13/cobra"
)

func newRootCommand(newGenerator func(logLevel string) *tap2deb.Generator) *cobra.Command {
	opts := tap2deb.DefaultOptions()
	var logLevel string

	cmd := &cobra.Command{
		Use:   "tap2deb",
		Short: "Create a Debian package from a Twisted application configuration",
		Long: `tap2deb generates the Debian packaging files of a service running a Twisted
application configuration under twistd, then builds the package with
dpkg-buildpackage. The source tree is written to .build/<package>-<version>.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &tap2deb.UsageError{Err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := newGenerator(logLevel).Run(cmd.Context(), opts)
			return err
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &tap2deb.UsageError{Err: err}
	})

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVarP(&opts.TapFile, "tapfile", "t", opts.TapFile, "Twisted configuration file to package")
	flags.StringVarP(&opts.Maintainer, "maintainer", "m", "", "The maintainer's name and email in a specific format: 'John Doe <johndoe@example.com>'")
	flags.StringVarP(&opts.Protocol, "protocol", "p", "", "Protocol name (default: tapfile name without extension)")
	flags.StringVarP(&opts.Description, "description", "e", "", "One-line package description")
	flags.StringVarP(&opts.LongDescription, "long_description", "l", "", "Extended package description")
	flags.StringVarP(&opts.Version, "set-version", "V", opts.Version, "Package version")
	flags.StringVarP(&opts.DebFile, "debfile", "d", "", "Package name (default: twisted-<protocol>)")
	flags.VarP(&opts.Type, "type", "y", "type of configuration: 'tap', 'xml', 'source' or 'python' for .tac files")
	flags.BoolVarP(&opts.Unsigned, "unsigned", "u", false, "Do not sign the source package and the changes file")

	flags.StringVar(&opts.BuildRoot, "build-dir", opts.BuildRoot, "Directory where the source tree is staged")
	flags.StringVar(&opts.RuntimeVersion, "python-version", "", "Python version used in dependencies and twistd path (default: detected)")
	flags.StringVar(&opts.Keyring, "keyring", "", "Keyring used to verify the signature of the changes file")
	flags.BoolVar(&opts.StageOnly, "stage-only", false, "Only write the source tree, do not run dpkg-buildpackage")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	err := cmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, t := range tap2deb.ConfigTypes {
			names = append(names, string(t))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	if err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagFilename("debfile", "deb"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagFilename("tapfile", "tap", "tac", "py", "xml"); err != nil {
		panic(err)
	}

	return cmd
}
