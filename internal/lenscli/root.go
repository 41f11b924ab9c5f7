package lenscli

import (
	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/version"
)

func NewRootCommand() *cobra.Command {
	opts := newDefaultOptions()
	cmd := &cobra.Command{
		Use:   "asmlens",
		Short: "Symbol cross references for assembly projects",
		Long: `asmlens answers "where is this symbol referenced?" for assembly
projects with dotted, MODULE-scoped labels, without parsing the source.
Positions are given as file:line:col, 1-based.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTestMode(cmd) {
				return nil
			}
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version.String()
	cmd.InitDefaultVersionFlag()
	if f := cmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
	}

	withOptionsContext(cmd, opts)
	bindFlags(cmd, opts)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts := optionsFrom(cmd); opts != nil {
			return opts.Prepare()
		}
		return nil
	}

	cmd.AddCommand(newRefsCommand())
	cmd.AddCommand(newDefsCommand())
	cmd.AddCommand(newRenameCommand())
	cmd.AddCommand(newCompleteCommand())
	cmd.AddCommand(newSymbolsCommand())
	cmd.AddCommand(newLensCommand())
	cmd.AddCommand(newGrepCommand())
	return cmd
}
