package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
)

func newDefsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defs <file:line[:col]>",
		Short: "Find the definition of the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTestMode(cmd) {
				return nil
			}

			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			path, pos, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			eng, settings, err := engineFrom(opts)
			if err != nil {
				return err
			}

			return runMaybeWatch(*opts, settings, cmd.ErrOrStderr(), func() error {
				var ex *ExplainCollector
				if opts.Explain != "" {
					ex = NewExplainCollector(opts.Explain)
				}
				var exi explain.Explain
				if ex != nil {
					exi = ex
				}

				locs, err := eng.Defs(cmd.Context(), path, pos, exi)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderLocations(*opts, settings.Root, locs))
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return nil
			})
		},
	}
}
