package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
)

func newRefsCommand() *cobra.Command {
	var loose bool
	var includeSelf bool

	cmd := &cobra.Command{
		Use:   "refs <file:line[:col]>",
		Short: "List references to the symbol at a position",
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

				refOpts := xref.RefOptions{Loose: loose, IncludeSelf: includeSelf}
				if ex != nil {
					refOpts.Explain = ex
				}

				locs, err := eng.Refs(cmd.Context(), path, pos, refOpts)
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

	cmd.Flags().BoolVar(&loose, "loose", false, "also match labels that extend the symbol at the cursor")
	cmd.Flags().BoolVar(&includeSelf, "include-self", false, "keep hits on the target's own line")
	return cmd
}
