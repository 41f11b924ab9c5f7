package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
)

func newSymbolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols <file>",
		Short: "Outline the labels, modules and structs of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTestMode(cmd) {
				return nil
			}

			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
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

				syms, err := eng.Symbols(args[0], exi)
				if err != nil {
					return err
				}

				if opts.Jsonl {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), JSONLines(syms))
				} else {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderDocSymbols(eng.Rel(args[0]), syms))
				}
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return nil
			})
		},
	}
}
