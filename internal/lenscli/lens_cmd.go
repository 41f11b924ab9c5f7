package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
)

func newLensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lens <file>",
		Short: "Show reference counts for every definition in a file",
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

				// Unreadable files lower the counts but do not hide the
				// rest; print what was computed, then report the error.
				lenses, err := eng.Lens(cmd.Context(), args[0], exi)

				if opts.Jsonl {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), JSONLines(lenses))
				} else {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderLenses(lenses))
				}
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return err
			})
		},
	}
}
