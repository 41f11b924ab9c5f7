package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/complete"
)

func newCompleteCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "complete <file:line:col>",
		Short: "Propose labels for the fragment at a position",
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

				comOpts := complete.Options{Limit: limit}
				if ex != nil {
					comOpts.Explain = ex
				}

				// A partial harvest still proposes labels; show them
				// before reporting the error.
				items, err := complete.Complete(cmd.Context(), eng, path, pos, comOpts)

				if opts.Jsonl {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), JSONLines(items))
				} else {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderCompletionItems(items))
				}
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "cap the proposal list (0: no cap)")
	return cmd
}
