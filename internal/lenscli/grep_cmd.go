package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/grep"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
)

func newGrepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grep <symbol>",
		Short: "Scan for raw occurrences of a symbol, without scope filtering",
		Long: `grep lists every place the symbol's character sequence occurs outside
comments, before any module or scope reasoning. Useful to see what the
reference search starts from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTestMode(cmd) {
				return nil
			}

			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			pat, err := pattern.Reference(args[0])
			if err != nil {
				return err
			}

			_, settings, err := engineFrom(opts)
			if err != nil {
				return err
			}

			return runMaybeWatch(*opts, settings, cmd.ErrOrStderr(), func() error {
				var ex *ExplainCollector
				if opts.Explain != "" {
					ex = NewExplainCollector(opts.Explain)
				}

				gopts := grep.Options{
					Root:       settings.Root,
					Include:    settings.Include,
					Exclude:    settings.Exclude,
					ScanAll:    settings.ScanAll,
					LanguageID: settings.LanguageID,
					Jobs:       settings.Jobs,
				}
				if ex != nil {
					gopts.Explain = ex
				}

				// Unreadable files drop out of the scan but do not hide
				// the rest; print what was found, then report the error.
				locs, err := grep.Grep(cmd.Context(), pat, gopts)

				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderLocations(*opts, settings.Root, locs))
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return err
			})
		},
	}
}
