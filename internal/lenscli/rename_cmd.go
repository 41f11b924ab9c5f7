package lenscli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/core/rename"
	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// renameReport is the jsonl shape of one rename run. The one-shot CLI holds
// no editor buffers, so every change lands on disk and there are no host
// edits to report.
type renameReport struct {
	Rewritten []string         `json:"rewritten,omitempty"`
	Skipped   []rename.Skip    `json:"skipped,omitempty"`
	Locations []model.Location `json:"locations"`
}

func newRenameCommand() *cobra.Command {
	var yes bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "rename <file:line[:col]> <new-name>",
		Short: "Rename the symbol at a position across the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTestMode(cmd) {
				return nil
			}

			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			if opts.Watch {
				return fmt.Errorf("rename does not support --watch")
			}

			path, pos, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			newName := args[1]

			eng, settings, err := engineFrom(opts)
			if err != nil {
				return err
			}
			if !yes && !settings.EnableRenaming {
				return fmt.Errorf("renaming is disabled; pass --yes or set enable_renaming in the project config")
			}

			var ex *ExplainCollector
			if opts.Explain != "" {
				ex = NewExplainCollector(opts.Explain)
			}

			renOpts := xref.RenameOptions{Verify: verify || settings.VerifyWrites}
			if ex != nil {
				renOpts.Explain = ex
			}

			res, locs, err := eng.Rename(cmd.Context(), path, pos, newName, renOpts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Jsonl {
				_, _ = fmt.Fprint(out, JSONLines([]renameReport{{
					Rewritten: res.Rewritten,
					Skipped:   res.Skipped,
					Locations: locs,
				}}))
			} else {
				for _, p := range res.Rewritten {
					_, _ = fmt.Fprintf(out, "rewrote %s\n", p)
				}
				for _, s := range res.Skipped {
					_, _ = fmt.Fprintf(out, "skipped %s: %s\n", s.Path, s.Reason)
				}
				_, _ = fmt.Fprintf(out, "renamed %d locations\n", len(locs))
			}

			if ex != nil {
				_ = ex.Emit(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "rewrite files even when the project config does not enable renaming")
	cmd.Flags().BoolVar(&verify, "verify", false, "skip files whose content changed since the scan")
	return cmd
}
