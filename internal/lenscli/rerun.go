package lenscli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/CoolSpy3/asm-code-lens/internal/config"
	"github.com/CoolSpy3/asm-code-lens/internal/core/walk"
	"github.com/CoolSpy3/asm-code-lens/internal/core/watch"
)

// runMaybeWatch executes run once, then, when watching is requested, keeps
// re-running it after every coalesced burst of file changes until the user
// interrupts. A failed re-run is reported and watching continues; the next
// save may fix the file.
func runMaybeWatch(opts Options, settings config.Settings, errOut io.Writer, run func() error) error {
	if err := run(); err != nil {
		if !opts.Watch {
			return err
		}
		_, _ = fmt.Fprintf(errOut, "error: %v\n", err)
	}
	if !opts.Watch {
		return nil
	}

	w, err := watch.New(settings.Root, watch.Options{
		Scan: walk.Options{
			IncludeGlobs: settings.Include,
			ExcludeGlobs: settings.Exclude,
			ScanAll:      settings.ScanAll,
		},
		OnChange: func([]string) {
			if err := run(); err != nil {
				_, _ = fmt.Fprintf(errOut, "error: %v\n", err)
			}
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return w.Run(ctx)
}
