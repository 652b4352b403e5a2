package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/app"
	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/internal/watcher"
)

var (
	watchProfiles []string
	watchSequence string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-resolve the views whenever the manifest changes",
	Long: `Print the views like resolve, then again every time the manifest file is
written. Errors in an intermediate edit are reported and watching goes on.
Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := newFormatter(cmd)
		if err != nil {
			return err
		}

		w, err := watcher.New(watcher.Config{Paths: []string{cfg.Manifest}, Debounce: cfg.Watch.Debounce})
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
		changes, err := w.Start()
		if err != nil {
			return err
		}

		render := func() error {
			return withApp(ctx, func(a *app.App) error {
				views, err := a.Views(watchProfiles, watchSequence)
				if err != nil {
					return err
				}
				return f.FormatViews(views)
			})
		}
		return watchLoop(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), changes, render)
	},
}

// watchLoop renders once, then after every change until ctx is done. Render
// failures are reported on errOut and do not stop the loop.
func watchLoop(ctx context.Context, out, errOut io.Writer, changes <-chan struct{}, render func() error) error {
	run := func() {
		if err := render(); err != nil {
			log.ErrorErr(log.CatWatcher, "render failed", err)
			_, _ = fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintf(out, "\n--- manifest changed at %s ---\n", time.Now().Format(time.TimeOnly))
			run()
		}
	}
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchProfiles, "profile", "p", nil, "profile to resolve (repeatable)")
	watchCmd.Flags().StringVarP(&watchSequence, "sequence", "s", "", "only this named sequence")
	rootCmd.AddCommand(watchCmd)
}
