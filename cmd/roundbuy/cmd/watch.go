package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"roundbuy/pkg/messaging"
	"roundbuy/pkg/models"
	"roundbuy/pkg/syncer"
)

// watchCmd polls the inbox on the configured cron schedule and prints
// unread counts as they change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the inbox and report unread conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}

		fetch := func(ctx context.Context) ([]models.Conversation, error) {
			res, err := e.msg.Conversations(ctx, 1, 100)
			if err != nil {
				return nil, err
			}
			return res.Conversations, nil
		}
		onUpdate := func(snap syncer.Snapshot) {
			fmt.Printf("[%s] %d conversations, %d unread\n",
				snap.LastSync.Format("15:04:05"), len(snap.Conversations), snap.UnreadCount)
			viewer := e.viewerID()
			for _, c := range snap.Conversations {
				if messaging.Unread(c, viewer) {
					fmt.Printf("  * %s  %s\n", c.ID, truncate(c.LastMessage, 60))
				}
			}
		}

		s, err := syncer.New(e.cfg.Schedule(), e.viewerID(), fetch, onUpdate)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := s.RunOnce(ctx); err != nil {
			return err
		}
		cancel := s.Start(ctx)
		defer cancel()

		fmt.Printf("Watching on schedule %q. Ctrl-C to stop.\n", e.cfg.Schedule())
		<-ctx.Done()
		fmt.Println("\nStopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
