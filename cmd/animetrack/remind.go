package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/varoOP/animetrack/internal/app"
)

var remindCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Send the reminders that are due",
	Long: `Send the reminders whose broadcast falls within their lead time.

Run it from cron, or pass --every to keep checking until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if every <= 0 {
				sent, err := a.CheckReminders(ctx, time.Now())
				fmt.Fprintf(cmd.OutOrStdout(), "%d reminders sent\n", sent)
				return err
			}
			runReminderLoop(ctx, a, every)
			return nil
		})
	},
}

// runReminderLoop checks reminders every interval until ctx is done
func runReminderLoop(ctx context.Context, a *app.App, every time.Duration) {
	log := a.Logger()
	log.Info().Dur("every", every).Msg("checking reminders")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := a.CheckReminders(ctx, time.Now()); err != nil {
			log.Error().Err(err).Msg("reminder check failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	remindCheckCmd.Flags().Duration("every", 0, "keep checking at this interval")
	remindCmd.AddCommand(remindCheckCmd)
}
