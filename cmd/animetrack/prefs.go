package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/varoOP/animetrack/internal/app"
	"github.com/varoOP/animetrack/internal/domain"
)

const defaultReminderLead = 30 * time.Minute

var languageCmd = &cobra.Command{
	Use:   "language [any|sub|dub]",
	Short: "Show or set your preferred audio language",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if len(args) == 1 {
				l, err := domain.ParseLanguage(args[0])
				if err != nil {
					return err
				}
				a.Preferences.SetLanguage(l)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Preferences.Language())
			return nil
		})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage broadcast reminders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			printReminders(cmd.OutOrStdout(), a.Preferences.Reminders(), time.Now())
			return nil
		})
	},
}

var remindAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Get notified ahead of an anime's weekly broadcast",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		lead, _ := cmd.Flags().GetDuration("lead")
		if lead < 0 {
			return fmt.Errorf("--lead must not be negative")
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := a.Remind(ctx, id, lead)
			if err != nil {
				return err
			}
			if a.Config().DiscordWebhookURL == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.warn.Render("No discord_webhook_url configured, reminders will not be delivered."))
			}
			printReminders(cmd.OutOrStdout(), []domain.Reminder{r}, time.Now())
			return nil
		})
	},
}

var remindRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a reminder",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if _, ok := a.Preferences.Reminder(id); !ok {
				return fmt.Errorf("no reminder for anime %d", id)
			}
			a.Preferences.RemoveReminder(id)
			fmt.Fprintln(cmd.OutOrStdout(), styles.ok.Render("Removed reminder for"), id)
			return nil
		})
	},
}

var watchedCmd = &cobra.Command{
	Use:   "watched <id> [episode]",
	Short: "Show or toggle the episodes you have watched",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		clearAll, _ := cmd.Flags().GetBool("clear")

		ep := 0
		if len(args) == 2 {
			if ep, err = strconv.Atoi(args[1]); err != nil || ep <= 0 {
				return fmt.Errorf("invalid episode: %q", args[1])
			}
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				a.Preferences.ClearWatched(id)
			case ep > 0:
				state := "unwatched"
				if a.Preferences.ToggleEpisodeWatched(id, ep) {
					state = "watched"
				}
				fmt.Fprintf(out, "Episode %d marked %s\n", ep, state)
			}

			eps := a.Preferences.WatchedEpisodes(id)
			if len(eps) == 0 {
				fmt.Fprintln(out, styles.muted.Render("No episodes watched."))
				return nil
			}
			labels := make([]string, len(eps))
			for i, n := range eps {
				labels[i] = strconv.Itoa(n)
			}
			fmt.Fprintln(out, "Watched:", strings.Join(labels, ", "))
			return nil
		})
	},
}

func init() {
	remindAddCmd.Flags().Duration("lead", defaultReminderLead, "how long before the broadcast to notify")
	watchedCmd.Flags().Bool("clear", false, "forget every watched episode of the anime")

	remindCmd.AddCommand(remindAddCmd, remindRemoveCmd)
	rootCmd.AddCommand(languageCmd, remindCmd, watchedCmd)
}
