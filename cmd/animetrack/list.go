package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varoOP/animetrack/internal/app"
	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/format"
	"github.com/varoOP/animetrack/internal/list"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show and edit your personal list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFlag, _ := cmd.Flags().GetString("status")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			entries := a.List.Items()
			if statusFlag != "" {
				status, err := domain.ParseListStatus(statusFlag)
				if err != nil {
					return err
				}
				entries = a.List.ItemsByStatus(status)
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		})
	},
}

// entryCommand builds a command operating on an entry already on the list
func entryCommand(use, short string, nargs int, fn func(a *app.App, e domain.ListEntry, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				e, ok := a.List.Item(id)
				if !ok {
					return fmt.Errorf("anime %d is not on your list", id)
				}
				if err := fn(a, e, args[1:]); err != nil {
					return err
				}
				if e, ok = a.List.Item(id); ok {
					printEntries(cmd.OutOrStdout(), []domain.ListEntry{e})
				}
				return nil
			})
		},
	}
}

var listAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an anime to your list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		statusFlag, _ := cmd.Flags().GetString("status")
		status, err := domain.ParseListStatus(statusFlag)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			e, err := a.AddToList(ctx, id, status)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), []domain.ListEntry{e})
			return nil
		})
	},
}

var listRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an anime from your list",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if !a.List.Contains(id) {
				return fmt.Errorf("anime %d is not on your list", id)
			}
			a.List.Remove(id)
			fmt.Fprintln(cmd.OutOrStdout(), styles.ok.Render("Removed"), id)
			return nil
		})
	},
}

var listStatusCmd = entryCommand("status <id> <status>", "Change the status of an entry", 2,
	func(a *app.App, e domain.ListEntry, args []string) error {
		status, err := domain.ParseListStatus(args[0])
		if err != nil {
			return err
		}
		a.List.UpdateStatus(e.AnimeID, status)
		return nil
	})

var listProgressCmd = entryCommand("progress <id> <episodes>", "Set how many episodes you have watched", 2,
	func(a *app.App, e domain.ListEntry, args []string) error {
		progress, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid progress: %q", args[0])
		}
		a.List.UpdateProgress(e.AnimeID, list.ClampProgress(progress, e.Episodes))
		return nil
	})

var listRateCmd = entryCommand("rate <id> <1-5|clear>", "Rate an entry", 2,
	func(a *app.App, e domain.ListEntry, args []string) error {
		if args[0] == "clear" {
			a.List.UpdateRating(e.AnimeID, nil)
			return nil
		}
		rating, err := strconv.Atoi(args[0])
		if err != nil || !list.ValidRating(rating) {
			return fmt.Errorf("invalid rating: %q (must be 1 to 5, or 'clear')", args[0])
		}
		a.List.UpdateRating(e.AnimeID, &rating)
		return nil
	})

var listNoteCmd = &cobra.Command{
	Use:   "note <id> [text...]",
	Short: "Set or clear the note of an entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note := strings.Join(args[1:], " ")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if !a.List.Contains(id) {
				return fmt.Errorf("anime %d is not on your list", id)
			}
			a.List.UpdateNote(id, note)
			e, _ := a.List.Item(id)
			printEntries(cmd.OutOrStdout(), []domain.ListEntry{e})
			return nil
		})
	},
}

var listFavCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle an anime's favorite status",
	Long: `Toggle an anime's favorite status. Marking an entry favorite replaces its
current status; unmarking it moves it to planned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			e, err := a.ToggleFavorite(ctx, id)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), []domain.ListEntry{e})
			return nil
		})
	},
}

var listStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about your list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			printStats(cmd.OutOrStdout(), a.List.Stats())
			return nil
		})
	},
}

var listExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your list as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		formatFlag, _ := cmd.Flags().GetString("format")

		f := format.YAML
		if formatFlag != "" {
			var err error
			if f, err = format.Parse(formatFlag); err != nil {
				return err
			}
		} else if output != "" {
			f = format.FromPath(output)
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if output == "" {
				return format.WriteList(cmd.OutOrStdout(), a.List.Items(), f)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := format.WriteList(file, a.List.Items(), f); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", a.List.Len(), output)
			return nil
		})
	},
}

var listImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace your list with an exported one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")

		f := format.FromPath(args[0])
		if formatFlag != "" {
			var err error
			if f, err = format.Parse(formatFlag); err != nil {
				return err
			}
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer file.Close()

		entries, err := format.ReadList(file, f)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			a.List.Replace(entries)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d entries\n", styles.ok.Render("Imported"), a.List.Len())
			return nil
		})
	},
}

func init() {
	listCmd.Flags().String("status", "", "only show entries with this status")
	listAddCmd.Flags().String("status", string(domain.StatusPlanned), "status: 'watching', 'completed', 'planned', or 'favorites'")
	listExportCmd.Flags().StringP("output", "o", "", "file to write (default stdout)")
	listExportCmd.Flags().String("format", "", "export format: 'json' or 'yaml'")
	listImportCmd.Flags().String("format", "", "import format: 'json' or 'yaml' (default from file extension)")

	listCmd.AddCommand(listAddCmd, listRemoveCmd, listStatusCmd, listProgressCmd, listRateCmd, listNoteCmd, listFavCmd, listStatsCmd, listExportCmd, listImportCmd)
	rootCmd.AddCommand(listCmd)
}
