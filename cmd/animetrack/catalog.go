package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/varoOP/animetrack/internal/app"
	"github.com/varoOP/animetrack/internal/debounce"
	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
)

const searchDebounce = 500 * time.Millisecond

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid anime id: %q", s)
	}
	return id, nil
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the top ranked anime",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		filterFlag, _ := cmd.Flags().GetString("filter")

		filter, err := jikan.ParseTopFilter(filterFlag)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Catalog.GetTopAnime(ctx, page, filter)
			if err != nil {
				return err
			}
			printAnimeList(cmd.OutOrStdout(), res, a.List)
			return nil
		})
	},
}

var seasonalCmd = &cobra.Command{
	Use:   "seasonal",
	Short: "Show anime of the current or a given season",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		year, _ := cmd.Flags().GetInt("year")
		season, _ := cmd.Flags().GetString("season")

		if (year == 0) != (season == "") {
			return fmt.Errorf("--year and --season must be given together")
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var (
				res *jikan.AnimeList
				err error
			)
			if year != 0 {
				res, err = a.Catalog.GetSeason(ctx, year, season, page)
			} else {
				res, err = a.Catalog.GetSeasonalAnime(ctx, page)
			}
			if err != nil {
				return err
			}
			printAnimeList(cmd.OutOrStdout(), res, a.List)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by title",
	Long: `Search the catalog by title.

With --interactive, queries are read line by line from stdin and only the
last one typed within a short pause is sent to the catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		interactive, _ := cmd.Flags().GetBool("interactive")
		opts := jikan.SearchOptions{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.OrderBy, _ = cmd.Flags().GetString("order-by")
		opts.SFW, _ = cmd.Flags().GetBool("sfw")

		query := strings.TrimSpace(strings.Join(args, " "))
		if !interactive && query == "" {
			return fmt.Errorf("a search query is required")
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if !interactive {
				res, err := a.Catalog.SearchAnime(ctx, query, page, opts)
				if err != nil {
					return err
				}
				printAnimeList(cmd.OutOrStdout(), res, a.List)
				return nil
			}
			return interactiveSearch(ctx, cmd, a, page, opts)
		})
	},
}

func interactiveSearch(ctx context.Context, cmd *cobra.Command, a *app.App, page int, opts jikan.SearchOptions) error {
	out := cmd.OutOrStdout()
	d := debounce.New(searchDebounce)

	var (
		mu        sync.Mutex
		searching sync.Mutex
		pending   string
	)
	run := func() {
		searching.Lock()
		defer searching.Unlock()

		mu.Lock()
		query := pending
		pending = ""
		mu.Unlock()
		if query == "" {
			return
		}

		res, err := a.Catalog.SearchAnime(ctx, query, page, opts)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), styles.warn.Render(err.Error()))
			return
		}
		fmt.Fprintln(out, styles.title.Render("Results for "+strconv.Quote(query)))
		printAnimeList(out, res, a.List)
	}

	fmt.Fprintln(out, styles.muted.Render("Type a title and press enter, Ctrl-D to quit."))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		mu.Lock()
		pending = query
		mu.Unlock()
		d.Trigger(run)
	}

	// the last query still runs on EOF
	d.Stop()
	run()
	return scanner.Err()
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of an anime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			item, err := a.Catalog.GetAnimeByID(ctx, id)
			if err != nil {
				return err
			}
			var entry *domain.ListEntry
			if e, ok := a.List.Item(id); ok {
				entry = &e
			}
			printAnime(cmd.OutOrStdout(), item, entry, time.Now())
			return nil
		})
	},
}

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the catalog's genres",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			genres, err := a.Catalog.GetGenres(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range genres {
				fmt.Fprintf(out, "%s %s %s\n", styles.id.Render(strconv.Itoa(g.MalID)), g.Name, styles.muted.Render(fmt.Sprintf("(%d)", g.Count)))
			}
			return nil
		})
	},
}

var genreCmd = &cobra.Command{
	Use:   "genre <genre-id>",
	Short: "Show anime of a genre",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid genre id: %q", args[0])
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Catalog.GetAnimeByGenre(ctx, id, page)
			if err != nil {
				return err
			}
			printAnimeList(cmd.OutOrStdout(), res, a.List)
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [day]",
	Short: "Show the broadcast schedule, optionally for one weekday",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day := ""
		if len(args) == 1 {
			day = args[0]
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Catalog.GetSchedule(ctx, day)
			if err != nil {
				return err
			}
			printAnimeList(cmd.OutOrStdout(), res, a.List)
			return nil
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <id>",
	Short: "Show user recommendations based on an anime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			recs, err := a.Catalog.GetAnimeRecommendations(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, styles.muted.Render("No recommendations."))
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(out, "%s %s %s\n", styles.id.Render(strconv.Itoa(r.Entry.MalID)), r.Entry.Title, styles.muted.Render(fmt.Sprintf("(%d votes)", r.Votes)))
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{topCmd, seasonalCmd, searchCmd, genreCmd} {
		c.Flags().Int("page", 1, "result page")
	}
	topCmd.Flags().String("filter", "", "ranking filter: 'airing', 'upcoming', 'bypopularity', or 'favorite'")
	seasonalCmd.Flags().Int("year", 0, "season year")
	seasonalCmd.Flags().String("season", "", "season: 'winter', 'spring', 'summer', or 'fall'")
	searchCmd.Flags().BoolP("interactive", "i", false, "read queries from stdin as you type")
	searchCmd.Flags().Int("limit", 0, "results per page")
	searchCmd.Flags().String("type", "", "media type, e.g. 'tv' or 'movie'")
	searchCmd.Flags().String("order-by", "", "order results by field, e.g. 'score'")
	searchCmd.Flags().Bool("sfw", false, "exclude adult entries")

	rootCmd.AddCommand(topCmd, seasonalCmd, searchCmd, showCmd, genresCmd, genreCmd, scheduleCmd, recommendCmd)
}
