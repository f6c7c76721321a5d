package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
	"github.com/varoOP/animetrack/internal/list"
	"github.com/varoOP/animetrack/internal/schedule"
)

// palette holds the styles used for terminal output
type palette struct {
	title  lipgloss.Style
	id     lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	status map[domain.ListStatus]lipgloss.Style
}

var styles = newPalette()

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newPalette() *palette {
	return &palette{
		title: newStyle("#7D56F4").Bold(true),
		id:    newStyle("#626262").Width(7).Align(lipgloss.Right),
		ok:    newStyle("#04B575").Bold(true),
		warn:  newStyle("#FFA500"),
		muted: newStyle("#626262").Italic(true),
		status: map[domain.ListStatus]lipgloss.Style{
			domain.StatusWatching:  newStyle("#04B575"),
			domain.StatusCompleted: newStyle("#2E51A2"),
			domain.StatusPlanned:   newStyle("#FFA500"),
			domain.StatusFavorites: newStyle("#FF5F87").Bold(true),
		},
	}
}

func (p *palette) statusLabel(s domain.ListStatus) string {
	st, ok := p.status[s]
	if !ok {
		st = lipgloss.NewStyle()
	}
	return st.Width(10).Render(string(s))
}

func score(a domain.Anime) string {
	if a.Score == nil {
		return "  -  "
	}
	return fmt.Sprintf("%5.2f", *a.Score)
}

func episodes(n int) string {
	if n <= 0 {
		return "?"
	}
	return strconv.Itoa(n)
}

// printAnimeList prints one line per anime, marking those already on the list
func printAnimeList(w io.Writer, res *jikan.AnimeList, store *list.Store) {
	if res == nil || len(res.Data) == 0 {
		fmt.Fprintln(w, styles.muted.Render("No results."))
		return
	}
	for _, a := range res.Data {
		mark := " "
		if store.Contains(a.MalID) {
			mark = styles.ok.Render("*")
		}
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			styles.id.Render(strconv.Itoa(a.MalID)),
			mark,
			score(a),
			a.DisplayTitle(),
			styles.muted.Render(fmt.Sprintf("(%s, %s eps)", orUnknown(a.Type), episodes(a.EpisodeCount()))),
		)
	}
	if p := res.Pagination; p != nil && p.HasNextPage {
		fmt.Fprintln(w, styles.muted.Render(fmt.Sprintf("page %d of %d, use --page for more", max(p.CurrentPage, 1), p.LastVisiblePage)))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func tagNames(tags []domain.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// printAnime prints the detail view of one anime
func printAnime(w io.Writer, a *domain.Anime, entry *domain.ListEntry, now time.Time) {
	fmt.Fprintln(w, styles.title.Render(a.DisplayTitle()))
	if a.TitleEnglish != "" && a.Title != a.TitleEnglish {
		fmt.Fprintln(w, styles.muted.Render(a.Title))
	}
	fmt.Fprintln(w)

	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-12s %s\n", label+":", value)
		}
	}
	row("ID", strconv.Itoa(a.MalID))
	row("Type", a.Type)
	row("Episodes", episodes(a.EpisodeCount()))
	row("Status", a.Status)
	if a.Score != nil {
		row("Score", strings.TrimSpace(score(*a)))
	}
	if a.Year != nil {
		row("Season", strings.TrimSpace(a.Season+" "+strconv.Itoa(*a.Year)))
	}
	row("Studios", tagNames(a.Studios))
	row("Genres", tagNames(a.Genres))
	if a.Broadcast.Known() {
		b := a.Broadcast.String
		if next, ok := schedule.NextBroadcast(a.Broadcast, now); ok {
			b += styles.muted.Render(" (next in " + schedule.Countdown(next.Sub(now)) + ")")
		}
		row("Broadcast", b)
	}
	if entry != nil {
		row("On list", fmt.Sprintf("%s %d/%s", entry.Status, entry.Progress, episodes(entry.Episodes)))
	}

	if a.Synopsis != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, lipgloss.NewStyle().Width(80).Render(a.Synopsis))
	}
}

// printEntries prints list entries in the order given
func printEntries(w io.Writer, entries []domain.ListEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.muted.Render("Your list is empty."))
		return
	}
	for _, e := range entries {
		rating := "-"
		if e.Rating != nil {
			rating = strings.Repeat("*", *e.Rating)
		}
		fmt.Fprintf(w, "%s %s %7s %-5s %s\n",
			styles.id.Render(strconv.Itoa(e.AnimeID)),
			styles.statusLabel(e.Status),
			fmt.Sprintf("%d/%s", e.Progress, episodes(e.Episodes)),
			rating,
			e.Title,
		)
		if e.Note != "" {
			fmt.Fprintf(w, "%7s   %s\n", "", styles.muted.Render(e.Note))
		}
	}
}

func printStats(w io.Writer, s domain.ListStats) {
	fmt.Fprintln(w, styles.title.Render("Your list"))
	fmt.Fprintf(w, "%-15s %d\n", "Total:", s.Total)
	for _, st := range domain.ListStatuses {
		var n int
		switch st {
		case domain.StatusWatching:
			n = s.Watching
		case domain.StatusCompleted:
			n = s.Completed
		case domain.StatusPlanned:
			n = s.Planned
		case domain.StatusFavorites:
			n = s.Favorites
		}
		fmt.Fprintf(w, "%-15s %d\n", strings.ToUpper(string(st[:1]))+string(st[1:])+":", n)
	}
	fmt.Fprintf(w, "%-15s %d\n", "Episodes:", s.TotalEpisodes)
	if s.AverageRating > 0 {
		fmt.Fprintf(w, "%-15s %.1f\n", "Avg rating:", s.AverageRating)
	}
}

func printReminders(w io.Writer, reminders []domain.Reminder, now time.Time) {
	if len(reminders) == 0 {
		fmt.Fprintln(w, styles.muted.Render("No reminders set."))
		return
	}
	for _, r := range reminders {
		next := styles.warn.Render("no broadcast slot")
		if t, ok := schedule.NextBroadcast(r.Broadcast, now); ok {
			next = "airs in " + schedule.Countdown(t.Sub(now))
		}
		fmt.Fprintf(w, "%s %s %s\n",
			styles.id.Render(strconv.Itoa(r.AnimeID)),
			r.Title,
			styles.muted.Render(fmt.Sprintf("(%s, %s before)", next, r.Lead)),
		)
	}
}
