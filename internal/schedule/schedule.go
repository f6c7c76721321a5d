package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/varoOP/animetrack/internal/domain"
)

// DefaultTimezone is the zone the catalog reports broadcasts in
const DefaultTimezone = "Asia/Tokyo"

var jst = time.FixedZone("JST", 9*60*60)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday parses a day name as the catalog writes it ("Mondays"), also
// accepting the singular form.
func Weekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[s]; ok {
		return d, true
	}
	d, ok := weekdays[strings.TrimSuffix(s, "s")]
	return d, ok
}

func location(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return jst
	}
	return loc
}

func clock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, errors.Errorf("invalid broadcast time: %q", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Errorf("invalid broadcast time: %q", s)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("invalid broadcast time: %q", s)
	}
	return hour, minute, nil
}

// NextBroadcast returns the first airing of the weekly slot b strictly after
// now. ok is false when the slot has no usable day or time.
func NextBroadcast(b domain.Broadcast, now time.Time) (next time.Time, ok bool) {
	if !b.Known() {
		return time.Time{}, false
	}
	day, ok := Weekday(b.Day)
	if !ok {
		return time.Time{}, false
	}
	hour, minute, err := clock(b.Time)
	if err != nil {
		return time.Time{}, false
	}

	loc := location(b.Timezone)
	local := now.In(loc)
	offset := (int(day) - int(local.Weekday()) + 7) % 7
	next = time.Date(local.Year(), local.Month(), local.Day()+offset, hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+offset+7, hour, minute, 0, 0, loc)
	}
	return next, true
}

// Countdown renders d as "2d 4h 13m", dropping leading zero units
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Due reports whether a reminder with the given lead should fire at now for
// the broadcast at next, given when it last fired.
func Due(next, now time.Time, lead time.Duration, lastNotified *time.Time) bool {
	if next.Sub(now) > lead {
		return false
	}
	if lastNotified == nil {
		return true
	}
	// already sent inside this occurrence's window
	return lastNotified.Before(next.Add(-lead))
}
