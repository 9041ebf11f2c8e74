package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/glebk/moodbot/internal/domain"
)

// BuildCalendarMarkers maps every date with at least one entry to the emoji
// of its latest entry. Entries are ordered by timestamp first, so the result
// does not depend on the order of the input.
func BuildCalendarMarkers(entries []domain.MoodEntry) map[string]domain.CalendarMarker {
	sorted := make([]domain.MoodEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	markers := make(map[string]domain.CalendarMarker, len(sorted))
	for _, e := range sorted {
		markers[e.Date] = domain.CalendarMarker{
			Emoji:    e.Mood.Emoji(),
			HasEntry: true,
		}
	}

	return markers
}

// MonthMarkers is BuildCalendarMarkers restricted to one month
func MonthMarkers(entries []domain.MoodEntry, year int, month time.Month) map[string]domain.CalendarMarker {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))

	inMonth := make([]domain.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Date, prefix) {
			inMonth = append(inMonth, e)
		}
	}

	return BuildCalendarMarkers(inMonth)
}

// RecentEntries returns the last n appended entries, newest first.
// Order follows the log, not the timestamps.
func RecentEntries(entries []domain.MoodEntry, n int) []domain.MoodEntry {
	if n <= 0 || len(entries) == 0 {
		return []domain.MoodEntry{}
	}
	if n > len(entries) {
		n = len(entries)
	}

	tail := entries[len(entries)-n:]
	out := make([]domain.MoodEntry, 0, n)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}

	return out
}

// RenderMonth draws a Monday-first text calendar of the month.
// Days with a marker show its emoji instead of the day number.
func RenderMonth(year int, month time.Month, markers map[string]domain.CalendarMarker) string {
	var b strings.Builder

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	fmt.Fprintf(&b, "%s %d\n", month, year)
	b.WriteString("Mo Tu We Th Fr Sa Su\n")

	// time.Weekday starts on Sunday
	offset := (int(first.Weekday()) + 6) % 7
	cells := make([]string, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, "  ")
	}
	for day := 1; day <= days; day++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		if m, ok := markers[date]; ok && m.HasEntry {
			cells = append(cells, m.Emoji)
			continue
		}
		cells = append(cells, fmt.Sprintf("%2d", day))
	}

	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells[i:end], " "), " "))
		b.WriteString("\n")
	}

	return b.String()
}

// ParseMonth accepts "YYYY-MM"; an empty argument means the month of now
func ParseMonth(arg string, now time.Time) (int, time.Month, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now.Year(), now.Month(), nil
	}

	t, err := time.Parse("2006-01", arg)
	if err != nil {
		return 0, 0, fmt.Errorf("month must look like 2024-01: %w", err)
	}
	return t.Year(), t.Month(), nil
}
