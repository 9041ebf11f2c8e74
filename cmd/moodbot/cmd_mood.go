package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/service"
)

func newMoodCmd(a *app) *cobra.Command {
	moodCmd := &cobra.Command{
		Use:   "mood",
		Short: "Log and review moods",
	}

	moodCmd.AddCommand(
		newMoodAddCmd(a),
		newMoodRecentCmd(a),
		newMoodCalendarCmd(a),
	)

	return moodCmd
}

func newMoodAddCmd(a *app) *cobra.Command {
	moods := make([]string, 0, len(domain.Moods()))
	for _, m := range domain.Moods() {
		moods = append(moods, string(m))
	}

	return &cobra.Command{
		Use:       "add <mood> [note...]",
		Short:     "Record a mood with an optional note",
		Long:      "Record a mood with an optional note.\n\nMoods: " + strings.Join(moods, ", "),
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: moods,
		RunE: func(cmd *cobra.Command, args []string) error {
			mood := domain.Mood(strings.ToLower(args[0]))
			note := strings.Join(args[1:], " ")

			entry, err := a.moodLog.AppendEntry(cmd.Context(), mood, note)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s for %s\n", entry.Emoji, entry.Mood, entry.Date)
			return nil
		},
	}
}

func newMoodRecentCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recent := service.RecentEntries(a.moodLog.ListEntries(cmd.Context()), limit)
			out := cmd.OutOrStdout()

			if len(recent) == 0 {
				fmt.Fprintln(out, "No entries yet.")
				return nil
			}

			for _, e := range recent {
				fmt.Fprintf(out, "%s  %s %-8s %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Mood.Emoji(), e.Mood, e.Note)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of entries to show")
	return cmd
}

func newMoodCalendarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Print the mood calendar of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}

			now := service.SystemClock{Location: a.cfg.Location}.Now()
			year, month, err := service.ParseMonth(arg, now)
			if err != nil {
				return err
			}

			markers := service.MonthMarkers(a.moodLog.ListEntries(cmd.Context()), year, month)
			fmt.Fprint(cmd.OutOrStdout(), service.RenderMonth(year, month, markers))
			return nil
		},
	}
}
