package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/service"
)

func newScreenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "screen <kind>",
		Short: "Take a screening questionnaire in the terminal",
		Long: `Take a depression or anxiety screening in the terminal.

Answer each question with the number of an option. Type "b" to go back
to the previous question and "q" to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.engine.StartSession(domain.TestKind(strings.ToLower(args[0])))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n", session.Title(), a.engine.Disclaimer())

			done, err := runScreening(session, bufio.NewScanner(cmd.InOrStdin()), out)
			if err != nil || !done {
				return err
			}

			result, err := session.Result()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nScore: %d out of %d\n%s\n%s\n", result.RawScore, result.MaxScore, result.Tier.Title, result.Tier.Message)
			if result.NeedsSupport {
				fmt.Fprintln(out, "\nPlease consider talking to a counselor. In a crisis call 988.")
			}
			return nil
		},
	}
}

// runScreening asks questions until the session completes. It reports false
// when the user quits or input ends first.
func runScreening(session *service.ScreeningSession, in *bufio.Scanner, out io.Writer) (bool, error) {
	for !session.IsComplete() {
		q, _ := session.CurrentQuestion()

		fmt.Fprintf(out, "\nQuestion %d of %d\n%s\n", session.Index()+1, session.Len(), q.Prompt)
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o.Label)
		}
		fmt.Fprint(out, "> ")

		if !in.Scan() {
			if err := in.Err(); err != nil {
				return false, fmt.Errorf("failed to read answer: %w", err)
			}
			fmt.Fprintln(out, "\nScreening cancelled.")
			return false, nil
		}

		input := strings.TrimSpace(strings.ToLower(in.Text()))
		switch input {
		case "q":
			fmt.Fprintln(out, "Screening cancelled.")
			return false, nil
		case "b":
			if !session.GoBack() {
				fmt.Fprintln(out, "Screening cancelled.")
				return false, nil
			}
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(q.Options) {
			fmt.Fprintf(out, "Please enter a number from 1 to %d.\n", len(q.Options))
			continue
		}
		if err := session.Answer(q.Options[n-1].Score); err != nil {
			return false, err
		}
	}

	return true, nil
}

func newTiersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers <kind>",
		Short: "Print the score tiers of a screening",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			test, err := a.engine.Test(domain.TestKind(strings.ToLower(args[0])))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "TIER\tSCORES\tSUPPORT\tTITLE\n")
			for _, t := range test.Tiers {
				fmt.Fprintf(w, "%s\t%d-%d\t%t\t%s\n", t.Name, t.Min, t.Max, t.NeedsSupport, t.Title)
			}
			fmt.Fprintf(w, "\nmax score\t%d\t\t\n", test.MaxScore())
			return w.Flush()
		},
	}
}
