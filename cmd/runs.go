package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect run history",
	Long:  "Commands for listing and viewing recorded collection runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		state, _ := cmd.Flags().GetString("state")
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			State: model.RunState(state),
			Query: query,
			Limit: limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return eris.Errorf("runs show: no run with id %s", args[0])
		}
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		filter := store.RunFilter{Limit: 10000}
		if since > 0 {
			filter.CreatedAfter = time.Now().Add(-since)
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs))
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsListCmd.Flags().String("state", "", "filter by run state (streaming, done, failed, ...)")
	runsListCmd.Flags().String("query", "", "filter by search query")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total      int
	Completed  int
	Throttled  int
	AuthFailed int
	Unfinished int
	Examined   int
	Entries    int
	AvgDurSecs float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.RunRecord) runStats {
	var s runStats
	s.Total = len(runs)

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		switch r.Outcome {
		case model.OutcomeCompleted:
			s.Completed++
		case model.OutcomeCompletedWithProviderThrottle:
			s.Throttled++
		case model.OutcomeAuthenticationFailed:
			s.AuthFailed++
		default:
			s.Unfinished++
			continue
		}
		s.Examined += r.Counters.Examined
		s.Entries += r.Entries
		totalDur += r.UpdatedAt.Sub(r.CreatedAt)
		durCount++
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	_, _ = fmt.Fprintf(w, "Throttled:\t%d\n", s.Throttled)
	_, _ = fmt.Fprintf(w, "Auth failed:\t%d\n", s.AuthFailed)
	_, _ = fmt.Fprintf(w, "Unfinished:\t%d\n", s.Unfinished)
	_, _ = fmt.Fprintf(w, "Posts examined:\t%d\n", s.Examined)
	_, _ = fmt.Fprintf(w, "Entries written:\t%d\n", s.Entries)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tQUERY\tBACKEND\tSTATE\tOUTCOME\tENTRIES\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t-------\t-----\t-------\t-------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		query := truncateQuery(r.Query, 30)
		outcome := ""
		if r.Outcome != 0 {
			outcome = r.Outcome.String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			query,
			r.Backend,
			r.State,
			outcome,
			r.Entries,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateQuery shortens s to at most n runes, marking the cut with "...".
func truncateQuery(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
