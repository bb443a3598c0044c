package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/appdir/internal/client"
)

type statusOutput struct {
	Server string        `json:"server"`
	Mirror string        `json:"mirror"`
	Apps   int           `json:"apps"`
	Status client.Status `json:"status"`
}

func newStatusCmd(s *session) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the catalog is served from",
		Long: `Fetch the catalog once, then report the cache state, whether the server
was reachable, and how many offline changes wait for 'appdirctl sync'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			apps, fetchErr := s.svc.Apps(ctx)
			st, err := s.svc.Status(ctx)
			if err != nil {
				return err
			}

			out := statusOutput{Server: s.cfg.Server, Mirror: s.cfg.Mirror, Apps: len(apps), Status: st}
			w := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(w, out)
			}

			header(w, "appdir %s", out.Server)
			reach := color.GreenString("reachable")
			if st.Degraded {
				reach = color.RedString("unreachable")
			}
			fmt.Fprintf(w, "  %-10s %s\n", "server:", reach)
			fmt.Fprintf(w, "  %-10s %s\n", "cache:", st.State)
			if st.SnapshotAge > 0 {
				fmt.Fprintf(w, "  %-10s %s\n", "age:", st.SnapshotAge.Truncate(time.Second))
			}
			fmt.Fprintf(w, "  %-10s %d\n", "apps:", out.Apps)
			fmt.Fprintf(w, "  %-10s %d\n", "pending:", st.Pending)
			fmt.Fprintf(w, "  %-10s %s\n", "mirror:", out.Mirror)
			if fetchErr != nil {
				warn(cmd.ErrOrStderr(), "%v", fetchErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSyncCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send changes made while the server was unreachable",
		Long: `Replay queued offline changes in the order they were made. Changes the
server rejects (for example a URL someone else added meanwhile) are
dropped and listed. Sync stops at the first connection failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := s.svc.Sync(cmd.Context())
			w := cmd.OutOrStdout()
			for _, r := range report.Rejected {
				warn(cmd.ErrOrStderr(), "dropped %s %s: %s", r.Op.Kind, r.Op.Key, r.Error)
			}
			if err != nil {
				return fmt.Errorf("sync interrupted, %d change(s) still queued: %w", report.Remaining, err)
			}
			if report.Replayed == 0 && len(report.Rejected) == 0 {
				fmt.Fprintln(w, "Nothing to sync.")
				return nil
			}
			ok(w, "%d change(s) synced, %d dropped", report.Replayed, len(report.Rejected))
			return nil
		},
	}
}

func newReindexCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the server's indexes and stats from the app list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drift, err := s.api.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if drift.Clean() {
				ok(w, "indexes were up to date (%d app(s))", drift.Apps)
				return nil
			}
			ok(w, "repaired indexes=%t stats=%t (%d app(s))", drift.IndexesStale, drift.StatsStale, drift.Apps)
			for _, id := range drift.Dangling {
				fmt.Fprintf(w, "  removed dangling id %s\n", id)
			}
			return nil
		},
	}
}
