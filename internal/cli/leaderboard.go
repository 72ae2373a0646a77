package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/config"
	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints a ranked leaderboard window from the configured store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		window string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd.Context(), cmd.OutOrStdout(), *configPath, window, limit)
		},
	}
	cmd.Flags().StringVar(&window, "window", "all", "all, daily or weekly")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries to print (0 for all)")
	return cmd
}

func runLeaderboard(ctx context.Context, out io.Writer, configPath, rawWindow string, limit int) error {
	w, err := domain.ParseWindow(rawWindow)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	loc, err := cfg.LeaderboardLocation()
	if err != nil {
		return err
	}
	entries, err := app.NewLeaderboard(d.store, loc).Ranked(ctx, w)
	if err != nil {
		return err
	}
	return printLeaderboard(out, w, entries, limit)
}

func printLeaderboard(out io.Writer, w domain.Window, entries []domain.LeaderboardRecord, limit int) error {
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tPOINTS\tQUIZZES")
	for _, e := range entries {
		points := e.TotalPoints
		switch w {
		case domain.WindowDaily:
			points = e.DailyPoints
		case domain.WindowWeekly:
			points = e.WeeklyPoints
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", e.Rank, e.Username, points, e.QuizzesPlayed)
	}
	return tw.Flush()
}
