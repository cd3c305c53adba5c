// Command sweep runs the engine's scheduled jobs once, for cron setups that
// prefer a process per run over the HTTP trigger endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lifeloop/app"
	"lifeloop/config"
	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/usecase"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sweep",
		Short:         "Run recurrence resets and analytics rollovers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newResetCmd(), newAnalyticsCmd(), newRebuildCmd())
	return root
}

// withApp loads configuration, wires the engine and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(cmd.Context(), a); err != nil {
		log.Printf("sweep: %v", err)
		return err
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary *usecase.Summary, err error) error {
	if summary != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(summary); encErr != nil {
			return encErr
		}
	}
	return err
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "reset <daily|weekly|monthly>",
		Short:     "Reset items whose period has ended",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily", "weekly", "monthly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := model.Frequency(strings.ToUpper(args[0]))
			if !f.Recurs() {
				return fmt.Errorf("unknown reset tier %q", args[0])
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Reset.Sweep(ctx, f)
				return printSummary(cmd, summary, err)
			})
		},
	}
}

var granularities = map[string]period.Granularity{
	"daily":   period.Day,
	"weekly":  period.Week,
	"monthly": period.Month,
	"yearly":  period.Year,
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "analytics <daily|weekly|monthly|yearly>",
		Short:     "Roll every user's analytics counters into the current period",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily", "weekly", "monthly", "yearly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ok := granularities[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown analytics tier %q", args[0])
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Analytics.RollAll(ctx, g)
				return printSummary(cmd, summary, err)
			})
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <user-id>",
		Short: "Re-derive a user's analytics document from their event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				doc, err := a.Analytics.Rebuild(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rebuilt analytics for %s (last updated %s)\n",
					doc.UserID, doc.LastUpdated.Format("2006-01-02T15:04:05Z07:00"))
				return nil
			})
		},
	}
}
