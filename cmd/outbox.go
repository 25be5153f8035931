package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/store"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and send results waiting for the portal",
}

var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outbox messages, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		switch store.OutboxStatus(status) {
		case "", store.OutboxPending, store.OutboxDelivered, store.OutboxDead:
		default:
			return fmt.Errorf("unknown status %q (want pending, delivered or dead)", status)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		msgs, err := st.OutboxRepo().List(ctx, store.OutboxStatus(status), limit)
		if err != nil {
			return fmt.Errorf("list outbox: %w", err)
		}
		counts, err := st.OutboxRepo().Counts(ctx)
		if err != nil {
			return fmt.Errorf("count outbox: %w", err)
		}

		fmt.Printf("%d pending, %d delivered, %d dead\n\n",
			counts[store.OutboxPending], counts[store.OutboxDelivered], counts[store.OutboxDead])
		if len(msgs) == 0 {
			fmt.Println("No messages.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-18s  %-9s  %5s  %s\n",
			"ID", "Created", "Kind", "Status", "Tries", "Last error")
		fmt.Println(strings.Repeat("─", 110))
		for _, m := range msgs {
			fmt.Printf("%-36s  %-19s  %-18s  %-9s  %5d  %s\n",
				m.ID,
				m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				m.Kind,
				m.Status,
				m.Attempts,
				truncate(m.LastError, 40),
			)
		}
		return nil
	},
}

var outboxFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send pending messages to the portal now",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		client, _, err := signedInClient(ctx, cmd, st)
		if err != nil {
			return err
		}
		d := delivery.New(st.OutboxRepo(), client, delivery.WithLogger(cliLogger()))
		rep, err := d.Flush(ctx)
		fmt.Printf("Delivered %d, still pending %d, dead %d.\n", rep.Delivered, rep.Pending, rep.Dead)
		if rep.LastError != nil && err == nil {
			fmt.Fprintln(os.Stderr, "warning: last failure:", rep.LastError)
		}
		return err
	},
}

var outboxPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete delivered messages older than --older",
	RunE: func(cmd *cobra.Command, args []string) error {
		older, _ := cmd.Flags().GetDuration("older")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := delivery.New(st.OutboxRepo(), nil).Prune(cmd.Context(), older)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d delivered messages.\n", n)
		return nil
	},
}

// cliLogger reports warnings from library code on stderr.
func cliLogger() *log.Logger {
	return logging.New(os.Stderr, log.WARN, "practiz")
}

func init() {
	outboxListCmd.Flags().IntP("limit", "n", 50, "Number of messages to show")
	outboxListCmd.Flags().String("status", "", "Filter by status: pending, delivered or dead")
	outboxPruneCmd.Flags().Duration("older", 7*24*time.Hour, "Minimum age of delivered messages to remove")

	outboxCmd.AddCommand(outboxListCmd)
	outboxCmd.AddCommand(outboxFlushCmd)
	outboxCmd.AddCommand(outboxPruneCmd)
}
