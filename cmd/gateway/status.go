package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"multi-rpc-gateway/pkg/gateway"
	"multi-rpc-gateway/pkg/storage"
)

func newStatusCmd(f *rootFlags) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe every endpoint once and print the ranking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := f.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			gw, err := buildGateway(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer gw.Close()

			gw.EvaluateAll(cmd.Context())
			writeRanking(cmd.OutOrStdout(), gw.Snapshot())

			if recent <= 0 || cfg.PostgresDSN == "" {
				return nil
			}
			pg, err := storage.NewPostgres(cmd.Context(), cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer pg.Close()
			records, err := storage.NewJournalRepo(pg.DB()).RecentBroadcasts(cmd.Context(), recent)
			if err != nil {
				return err
			}
			writeBroadcasts(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent journaled broadcasts")
	return cmd
}

func writeRanking(w io.Writer, ranked []gateway.RankedEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tENDPOINT\tLATENCY\tFAILURES\tSCORE")
	for i, r := range ranked {
		latency := "-"
		if r.Record.Latency != gateway.UnmeasuredLatency {
			latency = r.Record.Latency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.0f\n", i+1, r.Entry.Name(), latency, r.Record.FailureRate, r.Record.Score())
	}
	_ = tw.Flush()
}

func writeBroadcasts(w io.Writer, records []storage.BroadcastRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACE\tHASH\tACCEPTED\tSETTLED")
	for _, r := range records {
		hash := r.Hash
		if !r.Succeeded {
			hash = "(failed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", r.TraceID, hash, r.Accepted, r.Attempts, r.SettledAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}
