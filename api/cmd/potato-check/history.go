package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"potato-check/api/internal/store"
)

var (
	historyLimit int
	historyHash  string
	purgeAge     time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses from the audit store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("audit store is not configured: set DATABASE_URL or PGHOST")
		}
		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := store.NewAnalysisRepo(db).Recent(cmd.Context(), historyLimit, historyHash)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tKIND\tVERDICT\tMS\tIMAGE\tREQUEST")
		for _, r := range recs {
			img := r.ImageHash
			if len(img) > 16 {
				img = img[:16]
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
				r.CreatedAt.Local().Format(time.DateTime), r.StatusCode, r.Kind, r.Verdict, r.DurationMS, img, r.RequestID)
		}
		return tw.Flush()
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit records older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("audit store is not configured: set DATABASE_URL or PGHOST")
		}
		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := store.NewAnalysisRepo(db).PurgeOlderThan(cmd.Context(), purgeAge)
		if err != nil {
			return fmt.Errorf("error purging history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of records to show")
	historyCmd.Flags().StringVar(&historyHash, "image-hash", "", "only records for this image SHA-256")
	purgeCmd.Flags().DurationVar(&purgeAge, "older-than", 30*24*time.Hour, "age threshold")
}
