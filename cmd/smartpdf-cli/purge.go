package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smartpdf/smartpdf/internal/store"
)

// newPurgeCmd creates the purge subcommand for manual retention passes.
func newPurgeCmd() *cobra.Command {
	var (
		maxAge time.Duration
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored artifacts older than the retention period",
		Long: `Purge deletes uploads and outputs whose age exceeds the retention period.
The server runs the same pass on a schedule; this command forces one now.
Use --dry-run to preview what would be deleted, and --max-age 0 to delete
everything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-age") {
				maxAge = cfg.Storage.Retention
			}

			cutoff := time.Now().Add(-maxAge)

			if dryRun {
				counts, err := countOlderThan(cfg.Storage.InboundDir, cfg.Storage.OutboundDir, cutoff)
				if err != nil {
					return err
				}
				return reportPurge(counts, maxAge, true)
			}

			st, err := store.New(logger, cfg.Storage)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}

			counts := map[string]int{}
			for _, p := range []store.Partition{store.PartitionInbound, store.PartitionOutbound} {
				n, err := st.PurgeOlderThan(p, maxAge)
				if err != nil {
					return fmt.Errorf("purge %s: %w", p, err)
				}
				counts[string(p)] = n
			}
			return reportPurge(counts, maxAge, false)
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", time.Hour, "delete artifacts older than this (default: configured retention)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview deletions without executing")

	return cmd
}

// countOlderThan counts files whose mtime predates cutoff, per partition.
func countOlderThan(inboundDir, outboundDir string, cutoff time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for label, dir := range map[string]string{
		string(store.PartitionInbound):  inboundDir,
		string(store.PartitionOutbound): outboundDir,
	} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				counts[label] = 0
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}

		n := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				n++
				if verbose {
					fmt.Printf("  would delete %s\n", filepath.Join(dir, entry.Name()))
				}
			}
		}
		counts[label] = n
	}
	return counts, nil
}

func reportPurge(counts map[string]int, maxAge time.Duration, dryRun bool) error {
	total := counts[string(store.PartitionInbound)] + counts[string(store.PartitionOutbound)]

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"max_age":  maxAge.String(),
			"dry_run":  dryRun,
			"inbound":  counts[string(store.PartitionInbound)],
			"outbound": counts[string(store.PartitionOutbound)],
			"total":    total,
		})
	}

	if dryRun {
		color.Yellow("DRY RUN: would delete %d artifacts older than %s", total, maxAge)
	} else {
		color.Green("✓ Deleted %d artifacts older than %s", total, maxAge)
	}
	fmt.Printf("  Uploads: %d\n", counts[string(store.PartitionInbound)])
	fmt.Printf("  Outputs: %d\n", counts[string(store.PartitionOutbound)])

	return nil
}
