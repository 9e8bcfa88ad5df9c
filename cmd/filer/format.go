package main

import (
	"fmt"
	"io"
	"time"

	"filer-go/internal/config"
	"filer-go/internal/database/sqlc"
	"filer-go/internal/filer"
)

const listTimeFormat = "Jan 2, 2006 - 15:04:05"

// writeSnapshotList prints a two-column table of snapshot numbers and
// creation times in loc.
func writeSnapshotList(w io.Writer, items []filer.SnapshotListItem, loc *time.Location) {
	fmt.Fprintln(w, "Number  Datetime")
	fmt.Fprintln(w, "------  --------")
	for _, item := range items {
		fmt.Fprintf(w, "%-6d  %s\n", item.Number, item.Date.In(loc).Format(listTimeFormat))
	}
}

func writeHistory(w io.Writer, ops []*sqlc.Operation) {
	for _, op := range ops {
		duration := ""
		if op.FinishedAt.Valid {
			d := op.FinishedAt.Time.Sub(op.StartedAt)
			duration = d.Truncate(time.Millisecond).String()
		}
		fmt.Fprintf(w, "#%d  %-15s  %s  %-7s  %-10s  %s\n",
			op.ID,
			op.Operation,
			op.StartedAt.Format("2006-01-02 15:04:05"),
			op.Status,
			duration,
			op.Parameters,
		)
	}
}

func writeVerifyReport(w io.Writer, report *filer.VerifyReport) {
	fmt.Fprintf(w, "Snapshot %d: %d object(s), %d blob(s)\n", report.Number, report.Objects, report.Blobs)
	for _, hash := range report.Corrupt {
		fmt.Fprintf(w, "CORRUPT  %s\n", hash)
	}
	if report.OK() {
		fmt.Fprintln(w, "All content matches its hash.")
	}
}

func writeConfig(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(w, "Configuration from %s:\n\n", path)
	fmt.Fprintf(w, "Host ID:    %s\n", cfg.HostID)
	fmt.Fprintf(w, "Base Dir:   %s\n", cfg.BaseDir)
	fmt.Fprintf(w, "Log Dir:    %s\n", cfg.LogDir)
	fmt.Fprintf(w, "Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
	fmt.Fprintf(w, "Encryption: %s\n", cfg.Encryption.Type)
	for _, v := range cfg.Vaults {
		fmt.Fprintf(w, "Vault:      %s (%s)\n", v.Name, v.Type)
	}
	if len(cfg.Filesystem.Ignore) > 0 {
		fmt.Fprintf(w, "Ignore:     %v\n", cfg.Filesystem.Ignore)
	}
}
