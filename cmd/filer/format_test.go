package main

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	"filer-go/internal/config"
	"filer-go/internal/database/sqlc"
	"filer-go/internal/filer"
)

func TestWriteSnapshotList(t *testing.T) {
	items := []filer.SnapshotListItem{
		{Number: 1, Date: time.Date(2024, 3, 5, 9, 4, 7, 0, time.UTC)},
		{Number: 12, Date: time.Date(2024, 11, 30, 23, 59, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	writeSnapshotList(&buf, items, time.UTC)

	want := "Number  Datetime\n" +
		"------  --------\n" +
		"1       Mar 5, 2024 - 09:04:07\n" +
		"12      Nov 30, 2024 - 23:59:00\n"
	if got := buf.String(); got != want {
		t.Errorf("writeSnapshotList() =\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteHistory(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ops := []*sqlc.Operation{
		{
			ID:         2,
			StartedAt:  started,
			FinishedAt: sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true},
			Operation:  "PruneSnapshot",
			Parameters: "/data#1",
			Status:     "error",
		},
		{
			ID:        1,
			StartedAt: started,
			Operation: "CreateSnapshot",
			Status:    "success",
		},
	}

	var buf bytes.Buffer
	writeHistory(&buf, ops)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"#2", "PruneSnapshot", "2024-01-02 03:04:05", "error", "1.5s", "/data#1"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "CreateSnapshot") {
		t.Errorf("line %q missing CreateSnapshot", lines[1])
	}
}

func TestWriteVerifyReport(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var buf bytes.Buffer
		writeVerifyReport(&buf, &filer.VerifyReport{Number: 3, Objects: 4, Blobs: 2})
		if !strings.Contains(buf.String(), "All content matches") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		var buf bytes.Buffer
		writeVerifyReport(&buf, &filer.VerifyReport{Number: 3, Blobs: 1, Corrupt: []string{"abc"}})
		if !strings.Contains(buf.String(), "CORRUPT  abc") {
			t.Errorf("output = %q", buf.String())
		}
		if strings.Contains(buf.String(), "All content matches") {
			t.Errorf("corrupt report claims success: %q", buf.String())
		}
	})
}

func TestWriteConfig(t *testing.T) {
	cfg := config.NewConfig("host-1", "/base")
	cfg.Vaults = []config.VaultConfig{{Type: "s3", Name: "offsite"}}

	var buf bytes.Buffer
	writeConfig(&buf, "/cfg.toml", cfg)

	for _, want := range []string{"/cfg.toml", "host-1", "sqlite /base/db", "offsite (s3)"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
