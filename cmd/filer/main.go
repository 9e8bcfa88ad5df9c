package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"filer-go/internal/app"
	"filer-go/internal/config"
	"filer-go/internal/database"
	"filer-go/internal/encryption"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the config file at the default location.
func loadConfig() (*config.Config, string, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.ReadFromFile(paths.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("no config at %s, run 'filer config init' first", paths.ConfigFile)
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", paths.ConfigFile, err)
	}
	return cfg, paths.ConfigFile, nil
}

// newApp reads the config and creates a FilerApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateSnapshot").
func newApp(operation string) (*app.FilerApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFilerApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// closeApp closes a and reports a close failure unless the command already failed.
func closeApp(a *app.FilerApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

var rootCmd = &cobra.Command{
	Use:          "filer",
	Short:        "Directory snapshot tool",
	SilenceUsage: true,
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create a new snapshot of a directory",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		target, _ := cmd.Flags().GetString("target-directory")

		a, err := newApp("CreateSnapshot")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		snap, err := a.CreateSnapshot(target)
		if err != nil {
			return fmt.Errorf("creating snapshot: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %d created for directory: %s\n", snap.Number, target)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all snapshots of a directory",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		target, _ := cmd.Flags().GetString("target-directory")

		a, err := newApp("ListSnapshots")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		items, err := a.ListSnapshots(target)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No snapshots found for directory: %s\n", target)
			return nil
		}
		writeSnapshotList(cmd.OutOrStdout(), items, time.Local)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a snapshot to an output directory",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		target, _ := cmd.Flags().GetString("target-directory")
		number, _ := cmd.Flags().GetInt64("snapshot-number")
		output, _ := cmd.Flags().GetString("output-directory")

		a, err := newApp("RestoreSnapshot")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		restored, err := a.RestoreSnapshot(target, number, output)
		if err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %d restored to: %s\n", number, restored)
		return nil
	},
}

// prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete a snapshot and content no other snapshot uses",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		target, _ := cmd.Flags().GetString("target-directory")
		number, _ := cmd.Flags().GetInt64("snapshot-number")

		a, err := newApp("PruneSnapshot")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := a.PruneSnapshot(target, number); err != nil {
			return fmt.Errorf("pruning snapshot: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %d pruned from directory: %s\n", number, target)
		return nil
	},
}

// verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check stored content of a snapshot against its hashes",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		target, _ := cmd.Flags().GetString("target-directory")
		number, _ := cmd.Flags().GetInt64("snapshot-number")

		a, err := newApp("VerifySnapshot")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		report, err := a.VerifySnapshot(target, number)
		if err != nil {
			return err
		}

		writeVerifyReport(cmd.OutOrStdout(), report)
		if !report.OK() {
			return fmt.Errorf("snapshot %d has %d corrupt blob(s)", number, len(report.Corrupt))
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded.")
			return nil
		}
		writeHistory(cmd.OutOrStdout(), ops)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, paths.BaseDir)

		if err := config.Init(paths.ConfigFile, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := database.MigrateFromConfig(cfg.Database, cfg.HostID); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", paths.ConfigFile)
		fmt.Fprintf(out, "Host ID: %s\n", hostID)
		fmt.Fprintf(out, "Base Dir: %s\n", paths.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		writeConfig(cmd.OutOrStdout(), path, cfg)
		return nil
	},
}

var configEncryptionCmd = &cobra.Command{
	Use:   "encryption",
	Short: "Manage encryption keys",
}

var configEncryptionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt database exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}

		passphrase, err := promptNewPassphrase()
		if err != nil {
			return err
		}
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Encryption keys written to %s and %s\n",
			cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.MigrateFromConfig(cfg.Database, cfg.HostID); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date.")
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage database exports in vaults",
}

var vaultPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local database with the latest vault export",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("vault")

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		passphrase, err := promptPassphrase("Passphrase")
		if err != nil {
			return err
		}

		path, err := app.PullMetadata(cfg, name, passphrase)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database restored to %s\n", path)
		return nil
	},
}

var vaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every configured vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		names, err := app.ValidateVaults(cfg)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "ok  %s\n", name)
		}
		return err
	},
}

func addSnapshotFlags(cmd *cobra.Command, withNumber bool) {
	cmd.Flags().String("target-directory", "", "Directory the snapshots belong to")
	cmd.MarkFlagRequired("target-directory")
	if withNumber {
		cmd.Flags().Int64("snapshot-number", 0, "Snapshot number")
		cmd.MarkFlagRequired("snapshot-number")
	}
}

func init() {
	addSnapshotFlags(snapshotCmd, false)
	addSnapshotFlags(listCmd, false)
	addSnapshotFlags(restoreCmd, true)
	restoreCmd.Flags().String("output-directory", "", "Directory to restore into (default: <target>_<snapshot time>)")
	addSnapshotFlags(pruneCmd, true)
	addSnapshotFlags(verifyCmd, true)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEncryptionCmd)
	configEncryptionCmd.AddCommand(configEncryptionInitCmd)

	dbCmd.AddCommand(dbMigrateCmd)

	vaultCmd.AddCommand(vaultPullCmd)
	vaultCmd.AddCommand(vaultCheckCmd)
	vaultPullCmd.Flags().String("vault", "", "Vault name (default: first configured vault)")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(vaultCmd)
}
