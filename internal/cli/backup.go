package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/existflow/irontodo/internal/app"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list and restore backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a snapshot now",
	RunE:  runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List snapshots, newest last",
	RunE:    runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [backup]",
	Short: "Replace all data with a snapshot",
	Long: `Replace all tasks, projects and tags with a snapshot. The argument is a
file name from 'irontodo backup list', a path, or 'latest'.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

var backupForce bool

func init() {
	backupRestoreCmd.Flags().BoolVarP(&backupForce, "force", "f", false, "Do not ask for confirmation")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		path, err := a.Store.Backup()
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "💾 Backup written: %s\n", path)
		return nil
	})
}

func runBackupList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		names, err := a.Store.ListBackups()
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No backups yet. Create one with: irontodo backup create")
			return nil
		}

		fmt.Fprintf(out, "\n💾 Backups in %s\n", a.Store.BackupDir())
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", name)
		}
		fmt.Fprintln(out)
		return nil
	})
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		target := args[0]
		if target == "latest" {
			names, err := a.Store.ListBackups()
			if err != nil || len(names) == 0 {
				return fmt.Errorf("no backups to restore")
			}
			target = names[len(names)-1]
		}

		if !backupForce && !confirm(cmd.InOrStdin(), out,
			fmt.Sprintf("Replace all data with %s?", filepath.Base(target))) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}

		if err := a.Store.RestoreFromBackup(target); err != nil {
			return fmt.Errorf("failed to restore backup: %w", err)
		}
		fmt.Fprintf(out, "♻️  Restored from %s (%d tasks, %d projects)\n",
			filepath.Base(target), a.Tasks.Count(), a.Projects.Count())
		return nil
	})
}
