package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show or change the default project for new tasks",
	Long: `The context is the project 'irontodo add' files tasks under when no
--project is given. It is kept per data directory.

Examples:
  irontodo context              # Show the current context
  irontodo context set work     # File new tasks under 'work'
  irontodo context clear        # Back to the Inbox`,
	RunE: runContextShow,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project]",
	Short: "Set the default project",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Use the Inbox for new tasks",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func contextPath() string {
	return filepath.Join(cfg.DataDir, "context")
}

// currentContext returns the stored project id, "" for the Inbox
func currentContext() string {
	data, err := os.ReadFile(contextPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func setContext(projectID string) error {
	path := contextPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(projectID+"\n"), 0644)
}

func clearContext() error {
	if err := os.Remove(contextPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// contextProject resolves the stored context. A context pointing at a
// deleted project is dropped so new tasks land in the Inbox.
func contextProject(a *app.App) (id, name string) {
	id = currentContext()
	if id == "" {
		return "", ""
	}
	p, ok := a.Projects.FindByID(id)
	if !ok {
		logger.Warn("Context project no longer exists, clearing it", logger.F("project", id))
		_ = clearContext()
		return "", ""
	}
	return p.ID, p.Name
}

func runContextShow(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		id, name := contextProject(a)
		if id == "" {
			fmt.Fprintln(out, "📥 Current context: Inbox (default)")
			return nil
		}

		stats, err := a.Projects.GetStatistics(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "📁 Current context: %s (%d/%d tasks open)\n",
			name, stats.Active+stats.Pending, stats.Total)
		return nil
	})
}

func runContextSet(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, args[0])
		if err != nil {
			return fmt.Errorf("project not found: %s", args[0])
		}
		if p.Archived {
			return fmt.Errorf("project %s is archived", p.Name)
		}
		if err := setContext(p.ID); err != nil {
			return fmt.Errorf("failed to set context: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📁 Switched to: %s\n", p.Name)
		return nil
	})
}

func runContextClear(cmd *cobra.Command, args []string) error {
	if err := clearContext(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "📥 Context cleared, using Inbox")
	return nil
}
