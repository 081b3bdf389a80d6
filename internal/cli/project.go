package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/projects"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"proj"},
	Short:   "Manage projects",
	Long:    `Create, list, nest and manage projects for organizing tasks.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new project",
	Long: `Create a new project for organizing tasks.

Examples:
  irontodo project new "Work"
  irontodo project new "Personal" --color "#FF6B6B"
  irontodo project new "Q3 launch" --parent work`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all projects",
	RunE:    runProjectList,
}

var projectTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the project hierarchy",
	RunE:  runProjectTree,
}

var projectEditCmd = &cobra.Command{
	Use:   "edit [project]",
	Short: "Change a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectEdit,
}

var projectMoveCmd = &cobra.Command{
	Use:   "move [project] [new-parent|none]",
	Short: "Move a project under another, or to the top level",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectMove,
}

var projectReorderCmd = &cobra.Command{
	Use:   "reorder [project...]",
	Short: "Set the display order of projects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectReorder,
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive [project]",
	Short: "Archive a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProjectArchived(cmd, args[0], true)
	},
}

var projectUnarchiveCmd = &cobra.Command{
	Use:   "unarchive [project]",
	Short: "Unarchive a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProjectArchived(cmd, args[0], false)
	},
}

var projectStatsCmd = &cobra.Command{
	Use:   "stats [project]",
	Short: "Show task statistics for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectStats,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete [project]",
	Aliases: []string{"rm"},
	Short:   "Delete an empty project",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var (
	projectColor       string
	projectIcon        string
	projectDescription string
	projectParent      string
	projectName        string
	projectShowAll     bool
	projectForce       bool
)

func init() {
	projectNewCmd.Flags().StringVarP(&projectColor, "color", "c", "", "Project color (hex, default: from palette)")
	projectNewCmd.Flags().StringVar(&projectIcon, "icon", "", "Project icon (emoji)")
	projectNewCmd.Flags().StringVar(&projectDescription, "desc", "", "Project description")
	projectNewCmd.Flags().StringVar(&projectParent, "parent", "", "Parent project name or id")

	projectEditCmd.Flags().StringVar(&projectName, "name", "", "New name")
	projectEditCmd.Flags().StringVarP(&projectColor, "color", "c", "", "New color (hex)")
	projectEditCmd.Flags().StringVar(&projectIcon, "icon", "", "New icon")
	projectEditCmd.Flags().StringVar(&projectDescription, "desc", "", "New description")

	projectListCmd.Flags().BoolVarP(&projectShowAll, "all", "a", false, "Include archived projects")
	projectTreeCmd.Flags().BoolVarP(&projectShowAll, "all", "a", false, "Include archived projects")
	projectDeleteCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "Do not ask for confirmation")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectTreeCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectMoveCmd)
	projectCmd.AddCommand(projectReorderCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectUnarchiveCmd)
	projectCmd.AddCommand(projectStatsCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		d := projects.Draft{
			Name:        strings.Join(args, " "),
			Description: projectDescription,
			Color:       projectColor,
			Icon:        projectIcon,
		}
		if projectParent != "" {
			parent, err := resolveProject(a, projectParent)
			if err != nil {
				return fmt.Errorf("parent project not found: %s", projectParent)
			}
			d.ParentID = parent.ID
		}

		p, err := a.Projects.Create(d)
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project: %s (id: %s)\n", p.Name, shortID(p.ID))
		return nil
	})
}

func runProjectList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		all := a.Projects.FindAll()
		if len(all) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-8s  %-24s  %s\n", "ID", "Name", "Tasks")
		fmt.Fprintln(out, strings.Repeat("─", 50))

		shown, totalOpen := 0, 0
		for _, p := range all {
			if p.Archived && !projectShowAll {
				continue
			}
			stats, err := a.Projects.GetStatistics(p.ID)
			if err != nil {
				return err
			}
			open := stats.Active + stats.Pending
			totalOpen += open
			shown++
			fmt.Fprintf(out, "  %-8s  %s  %d/%d%s\n", shortID(p.ID),
				projectStyle(p.Color).Render(fmt.Sprintf("%-24s", projectLabel(p))), open, stats.Total, archivedMark(p))
		}

		fmt.Fprintln(out, strings.Repeat("─", 50))
		fmt.Fprintf(out, "  %d projects, %d open tasks\n\n", shown, totalOpen)
		return nil
	})
}

func runProjectTree(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		roots := a.Projects.GetHierarchy()
		if len(roots) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}
		fmt.Fprintln(out)
		printTree(out, roots, "")
		fmt.Fprintln(out)
		return nil
	})
}

func printTree(w io.Writer, nodes []projects.Node, indent string) {
	visible := nodes[:0:0]
	for _, n := range nodes {
		if !n.Project.Archived || projectShowAll {
			visible = append(visible, n)
		}
	}
	for i, n := range visible {
		branch, next := "├── ", "│   "
		if i == len(visible)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s%s\n", mutedStyle.Render(indent), mutedStyle.Render(branch),
			projectStyle(n.Project.Color).Render(projectLabel(n.Project)), archivedMark(n.Project))
		printTree(w, n.Children, indent+next)
	}
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, args[0])
		if err != nil {
			return fmt.Errorf("project not found: %s", args[0])
		}

		var patch projects.Patch
		if cmd.Flags().Changed("name") {
			patch.Name = &projectName
		}
		if cmd.Flags().Changed("color") {
			patch.Color = &projectColor
		}
		if cmd.Flags().Changed("icon") {
			patch.Icon = &projectIcon
		}
		if cmd.Flags().Changed("desc") {
			patch.Description = &projectDescription
		}

		updated, err := a.Projects.Update(p.ID, patch)
		if err != nil {
			return describeError(err)
		}
		if updated == nil {
			return errs.NotFound("project", p.ID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✎ Updated project: %s\n", updated.Name)
		return nil
	})
}

func runProjectMove(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, args[0])
		if err != nil {
			return fmt.Errorf("project not found: %s", args[0])
		}

		parentID, parentName := "", "top level"
		if !isNone(args[1]) {
			parent, err := resolveProject(a, args[1])
			if err != nil {
				return fmt.Errorf("parent project not found: %s", args[1])
			}
			parentID, parentName = parent.ID, parent.Name
		}

		moved, err := a.Projects.Move(p.ID, parentID)
		if err != nil {
			return describeError(err)
		}
		if moved == nil {
			return errs.NotFound("project", p.ID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "↳ Moved %s to %s\n", p.Name, parentName)
		return nil
	})
}

func runProjectReorder(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		ids := make([]string, 0, len(args))
		for _, ref := range args {
			p, err := resolveProject(a, ref)
			if err != nil {
				return fmt.Errorf("project not found: %s", ref)
			}
			ids = append(ids, p.ID)
		}

		ok, err := a.Projects.Reorder(ids)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reorder failed: unknown project")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reordered %d project(s)\n", len(ids))
		return nil
	})
}

func setProjectArchived(cmd *cobra.Command, ref string, archived bool) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, ref)
		if err != nil {
			return fmt.Errorf("project not found: %s", ref)
		}

		var updated *model.Project
		if archived {
			updated, err = a.Projects.Archive(p.ID)
		} else {
			updated, err = a.Projects.Unarchive(p.ID)
		}
		if err != nil {
			return describeError(err)
		}
		if updated == nil {
			return errs.NotFound("project", p.ID)
		}

		if archived {
			fmt.Fprintf(cmd.OutOrStdout(), "📦 Archived project: %s\n", p.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "📂 Unarchived project: %s\n", p.Name)
		}
		return nil
	})
}

func runProjectStats(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, args[0])
		if err != nil {
			return fmt.Errorf("project not found: %s", args[0])
		}
		s, err := a.Projects.GetStatistics(p.ID)
		if err != nil {
			return err
		}
		if s == nil {
			return errs.NotFound("project", p.ID)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n📊 %s\n", projectStyle(p.Color).Render(projectLabel(p)))
		fmt.Fprintln(out, strings.Repeat("─", 40))
		fmt.Fprintf(out, "  Total:      %d\n", s.Total)
		fmt.Fprintf(out, "  Active:     %d\n", s.Active)
		fmt.Fprintf(out, "  Pending:    %d\n", s.Pending)
		fmt.Fprintf(out, "  Completed:  %d\n", s.Completed)
		fmt.Fprintf(out, "  Archived:   %d\n", s.Archived)
		fmt.Fprintf(out, "  Overdue:    %d\n", s.Overdue)
		fmt.Fprintf(out, "  Done rate:  %.0f%%\n\n", s.CompletionRate*100)
		return nil
	})
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		p, err := resolveProject(a, args[0])
		if err != nil {
			return fmt.Errorf("project not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		if cfg.ConfirmDelete && !projectForce {
			if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete project %q?", p.Name)) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if _, err := a.Projects.Delete(p.ID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if currentContext() == p.ID {
			_ = clearContext()
		}

		fmt.Fprintf(out, "🗑️  Deleted project: %s\n", p.Name)
		return nil
	})
}

func projectLabel(p model.Project) string {
	if p.Icon != "" {
		return p.Icon + " " + p.Name
	}
	return p.Name
}

func archivedMark(p model.Project) string {
	if p.Archived {
		return mutedStyle.Render("  (archived)")
	}
	return ""
}
