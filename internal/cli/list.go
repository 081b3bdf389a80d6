package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/query"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, optionally filtered, sorted and paginated.

Examples:
  irontodo list
  irontodo list --project work --tag urgent
  irontodo list --overdue
  irontodo list --today
  irontodo list --search report --sort dueDate
  irontodo list --all --page 2 --size 20`,
	RunE: runList,
}

var (
	listProject  string
	listStatus   []string
	listPriority []string
	listTags     []string
	listSearch   string
	listOverdue  bool
	listToday    bool
	listWeek     bool
	listAll      bool
	listSort     string
	listDesc     bool
	listPage     int
	listSize     int
)

func init() {
	listCmd.Flags().StringVarP(&listProject, "project", "P", "", "Filter by project name or id")
	listCmd.Flags().StringSliceVar(&listStatus, "status", nil, "Filter by status (active, pending, completed, archived)")
	listCmd.Flags().StringSliceVarP(&listPriority, "priority", "p", nil, "Filter by priority")
	listCmd.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "Require tag (repeatable, all must match)")
	listCmd.Flags().StringVarP(&listSearch, "search", "q", "", "Search title and description")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue tasks")
	listCmd.Flags().BoolVar(&listToday, "today", false, "Only tasks due today")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Only tasks due in the next 7 days")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed and archived tasks")
	listCmd.Flags().StringVar(&listSort, "sort", "priority", "Sort by priority, dueDate, createdAt, updatedAt or title")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listCmd.Flags().IntVar(&listSize, "size", 0, "Page size (0 shows everything)")
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		out := cmd.OutOrStdout()
		now := time.Now()

		switch {
		case listOverdue:
			printTasks(out, "⚠ Overdue", a.Tasks.GetOverdue(), now)
			return nil
		case listToday:
			printTasks(out, "📅 Today", a.Tasks.GetToday(), now)
			return nil
		case listWeek:
			printTasks(out, "📅 This week", a.Tasks.GetThisWeek(), now)
			return nil
		}

		f := &query.Filter{Tags: listTags, SearchTerm: listSearch}
		for _, s := range listStatus {
			f.Status = append(f.Status, model.Status(strings.ToLower(s)))
		}
		if len(f.Status) == 0 && !listAll {
			f.Status = []model.Status{model.StatusActive, model.StatusPending}
		}
		for _, s := range listPriority {
			p, err := parsePriority(s)
			if err != nil {
				return err
			}
			f.Priority = append(f.Priority, p)
		}
		if listProject != "" {
			p, err := resolveProject(a, listProject)
			if err != nil {
				return fmt.Errorf("project not found: %s", listProject)
			}
			f.ProjectID = []string{p.ID}
		}

		switch query.Field(listSort) {
		case query.FieldPriority, query.FieldDueDate, query.FieldCreatedAt, query.FieldUpdatedAt, query.FieldTitle:
		default:
			return fmt.Errorf("unknown sort field %q", listSort)
		}

		// Priority reads naturally most urgent first
		desc := listDesc
		if query.Field(listSort) == query.FieldPriority {
			desc = !desc
		}
		dir := query.Asc
		if desc {
			dir = query.Desc
		}
		s := &query.Sort{Field: query.Field(listSort), Direction: dir}

		var pg *query.Pagination
		if listSize > 0 {
			pg = &query.Pagination{Page: listPage, PageSize: listSize}
		}

		page := a.Tasks.Find(f, s, pg)
		if page.Total == 0 {
			fmt.Fprintln(out, "No tasks found. Add one with: irontodo add \"Your task\"")
			return nil
		}

		if listProject != "" || pg != nil {
			printTasks(out, "📋 Tasks", page.Items, now)
		} else {
			printTasksByProject(out, a, page.Items, now)
		}
		if pg != nil {
			fmt.Fprintf(out, "  Page %d of %d (%d tasks)\n\n", page.Page, page.TotalPages, page.Total)
		}
		return nil
	})
}

func printTasks(w io.Writer, heading string, tasks []model.Task, now time.Time) {
	open := 0
	for _, t := range tasks {
		if t.Status == model.StatusActive || t.Status == model.StatusPending {
			open++
		}
	}

	fmt.Fprintf(w, "\n%s %s\n", headingStyle.Render(heading), mutedStyle.Render(fmt.Sprintf("(%d open)", open)))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", 72)))

	for i := range tasks {
		printTask(w, &tasks[i], now)
	}
	fmt.Fprintln(w)
}

// printTasksByProject groups tasks under their project, in project display
// order, with unassigned tasks first
func printTasksByProject(w io.Writer, a *app.App, tasks []model.Task, now time.Time) {
	byProject := make(map[string][]model.Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}

	if inbox := byProject[""]; len(inbox) > 0 {
		printTasks(w, "📥 Inbox", inbox, now)
	}
	for _, p := range a.Projects.FindAll() {
		if group := byProject[p.ID]; len(group) > 0 {
			printTasks(w, "📁 "+p.Name, group, now)
		}
	}
}
