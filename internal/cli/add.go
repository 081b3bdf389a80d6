package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/tasks"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new task, optionally to a project.

Examples:
  irontodo add "Buy groceries"
  irontodo add "Meeting with team" -p high -d tomorrow
  irontodo add "Weekly review" --repeat weekly --project work
  irontodo add "Release" -t work -t release -s "Tag build" -s "Publish notes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addProject     string
	addPriority    string
	addDue         string
	addReminder    string
	addDescription string
	addTags        []string
	addSubtasks    []string
	addRepeat      string
	addEvery       int
	addUntil       string
)

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "P", "", "Project name or id (default: current context)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (low, medium, high, critical or 1-4)")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (e.g., 'tomorrow', '+3d', '2024-01-15')")
	addCmd.Flags().StringVarP(&addReminder, "remind", "r", "", "Reminder date, not after the due date")
	addCmd.Flags().StringVar(&addDescription, "desc", "", "Longer description")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable)")
	addCmd.Flags().StringSliceVarP(&addSubtasks, "subtask", "s", nil, "Subtask title (repeatable)")
	addCmd.Flags().StringVar(&addRepeat, "repeat", "", "Recurrence pattern (daily, weekly, monthly, yearly)")
	addCmd.Flags().IntVar(&addEvery, "every", 1, "Recurrence interval, in units of --repeat")
	addCmd.Flags().StringVar(&addUntil, "until", "", "Last date a recurrence may fall on")
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		now := time.Now()
		d := tasks.Draft{
			Title:       strings.Join(args, " "),
			Description: addDescription,
			Tags:        addTags,
			Subtasks:    addSubtasks,
		}

		if addPriority != "" {
			p, err := parsePriority(addPriority)
			if err != nil {
				return err
			}
			d.Priority = p
		}
		if addDue != "" {
			due, err := parseDate(addDue, now)
			if err != nil {
				return err
			}
			d.DueDate = &due
		}
		if addReminder != "" {
			rem, err := parseDate(addReminder, now)
			if err != nil {
				return err
			}
			d.ReminderDate = &rem
		}
		if addRepeat != "" {
			rule, err := recurrenceRule(addRepeat, addEvery, addUntil, now)
			if err != nil {
				return err
			}
			d.Recurrence = rule
		}

		projectName := "Inbox"
		if cmd.Flags().Changed("project") {
			p, err := resolveProject(a, addProject)
			if err != nil {
				return fmt.Errorf("project not found: %s", addProject)
			}
			d.ProjectID, projectName = p.ID, p.Name
		} else if id, name := contextProject(a); id != "" {
			d.ProjectID, projectName = id, name
		}

		t, err := a.Tasks.Create(d)
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added to [%s]: \"%s\" (%s, id: %s)\n",
			projectName, t.Title, t.Priority, shortID(t.ID))
		return nil
	})
}

func recurrenceRule(pattern string, every int, until string, now time.Time) (*model.RecurrenceRule, error) {
	rule := &model.RecurrenceRule{
		Pattern:    model.Pattern(strings.ToLower(pattern)),
		Interval:   every,
		Exceptions: []time.Time{},
	}
	if until != "" {
		end, err := parseDate(until, now)
		if err != nil {
			return nil, err
		}
		rule.EndDate = &end
	}
	return rule, nil
}
