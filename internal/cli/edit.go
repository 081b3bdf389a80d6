package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/tasks"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change a task",
	Long: `Change one or more fields of a task. Only the flags given are applied.
Pass "none" to --project, --due, --remind or --repeat to clear the field.

Examples:
  irontodo edit abc123 --title "Buy milk" -p high
  irontodo edit abc123 --due none
  irontodo edit abc123 --add-tag home --rm-tag work
  irontodo edit abc123 --status pending`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editTitle       string
	editDescription string
	editPriority    string
	editStatus      string
	editProject     string
	editDue         string
	editReminder    string
	editTags        []string
	editAddTags     []string
	editRmTags      []string
	editRepeat      string
	editEvery       int
	editUntil       string
)

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editDescription, "desc", "", "New description")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "New priority")
	editCmd.Flags().StringVar(&editStatus, "status", "", "New status (active, pending, completed, archived)")
	editCmd.Flags().StringVarP(&editProject, "project", "P", "", "Move to project, or 'none'")
	editCmd.Flags().StringVarP(&editDue, "due", "d", "", "New due date, or 'none'")
	editCmd.Flags().StringVarP(&editReminder, "remind", "r", "", "New reminder date, or 'none'")
	editCmd.Flags().StringSliceVar(&editTags, "tags", nil, "Replace all tags")
	editCmd.Flags().StringSliceVar(&editAddTags, "add-tag", nil, "Add a tag (repeatable)")
	editCmd.Flags().StringSliceVar(&editRmTags, "rm-tag", nil, "Remove a tag (repeatable)")
	editCmd.Flags().StringVar(&editRepeat, "repeat", "", "Recurrence pattern, or 'none'")
	editCmd.Flags().IntVar(&editEvery, "every", 1, "Recurrence interval")
	editCmd.Flags().StringVar(&editUntil, "until", "", "Recurrence end date")
}

func runEdit(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App) error {
		t, err := resolveTask(a, args[0])
		if err != nil {
			return fmt.Errorf("task not found: %s", args[0])
		}

		patch, err := editPatch(cmd, a, t, time.Now())
		if err != nil {
			return err
		}

		updated, err := a.Tasks.Update(t.ID, patch)
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✎ Updated: \"%s\"\n", updated.Title)
		return nil
	})
}

func editPatch(cmd *cobra.Command, a *app.App, t model.Task, now time.Time) (tasks.Patch, error) {
	var p tasks.Patch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &editTitle
	}
	if changed("desc") {
		p.Description = &editDescription
	}
	if changed("priority") {
		pr, err := parsePriority(editPriority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if changed("status") {
		st := model.Status(strings.ToLower(editStatus))
		p.Status = &st
	}
	if changed("project") {
		id := ""
		if !isNone(editProject) {
			proj, err := resolveProject(a, editProject)
			if err != nil {
				return p, fmt.Errorf("project not found: %s", editProject)
			}
			id = proj.ID
		}
		p.ProjectID = &id
	}
	if changed("due") {
		if isNone(editDue) {
			p.ClearDueDate = true
		} else {
			due, err := parseDate(editDue, now)
			if err != nil {
				return p, err
			}
			p.DueDate = &due
		}
	}
	if changed("remind") {
		if isNone(editReminder) {
			p.ClearReminderDate = true
		} else {
			rem, err := parseDate(editReminder, now)
			if err != nil {
				return p, err
			}
			p.ReminderDate = &rem
		}
	}

	if changed("tags") || changed("add-tag") || changed("rm-tag") {
		tags := slices.Clone(t.Tags)
		if changed("tags") {
			tags = slices.DeleteFunc(slices.Clone(editTags), func(s string) bool { return strings.TrimSpace(s) == "" })
		}
		tags = append(tags, editAddTags...)
		tags = slices.DeleteFunc(tags, func(s string) bool { return slices.Contains(editRmTags, s) })
		if tags == nil {
			tags = []string{}
		}
		p.Tags = tags
	}

	if changed("repeat") {
		if isNone(editRepeat) {
			p.ClearRecurrence = true
		} else {
			rule, err := recurrenceRule(editRepeat, editEvery, editUntil, now)
			if err != nil {
				return p, err
			}
			p.Recurrence = rule
		}
	} else if (changed("every") || changed("until")) && t.Recurrence != nil {
		rule := t.Recurrence.Clone()
		if changed("every") {
			rule.Interval = editEvery
		}
		if changed("until") {
			if isNone(editUntil) {
				rule.EndDate = nil
			} else {
				end, err := parseDate(editUntil, now)
				if err != nil {
					return p, err
				}
				rule.EndDate = &end
			}
		}
		p.Recurrence = &rule
	}

	return p, nil
}

func isNone(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "none" || s == ""
}
