package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
)

// resolveTask finds a task by full id or unique id prefix
func resolveTask(a *app.App, ref string) (model.Task, error) {
	if t, ok := a.Tasks.FindByID(ref); ok {
		return t, nil
	}

	var matches []model.Task
	for _, t := range a.Tasks.FindAll() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, errs.NotFound("task", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveProject finds a project by full id, unique id prefix or name
func resolveProject(a *app.App, ref string) (model.Project, error) {
	if p, ok := a.Projects.FindByID(ref); ok {
		return p, nil
	}
	if p, ok := a.Projects.FindByName(ref); ok {
		return p, nil
	}

	var matches []model.Project
	for _, p := range a.Projects.FindAll() {
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return model.Project{}, errs.NotFound("project", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Project{}, fmt.Errorf("project id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// parseDate understands today, tomorrow, +Nd, YYYY-MM-DD, "YYYY-MM-DD HH:MM"
// and RFC 3339. Date-only forms resolve to the end of that day.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	endOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
	}

	switch s {
	case "today":
		return endOfDay(now), nil
	case "tomorrow":
		return endOfDay(now.AddDate(0, 0, 1)), nil
	}
	if strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil {
			return endOfDay(now.AddDate(0, 0, n)), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return endOfDay(t), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(s)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use today, tomorrow, +3d, 2024-01-15 or \"2024-01-15 09:30\")", s)
}

// parsePriority accepts a priority name or 1-4 with 1 the most urgent
func parsePriority(s string) (model.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "critical", "urgent":
		return model.PriorityCritical, nil
	case "2", "high":
		return model.PriorityHigh, nil
	case "3", "medium":
		return model.PriorityMedium, nil
	case "4", "low":
		return model.PriorityLow, nil
	}
	return "", fmt.Errorf("invalid priority %q (use low, medium, high, critical or 1-4)", s)
}

func priorityLabel(p model.Priority) string {
	label := string(p)
	switch p {
	case model.PriorityCritical:
		label = "▲▲ P1"
	case model.PriorityHigh:
		label = "▲ P2"
	case model.PriorityMedium:
		label = "  P3"
	case model.PriorityLow:
		label = "  P4"
	}
	if style, ok := priorityStyles[string(p)]; ok {
		return style.Render(label)
	}
	return label
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return checkStyle.Render("[x]")
	case model.StatusArchived:
		return mutedStyle.Render("[-]")
	case model.StatusPending:
		return "[~]"
	}
	return "[ ]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func printTask(w io.Writer, t *model.Task, now time.Time) {
	due := ""
	overdue := false
	if t.DueDate != nil {
		due = t.DueDate.Local().Format("Jan 2")
		if t.IsOverdue(now) {
			due = "⚠ " + due
			overdue = true
		}
	}

	extra := ""
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, s := range t.Subtasks {
			if s.Completed {
				done++
			}
		}
		extra = fmt.Sprintf(" (%d/%d)", done, n)
	}
	if t.IsRecurring() {
		extra += " ↻"
	}

	// Pad before styling; escape sequences would throw off the widths
	title := fmt.Sprintf("%-40s", truncate(t.Title, 40)+extra)
	if t.Status == model.StatusCompleted || t.Status == model.StatusArchived {
		title = doneStyle.Render(title)
	}
	due = fmt.Sprintf("%-10s", due)
	if overdue {
		due = overdueStyle.Render(due)
	}

	fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n",
		statusIcon(t.Status), mutedStyle.Render(fmt.Sprintf("%-8s", shortID(t.ID))), title, due, priorityLabel(t.Priority))
}

// confirm asks a yes/no question; anything but y/yes is no
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// describeError turns a typed error into a user-facing line
func describeError(err error) error {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		lines := make([]string, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			lines = append(lines, "  - "+fe.Field+": "+fe.Message)
		}
		return fmt.Errorf("invalid input:\n%s", strings.Join(lines, "\n"))
	}
	return err
}
