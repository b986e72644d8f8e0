// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskdeck/internal/service"
)

// TimeLayout is used for task timestamps.
const TimeLayout = "2006-01-02 15:04"

// detailIndent aligns detail lines under the task title.
const detailIndent = "          "

// Checkbox renders the completion flag.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// FormatTask formats a task line.
// Format: "{N:>4}  {[ ]|[x]} {TITLE}  #{ID}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s  #%d\n", num, Checkbox(task.Done), NormalizeTitle(task.Title), task.ID)
}

// FormatTaskDetail formats a task line followed by its description and
// timestamps, indented under the title.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	if d := Description(task); d != "" {
		for _, line := range strings.Split(d, "\n") {
			fmt.Fprintf(w, "%s%s\n", detailIndent, line)
		}
	}
	fmt.Fprintf(w, "%s%s\n", detailIndent, Timestamps(task))
}

// Description returns the trimmed description, or "" when absent.
func Description(task service.Task) string {
	if task.Description == nil {
		return ""
	}
	return strings.TrimSpace(*task.Description)
}

// Timestamps renders creation and, when present, update times in UTC.
func Timestamps(task service.Task) string {
	s := "created " + formatTime(task.CreatedAt)
	if task.UpdatedAt != nil {
		s += ", updated " + formatTime(*task.UpdatedAt)
	}
	return s
}

// FormatSession formats the logged-in identity.
func FormatSession(w io.Writer, sess service.Session) {
	fmt.Fprintf(w, "%s <%s> #%d\n", sess.Name, sess.Email, sess.ID)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(TimeLayout)
}

// NormalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
