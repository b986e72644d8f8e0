package commands

import (
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

// findTask resolves ref against the tracker's current listing.
func findTask(t *tracker.Tracker, ref TaskRef) (service.Task, error) {
	if ref.ByID {
		task, ok := t.Task(ref.ID)
		if !ok {
			return service.Task{}, fmt.Errorf("%w: %s", service.ErrTaskNotFound, ref)
		}
		return task, nil
	}

	tasks := t.Tasks()
	if ref.Num < 1 || ref.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", ref.Num)
	}
	return tasks[ref.Num-1], nil
}

// resolveRef parses the task reference in args and finds the task,
// printing the error and returning a non-zero code on failure.
func resolveRef(t *tracker.Tracker, args []string, errOut io.Writer) (service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}
	task, err := findTask(t, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}
	return task, exitcode.Success
}
