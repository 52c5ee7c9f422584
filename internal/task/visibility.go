package task

import "github.com/bryansoph/taskflow/models"

// Visible reports whether an account may observe a task. Managers see
// every task; everyone else sees a task iff they are an assignee or the
// task is public. The function is pure: two observers with the same
// account always agree on the same snapshot.
func Visible(viewer models.Account, t models.Task) bool {
	if viewer.IsManager() {
		return true
	}
	return t.AssignedToAccount(viewer.ID) || t.Visibility == models.VisibilityPublic
}

// FilterVisible projects a snapshot down to the tasks the viewer may
// observe, preserving order. It is re-applied to every emitted snapshot
// rather than pushed into the backend query, which keeps authorization in
// one testable place.
func FilterVisible(viewer models.Account, tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Visible(viewer, t) {
			out = append(out, t)
		}
	}
	return out
}
