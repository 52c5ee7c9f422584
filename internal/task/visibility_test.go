package task

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bryansoph/taskflow/models"
)

func randomTask(rng *rand.Rand, id string, accountIDs []string) models.Task {
	t := models.Task{ID: id, Title: id, Visibility: models.VisibilityPrivate}
	if rng.Intn(2) == 0 {
		t.Visibility = models.VisibilityPublic
	}
	for _, accID := range accountIDs {
		if rng.Intn(3) == 0 {
			t.AssignedTo = append(t.AssignedTo, accID)
		}
	}
	return t
}

func TestVisibilityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	viewers := []models.Account{
		{ID: "user_m", Role: models.RoleManager},
		{ID: "user_a", Role: models.RoleEmployee},
		{ID: "user_b", Role: models.RoleEmployee},
	}
	accountIDs := []string{"user_a", "user_b", "user_gone"}

	for round := 0; round < 100; round++ {
		var tasks []models.Task
		for i := 0; i < 20; i++ {
			tasks = append(tasks, randomTask(rng, fmt.Sprintf("t%d", i), accountIDs))
		}

		for _, viewer := range viewers {
			filtered := FilterVisible(viewer, tasks)

			// A manager observes the whole set.
			if viewer.IsManager() && len(filtered) != len(tasks) {
				t.Fatalf("manager sees %d of %d tasks", len(filtered), len(tasks))
			}

			seen := make(map[string]bool, len(filtered))
			for _, task := range filtered {
				seen[task.ID] = true
			}
			for _, task := range tasks {
				want := viewer.IsManager() ||
					task.Visibility == models.VisibilityPublic ||
					task.AssignedToAccount(viewer.ID)
				if seen[task.ID] != want {
					t.Fatalf("viewer %s, task %s: visible=%v want %v (visibility=%s assigned=%v)",
						viewer.ID, task.ID, seen[task.ID], want, task.Visibility, task.AssignedTo)
				}
				if seen[task.ID] != Visible(viewer, task) {
					t.Fatalf("FilterVisible and Visible disagree on %s for %s", task.ID, viewer.ID)
				}
			}

			// Filtering is a projection: applying it twice changes nothing.
			again := FilterVisible(viewer, filtered)
			if len(again) != len(filtered) {
				t.Fatalf("filter is not idempotent: %d then %d", len(filtered), len(again))
			}
		}
	}
}
