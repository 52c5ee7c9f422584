// Package stats derives dashboard counters and calendar day-buckets from a
// filtered task set. Everything here is a pure function of (tasks, now) and
// is recomputed in full on every snapshot; task sets are small enough that
// incremental maintenance is not worth its bookkeeping.
package stats

import (
	"sort"
	"time"

	"github.com/bryansoph/taskflow/models"
)

// DueSoonWindow is the forward window in which a non-overdue deadline
// counts as due soon.
const DueSoonWindow = 48 * time.Hour

// RecentLimit caps the dashboard's recent-task list.
const RecentLimit = 5

// DayPreviewLimit caps how many tasks a calendar day cell shows before
// collapsing into an overflow count.
const DayPreviewLimit = 3

// Counters are the dashboard headline numbers.
type Counters struct {
	Total   int
	Pending int
	Overdue int
	DueSoon int
}

// IsOverdue reports whether a task is past its deadline and not completed.
// Overdue is derived at read time; it is never a stored status.
func IsOverdue(t models.Task, now time.Time) bool {
	if t.Status == models.StatusCompleted || t.Deadline == nil {
		return false
	}
	return t.Deadline.Before(now)
}

// IsDueSoon reports whether a non-completed task's deadline falls inside
// the forward warning window but is not yet overdue.
func IsDueSoon(t models.Task, now time.Time) bool {
	if t.Status == models.StatusCompleted || t.Deadline == nil {
		return false
	}
	if t.Deadline.Before(now) {
		return false
	}
	return t.Deadline.Sub(now) <= DueSoonWindow
}

// Count computes the dashboard counters for a visible task set.
func Count(tasks []models.Task, now time.Time) Counters {
	c := Counters{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			continue
		}
		c.Pending++
		if IsOverdue(t, now) {
			c.Overdue++
		} else if IsDueSoon(t, now) {
			c.DueSoon++
		}
	}
	return c
}

// Recent returns up to limit tasks ordered by creation time, newest first.
// The input slice is not modified.
func Recent(tasks []models.Task, limit int) []models.Task {
	sorted := append([]models.Task{}, tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// MonthBuckets partitions tasks by the calendar day of their deadline
// within the given month. Tasks without a deadline are never bucketed.
func MonthBuckets(tasks []models.Task, year int, month time.Month) map[int][]models.Task {
	buckets := make(map[int][]models.Task)
	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		d := *t.Deadline
		if d.Year() != year || d.Month() != month {
			continue
		}
		buckets[d.Day()] = append(buckets[d.Day()], t)
	}
	return buckets
}

// DayPreview is a calendar day cell: up to DayPreviewLimit tasks plus a
// count of how many were cut.
type DayPreview struct {
	Shown    []models.Task
	Overflow int
}

// PreviewDay truncates a day bucket for display.
func PreviewDay(bucket []models.Task) DayPreview {
	if len(bucket) <= DayPreviewLimit {
		return DayPreview{Shown: bucket}
	}
	return DayPreview{
		Shown:    bucket[:DayPreviewLimit],
		Overflow: len(bucket) - DayPreviewLimit,
	}
}

// DisplayStatus maps a task to the status label shown to users: the stored
// status, except that an overdue task displays as "overdue".
func DisplayStatus(t models.Task, now time.Time) string {
	if IsOverdue(t, now) {
		return "overdue"
	}
	return string(t.Status)
}
