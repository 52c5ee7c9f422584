package cmd

import (
	"testing"
	"time"

	"github.com/bryansoph/taskflow/models"
)

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "2026-09-15", want: time.Date(2026, 9, 15, 0, 0, 0, 0, time.Local)},
		{in: "2026-09-15T17:30", want: time.Date(2026, 9, 15, 17, 30, 0, 0, time.Local)},
		{in: "2026-09-15 17:30", want: time.Date(2026, 9, 15, 17, 30, 0, 0, time.Local)},
		{in: "next tuesday", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseDeadline(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseDeadline(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDeadline(%q) failed: %v", tc.in, err)
			continue
		}
		if tc.wantNil {
			if got != nil {
				t.Errorf("parseDeadline(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if got == nil || !got.Equal(tc.want) {
			t.Errorf("parseDeadline(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"a", "a"},
		{"s3cret", "s*****"},
	}
	for _, tc := range cases {
		if got := maskSecret(tc.in); got != tc.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSortTasksForList(t *testing.T) {
	early := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: "undated", CreatedAt: early},
		{ID: "late", Deadline: &late},
		{ID: "early", Deadline: &early},
	}

	sortTasksForList(tasks)

	if tasks[0].ID != "early" || tasks[1].ID != "late" || tasks[2].ID != "undated" {
		t.Errorf("order = %s, %s, %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
	}
}
