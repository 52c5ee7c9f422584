package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/types"
)

// ErrNoTasksFound is returned when an interactive selection is attempted
// but no tasks are available.
var ErrNoTasksFound = errors.New("no tasks found matching your criteria")

// deadlineLayouts are the accepted --deadline input formats.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDeadline parses a user-supplied deadline string. Date-only input
// lands at midnight local time.
func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized deadline %q (want e.g. 2006-01-02 or 2006-01-02T15:04)", raw)
}

// resolveAssignees maps handles or account ids to roster ids, failing on
// anything that matches no account.
func resolveAssignees(accounts *account.Service, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return []string{}, nil
	}
	roster, err := accounts.List()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]struct{}, len(roster))
	byHandle := make(map[string]string, len(roster))
	for _, acc := range roster {
		byID[acc.ID] = struct{}{}
		byHandle[acc.LoginHandle] = acc.ID
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := byID[ref]; ok {
			ids = append(ids, ref)
			continue
		}
		handle := account.NormalizeHandle(ref, GetConfig().Auth.Domain)
		if id, ok := byHandle[handle]; ok {
			ids = append(ids, id)
			continue
		}
		return nil, fmt.Errorf("no account matches %q", ref)
	}
	return ids, nil
}

// selectTaskInteractive presents a prompt to the user to select a task
// from the given list.
func selectTaskInteractive(tasks []models.Task, label string) (models.Task, error) {
	if len(tasks) == 0 {
		return models.Task{}, ErrNoTasksFound
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Title | cyan }} (ID: {{ .ID }}, Status: {{ .Status }})`,
		Inactive: `  {{ .Title | faint }} (ID: {{ .ID }}, Status: {{ .Status }})`,
		Selected: `{{ "✔" | green }} {{ .Title | faint }} (ID: {{ .ID }})`,
	}

	searcher := func(input string, index int) bool {
		t := tasks[index]
		name := strings.ToLower(t.Title)
		return strings.Contains(name, strings.ToLower(input))
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     tasks,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return models.Task{}, fmt.Errorf("task selection cancelled: %w", err)
	}
	return tasks[i], nil
}

// friendlyError maps typed service errors onto the short user-facing
// messages of the original system, falling back to the raw error.
func friendlyError(err error) error {
	var typed *types.Error
	if !errors.As(err, &typed) {
		return err
	}
	switch typed.Code {
	case types.CodeNotFound:
		return errors.New(typed.Message)
	case types.CodeInvalidCredential:
		return errors.New("incorrect password")
	case types.CodeUnauthorized:
		return fmt.Errorf("not allowed: %s", typed.Message)
	case types.CodeValidation:
		return errors.New(typed.Message)
	default:
		return err
	}
}
