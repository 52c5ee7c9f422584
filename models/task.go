package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the possible stored statuses of a task.
// "overdue" is a derived display state and is never stored.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Terminal reports whether no further status transition is allowed.
func (s TaskStatus) Terminal() bool { return s == StatusCompleted }

// CanTransitionTo reports whether the forward-only state machine allows
// moving from s to next. Completed is terminal; no regression is allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusCompleted
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// TaskPriority represents the priority levels of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskVisibility controls which non-manager accounts may observe a task.
type TaskVisibility string

const (
	// VisibilityPublic makes the task observable by every account.
	VisibilityPublic TaskVisibility = "public"
	// VisibilityPrivate restricts the task to its assignees (and managers).
	VisibilityPrivate TaskVisibility = "private"
)

// ProgressLogEntry is one append-only progress report embedded in a task.
// At least one of Text/Link must be non-empty for the entry to be appended.
type ProgressLogEntry struct {
	Text       string    `json:"text,omitempty"`
	Link       string    `json:"link,omitempty" validate:"omitempty,url"`
	AuthorName string    `json:"user" validate:"required"`
	CreatedAt  time.Time `json:"createdAt" validate:"required"`
}

// Task represents a unit of assigned work.
type Task struct {
	ID           string             `json:"id" validate:"required"`
	Title        string             `json:"title" validate:"required"`
	Description  string             `json:"description" validate:"required"`
	Deadline     *time.Time         `json:"deadline,omitempty"`
	Priority     TaskPriority       `json:"priority" validate:"required,oneof=low medium high"`
	Visibility   TaskVisibility     `json:"visibility" validate:"required,oneof=public private"`
	Status       TaskStatus         `json:"status" validate:"required,oneof=pending in-progress completed"`
	AssignedTo   []string           `json:"assignedTo"`
	ProgressLogs []ProgressLogEntry `json:"progressLogs" validate:"dive"`
	CreatedAt    time.Time          `json:"createdAt" validate:"required"`
}

// AssignedToAccount reports whether the given account id is an assignee.
func (t Task) AssignedToAccount(accountID string) bool {
	for _, id := range t.AssignedTo {
		if id == accountID {
			return true
		}
	}
	return false
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// NewTask creates a task with the documented defaults applied.
func NewTask(id, title, description string) *Task {
	return &Task{
		ID:           id,
		Title:        title,
		Description:  description,
		Status:       StatusPending,
		Priority:     PriorityMedium,
		Visibility:   VisibilityPrivate,
		AssignedTo:   []string{},
		ProgressLogs: []ProgressLogEntry{},
		CreatedAt:    time.Now().UTC(),
	}
}
