package models

import (
	"testing"
	"time"
)

func TestTaskStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusInProgress.Terminal() {
		t.Error("pending and in-progress must not be terminal")
	}
	if !StatusCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
}

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask("id-1", "Ship the report", "Quarterly numbers for the board")

	if task.Status != StatusPending {
		t.Errorf("new task status = %s, want %s", task.Status, StatusPending)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("new task priority = %s, want %s", task.Priority, PriorityMedium)
	}
	if task.Visibility != VisibilityPrivate {
		t.Errorf("new task visibility = %s, want %s", task.Visibility, VisibilityPrivate)
	}
	if task.ProgressLogs == nil || len(task.ProgressLogs) != 0 {
		t.Error("new task must start with an empty, non-nil progress log")
	}
	if task.AssignedTo == nil {
		t.Error("new task must start with a non-nil assignee list")
	}
	if task.CreatedAt.IsZero() {
		t.Error("new task must have a creation time")
	}
}

func TestTaskValidation(t *testing.T) {
	valid := NewTask("id-1", "Title", "Description")
	if err := ValidateStruct(valid); err != nil {
		t.Fatalf("valid task failed validation: %v", err)
	}

	noTitle := NewTask("id-2", "", "Description")
	if err := ValidateStruct(noTitle); err == nil {
		t.Error("task without title must fail validation")
	}

	badStatus := NewTask("id-3", "Title", "Description")
	badStatus.Status = TaskStatus("overdue")
	if err := ValidateStruct(badStatus); err == nil {
		t.Error("overdue must not be a storable status")
	}

	badPriority := NewTask("id-4", "Title", "Description")
	badPriority.Priority = TaskPriority("urgent")
	if err := ValidateStruct(badPriority); err == nil {
		t.Error("unknown priority must fail validation")
	}
}

func TestAssignedToAccount(t *testing.T) {
	task := NewTask("id-1", "Title", "Description")
	task.AssignedTo = []string{"user_a", "user_b"}

	if !task.AssignedToAccount("user_a") {
		t.Error("expected user_a to be assigned")
	}
	if task.AssignedToAccount("user_c") {
		t.Error("expected user_c not to be assigned")
	}
}

func TestAccountRole(t *testing.T) {
	manager := Account{Role: RoleManager}
	employee := Account{Role: RoleEmployee}

	if !manager.IsManager() {
		t.Error("manager role must report IsManager")
	}
	if employee.IsManager() {
		t.Error("employee role must not report IsManager")
	}
}

func TestAccountValidation(t *testing.T) {
	acc := Account{
		ID:               "user_bryansophtaskflowcom",
		DisplayName:      "Bryan Soph",
		LoginHandle:      "bryansoph@taskflow.com",
		CredentialSecret: "s3cret",
		Role:             RoleManager,
		CreatedAt:        time.Now().UTC(),
	}
	if err := ValidateStruct(acc); err != nil {
		t.Fatalf("valid account failed validation: %v", err)
	}

	acc.LoginHandle = "not-an-email"
	if err := ValidateStruct(acc); err == nil {
		t.Error("malformed handle must fail validation")
	}

	acc.LoginHandle = "bryansoph@taskflow.com"
	acc.Role = Role("admin")
	if err := ValidateStruct(acc); err == nil {
		t.Error("unknown role must fail validation")
	}
}
