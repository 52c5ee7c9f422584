// Package task implements the task lifecycle engine: creation, manager
// edits, the progress-log append protocol, and the per-account visibility
// filter applied to live snapshots.
package task

import (
	"strings"
	"time"

	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/store"
	"github.com/bryansoph/taskflow/types"
)

// Collection is the tasks collection name.
const Collection = "tasks"

// Service exposes task lifecycle operations over a document store.
type Service struct {
	docs store.DocumentStore
}

// NewService creates a task service.
func NewService(docs store.DocumentStore) *Service {
	return &Service{docs: docs}
}

func decodeTask(doc store.Document) (models.Task, error) {
	var t models.Task
	if err := store.Decode(doc, &t); err != nil {
		return models.Task{}, types.NewStoreError("malformed task record", err)
	}
	if t.ID == "" {
		t.ID = doc.ID
	}
	return t, nil
}

func decodeTasks(docs []store.Document) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeTask(doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Get returns the latest stored state of one task, unfiltered. The store
// contract has no point lookup, so this is a one-shot collection scan.
func (s *Service) Get(id string) (models.Task, error) {
	docs, err := s.docs.QueryEquals(Collection, "", nil, 0)
	if err != nil {
		return models.Task{}, err
	}
	for _, doc := range docs {
		if doc.ID == id {
			return decodeTask(doc)
		}
	}
	return models.Task{}, types.NewNotFound("task not found", map[string]any{"id": id})
}

// List returns the tasks the viewer may observe, ordered by id.
func (s *Service) List(viewer models.Account) ([]models.Task, error) {
	docs, err := s.docs.QueryEquals(Collection, "", nil, 0)
	if err != nil {
		return nil, err
	}
	tasks, err := decodeTasks(docs)
	if err != nil {
		return nil, err
	}
	return FilterVisible(viewer, tasks), nil
}

// Watch returns a live feed of the viewer's filtered task set. Each raw
// store snapshot passes through FilterVisible before delivery; delivery
// coalesces so a slow consumer always observes the latest state. stop
// unsubscribes.
func (s *Service) Watch(viewer models.Account) (snapshots <-chan []models.Task, stop func(), err error) {
	sub, err := s.docs.Subscribe(Collection)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan []models.Task, 1)
	go func() {
		defer close(out)
		for docs := range sub.C() {
			tasks, err := decodeTasks(docs)
			if err != nil {
				continue
			}
			filtered := FilterVisible(viewer, tasks)
			select {
			case out <- filtered:
			default:
				select {
				case <-out:
				default:
				}
				out <- filtered
			}
		}
	}()
	return out, sub.Close, nil
}

// CreateInput carries the fields for a new task. Zero-value Priority and
// Visibility take the documented defaults (medium, private).
type CreateInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    models.TaskPriority
	Visibility  models.TaskVisibility
	AssignedTo  []string
}

// Create adds a new task. Manager-only. Title and description are
// required; the task starts pending with an empty progress log.
func (s *Service) Create(actor models.Account, input CreateInput) (models.Task, error) {
	if !actor.IsManager() {
		return models.Task{}, types.NewUnauthorized("only managers can create tasks", nil)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return models.Task{}, types.NewValidationError("title is required", nil)
	}
	if description == "" {
		return models.Task{}, types.NewValidationError("description is required", nil)
	}

	t := models.NewTask("", title, description)
	t.Deadline = input.Deadline
	if input.Priority != "" {
		t.Priority = input.Priority
	}
	if input.Visibility != "" {
		t.Visibility = input.Visibility
	}
	if input.AssignedTo != nil {
		t.AssignedTo = input.AssignedTo
	}

	fields, err := store.Encode(t)
	if err != nil {
		return models.Task{}, types.NewStoreError("encode task", err)
	}
	// The store assigns the id; it is not duplicated into the record body.
	delete(fields, "id")

	id, err := s.docs.Insert(Collection, fields)
	if err != nil {
		return models.Task{}, err
	}
	t.ID = id
	return *t, nil
}

// EditFields is the manager-editable subset of a task. Nil pointers leave
// the stored value untouched; ClearDeadline removes the deadline. Status
// and the progress log are never reachable from an edit.
type EditFields struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *models.TaskPriority
	Visibility    *models.TaskVisibility
	AssignedTo    *[]string
}

// Edit merge-patches a task's descriptive fields. Manager-only.
func (s *Service) Edit(actor models.Account, id string, fields EditFields) error {
	if !actor.IsManager() {
		return types.NewUnauthorized("only managers can edit tasks", nil)
	}

	patch := map[string]any{}
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return types.NewValidationError("title is required", nil)
		}
		patch["title"] = title
	}
	if fields.Description != nil {
		description := strings.TrimSpace(*fields.Description)
		if description == "" {
			return types.NewValidationError("description is required", nil)
		}
		patch["description"] = description
	}
	if fields.ClearDeadline {
		patch["deadline"] = nil
	} else if fields.Deadline != nil {
		patch["deadline"] = fields.Deadline.Format(time.RFC3339)
	}
	if fields.Priority != nil {
		switch *fields.Priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			patch["priority"] = string(*fields.Priority)
		default:
			return types.NewValidationError("priority must be low, medium or high", map[string]any{"priority": string(*fields.Priority)})
		}
	}
	if fields.Visibility != nil {
		switch *fields.Visibility {
		case models.VisibilityPublic, models.VisibilityPrivate:
			patch["visibility"] = string(*fields.Visibility)
		default:
			return types.NewValidationError("visibility must be public or private", map[string]any{"visibility": string(*fields.Visibility)})
		}
	}
	if fields.AssignedTo != nil {
		patch["assignedTo"] = *fields.AssignedTo
	}
	if len(patch) == 0 {
		return nil
	}
	return s.docs.Update(Collection, id, patch)
}

// ReportProgress appends a progress entry to a task the actor may observe.
// An entry with neither text nor link is a silent no-op: nothing is
// written and no error is returned. Reporting against a pending task
// advances it to in-progress in the same patch; reporting work implies
// work has started.
//
// The append is a read-modify-write of the whole log field under
// last-writer-wins, so two truly simultaneous reporters can race and one
// append can be lost. That window is an accepted consistency trade-off of
// the store contract, which offers no atomic array append.
func (s *Service) ReportProgress(actor models.Account, id, text, link string) (models.Task, error) {
	text = strings.TrimSpace(text)
	link = strings.TrimSpace(link)
	current, err := s.Get(id)
	if err != nil {
		return models.Task{}, err
	}
	if !Visible(actor, current) {
		return models.Task{}, types.NewUnauthorized("task is not visible to this account", map[string]any{"id": id})
	}
	if text == "" && link == "" {
		return current, nil
	}

	entry := models.ProgressLogEntry{
		Text:       text,
		Link:       link,
		AuthorName: actor.DisplayName,
		CreatedAt:  time.Now().UTC(),
	}
	logs := append(append([]models.ProgressLogEntry{}, current.ProgressLogs...), entry)

	// Reporting against a non-started task advances it in the same patch,
	// but never regresses one that is already past in-progress.
	advance := current.Status != models.StatusInProgress &&
		current.Status.CanTransitionTo(models.StatusInProgress)

	patch := map[string]any{"progressLogs": logs}
	if advance {
		patch["status"] = string(models.StatusInProgress)
	}
	if err := s.docs.Update(Collection, id, patch); err != nil {
		return models.Task{}, err
	}

	current.ProgressLogs = logs
	if advance {
		current.Status = models.StatusInProgress
	}
	return current, nil
}

// MarkComplete sets a task's status to completed. Manager-only. Completed
// is terminal and the write is unconditional, so completing an
// already-completed task is a harmless no-op.
func (s *Service) MarkComplete(actor models.Account, id string) (models.Task, error) {
	if !actor.IsManager() {
		return models.Task{}, types.NewUnauthorized("only managers can complete tasks", nil)
	}
	current, err := s.Get(id)
	if err != nil {
		return models.Task{}, err
	}
	if current.Status.Terminal() {
		return current, nil
	}
	if err := s.docs.Update(Collection, id, map[string]any{"status": string(models.StatusCompleted)}); err != nil {
		return models.Task{}, err
	}
	current.Status = models.StatusCompleted
	return current, nil
}
