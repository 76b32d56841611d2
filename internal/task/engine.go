// Package task is the mutation core of the tracker: it takes a partial
// update request, enforces role-dependent field permissions, validates and
// diffs it against the current record, persists the merge, and plans the
// notifications the change must produce.
package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

// TaskStore is the durable record storage the engine mutates.
// UpdateTaskFields is an atomic per-field write keyed by task identifier; it
// must fail with models.ErrNotFound when the task has vanished rather than
// inserting.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
	UpdateTaskFields(ctx context.Context, id string, fields map[string]any) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]models.Task, error)
}

// Directory resolves principal identities to role and account facts.
type Directory interface {
	RoleOf(ctx context.Context, identity string) (string, error)
	IsActive(ctx context.Context, identity string) (bool, error)
	ResolveMany(ctx context.Context, identities []string) (map[string]models.DirectoryEntry, error)
}

// Notifier delivers one planned event, best effort. A returned error is
// logged and goes nowhere else.
type Notifier interface {
	Send(ctx context.Context, ev Event) error
}

// Engine is the task mutation core: it authorizes, validates, merges, and
// persists partial updates, then fans out the notifications the change
// earned. Stateless per request; collaborators are injected.
type Engine struct {
	store     TaskStore
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine wires the mutation engine with its collaborators.
func NewEngine(store TaskStore, directory Directory, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdateTask applies a partial update on behalf of an actor. The pipeline is
// authorize, validate, resolve, persist; every rejection happens before the
// write, so a failed request leaves the task untouched. Notifications go out
// only after a successful persist and can never fail the call.
//
// Two concurrent updates to the same task race read-then-write: the store
// applies fields individually, so non-conflicting fields from both writers
// survive, but a conflicting field silently keeps the later write. This is
// an accepted limitation, not a defect to patch here; adding an expected-
// version precondition to UpdateTaskFields would be the way to harden it.
func (e *Engine) UpdateTask(ctx context.Context, req UpdateRequest, actor, role string) (models.Task, Diff, error) {
	if strings.TrimSpace(req.TaskID) == "" {
		return models.Task{}, Diff{}, missingField("taskId")
	}

	current, err := e.store.GetTask(ctx, req.TaskID)
	if err != nil {
		return models.Task{}, Diff{}, mapStoreErr(err)
	}

	allowed, err := authorize(role, current, actor, req)
	if err != nil {
		return models.Task{}, Diff{}, err
	}

	validated, err := validate(allowed)
	if err != nil {
		return models.Task{}, Diff{}, err
	}

	if validated.Assignees != nil {
		entries, err := e.directory.ResolveMany(ctx, validated.Assignees)
		if err != nil {
			return models.Task{}, Diff{}, storeFailure(err)
		}
		if err := checkAssignees(validated.Assignees, entries); err != nil {
			return models.Task{}, Diff{}, err
		}
	}

	_, diff, fields := merge(current, validated, actor, e.now())

	// The store's view of the merged record is authoritative.
	saved, err := e.store.UpdateTaskFields(ctx, current.ID, fields)
	if err != nil {
		return models.Task{}, Diff{}, mapStoreErr(err)
	}

	e.dispatch(ctx, Plan(current, saved, diff, actor))
	return saved, diff, nil
}

// CreateTask creates a task (admin only) and notifies every assigned member.
func (e *Engine) CreateTask(ctx context.Context, req CreateRequest, actor, role string) (models.Task, error) {
	if role != models.RoleAdmin {
		return models.Task{}, forbidden()
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.Task{}, missingField("title")
	}
	if strings.TrimSpace(req.Description) == "" {
		return models.Task{}, missingField("description")
	}

	assignees, invalid := normalizeIdentities(req.AssignedTo)
	if len(assignees) == 0 {
		return models.Task{}, &Error{Kind: KindNoAssignees, Field: "assignedTo"}
	}
	if len(invalid) > 0 {
		return models.Task{}, &Error{Kind: KindInvalidIdentity, Field: "assignedTo", Values: invalid}
	}

	entries, err := e.directory.ResolveMany(ctx, assignees)
	if err != nil {
		return models.Task{}, storeFailure(err)
	}
	if err := checkAssignees(assignees, entries); err != nil {
		return models.Task{}, err
	}

	status := req.Status
	if status == "" {
		status = models.DefaultTaskStatus
	}
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return models.Task{}, invalidEnum("status", status)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.DefaultTaskPriority
	}
	if _, ok := models.ValidTaskPriorities[priority]; !ok {
		return models.Task{}, invalidEnum("priority", priority)
	}

	if req.DueDate != nil && !parseableDate(*req.DueDate) {
		return models.Task{}, &Error{Kind: KindInvalidDate, Field: "dueDate", Values: []string{*req.DueDate}}
	}

	now := e.now()
	t := models.Task{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Status:          status,
		Priority:        priority,
		AssignedMembers: assignees,
		CreatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
		UpdatedBy:       actor,
		DueDate:         req.DueDate,
		Tags:            req.Tags,
		Comments:        []models.Comment{},
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	if err := e.store.CreateTask(ctx, t); err != nil {
		return models.Task{}, storeFailure(err)
	}

	urgent := t.Priority == models.PriorityUrgent
	var events []Event
	for _, member := range t.AssignedMembers {
		events = append(events, Event{
			Recipient: member,
			Intent:    IntentAssigned,
			Payload: Payload{
				TaskID:      t.ID,
				Title:       t.Title,
				Description: t.Description,
				Actor:       actor,
				Status:      t.Status,
				Priority:    t.Priority,
				Urgent:      urgent,
				DueDate:     t.DueDate,
			},
		})
	}
	e.dispatch(ctx, events)
	return t, nil
}

// DeleteTask removes a task (admin only) and tells the assigned members the
// task is closed.
func (e *Engine) DeleteTask(ctx context.Context, id, actor, role string) error {
	if role != models.RoleAdmin {
		return forbidden()
	}
	if strings.TrimSpace(id) == "" {
		return missingField("taskId")
	}

	current, err := e.store.GetTask(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := e.store.DeleteTask(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	var events []Event
	for _, member := range current.AssignedMembers {
		events = append(events, Event{
			Recipient: member,
			Intent:    IntentTaskClosed,
			Payload: Payload{
				TaskID:      current.ID,
				Title:       current.Title,
				Description: current.Description,
				Actor:       actor,
				Status:      current.Status,
			},
		})
	}
	e.dispatch(ctx, events)
	return nil
}

// GetTask fetches one task, enforcing member visibility: members only see
// tasks they are assigned to.
func (e *Engine) GetTask(ctx context.Context, id, actor, role string) (models.Task, error) {
	t, err := e.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, mapStoreErr(err)
	}
	if role != models.RoleAdmin && !containsMember(t.AssignedMembers, actor) {
		return models.Task{}, forbidden()
	}
	return t, nil
}

// ListTasks returns every task for admins and only assigned tasks for
// members, newest first.
func (e *Engine) ListTasks(ctx context.Context, actor, role string) ([]models.Task, error) {
	all, err := e.store.ListTasks(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	if role == models.RoleAdmin {
		return all, nil
	}
	visible := make([]models.Task, 0, len(all))
	for _, t := range all {
		if containsMember(t.AssignedMembers, actor) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// dispatch fans the planned events out concurrently and waits for the whole
// batch, but only so failures get logged. Nothing here reaches the caller.
func (e *Engine) dispatch(ctx context.Context, events []Event) {
	if e.notifier == nil || len(events) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev Event) {
			defer wg.Done()
			if err := e.notifier.Send(ctx, ev); err != nil {
				e.logger.Warn("notification dispatch failed",
					slog.String("recipient", ev.Recipient),
					slog.String("intent", string(ev.Intent)),
					slog.String("error", err.Error()))
			}
		}(ev)
	}
	wg.Wait()
}

func mapStoreErr(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return &Error{Kind: KindNotFound, cause: err}
	}
	return storeFailure(err)
}
