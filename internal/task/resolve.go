package task

import (
	"strings"
	"time"

	"taskhub/internal/models"
)

// checkAssignees inspects resolved directory facts for a proposed assignee
// set. Unlike the validator this accumulates: every unknown, inactive, and
// admin identity is reported in one pass, because each category implies a
// different corrective action for the caller.
func checkAssignees(assignees []string, entries map[string]models.DirectoryEntry) error {
	violation := &AssigneeError{}
	for _, id := range assignees {
		entry, ok := entries[id]
		switch {
		case !ok || !entry.Exists:
			violation.NonExistent = append(violation.NonExistent, id)
		case !entry.Active:
			violation.Inactive = append(violation.Inactive, id)
		case entry.Role == models.RoleAdmin:
			violation.Admins = append(violation.Admins, id)
		}
	}
	if violation.isEmpty() {
		return nil
	}
	return violation
}

// merge folds a validated, authorized request into a copy of the current
// task and derives the change-set. The caller's task is never mutated; the
// old record is still needed for diffing once the new one exists.
//
// The returned field map names exactly the fields this mutation touches, so
// the store can apply it without overwriting unrelated columns.
func merge(current models.Task, req ValidatedRequest, actor string, now time.Time) (models.Task, Diff, map[string]any) {
	next := current.Clone()
	diff := Diff{}
	fields := map[string]any{}

	if req.Status != nil {
		fields["status"] = *req.Status
		if *req.Status != current.Status {
			diff.StatusChanged = true
			diff.OldStatus = current.Status
			diff.NewStatus = *req.Status
			diff.FieldsChanged = append(diff.FieldsChanged, "status")
		}
		next.Status = *req.Status
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		fields["title"] = title
		if title != current.Title {
			diff.FieldsChanged = append(diff.FieldsChanged, "title")
		}
		next.Title = title
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		fields["description"] = description
		if description != current.Description {
			diff.FieldsChanged = append(diff.FieldsChanged, "description")
		}
		next.Description = description
	}

	if req.Priority != nil {
		fields["priority"] = *req.Priority
		if *req.Priority != current.Priority {
			diff.FieldsChanged = append(diff.FieldsChanged, "priority")
		}
		if *req.Priority == models.PriorityUrgent && current.Priority != models.PriorityUrgent {
			diff.PriorityEscalated = true
		}
		next.Priority = *req.Priority
	}

	if req.DueDate.Set {
		fields["dueDate"] = req.DueDate.Value
		if !equalStringPtr(req.DueDate.Value, current.DueDate) {
			diff.FieldsChanged = append(diff.FieldsChanged, "dueDate")
		}
		next.DueDate = req.DueDate.Value
	}

	if req.Tags != nil {
		fields["tags"] = req.Tags
		if !equalStrings(req.Tags, current.Tags) {
			diff.FieldsChanged = append(diff.FieldsChanged, "tags")
		}
		next.Tags = req.Tags
	}

	if req.Assignees != nil {
		fields["assignedMembers"] = req.Assignees
		diff.MembersAdded, diff.MembersRemoved = diffMembers(current.AssignedMembers, req.Assignees)
		if diff.Reassigned() {
			diff.FieldsChanged = append(diff.FieldsChanged, "assignedMembers")
		}
		next.AssignedMembers = req.Assignees
	}

	if req.Comment != nil {
		next.Comments = append(next.Comments, models.Comment{
			Author:    actor,
			Text:      *req.Comment,
			Timestamp: now,
		})
		fields["comments"] = next.Comments
		diff.CommentAdded = true
		diff.FieldsChanged = append(diff.FieldsChanged, "comments")
	}

	next.UpdatedAt = now
	next.UpdatedBy = actor
	fields["updatedAt"] = now
	fields["updatedBy"] = actor

	return next, diff, fields
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
