package task

import (
	"strings"

	"taskhub/internal/models"
)

// authorize enforces the role-dependent field permissions on a raw request.
//
// Admins may touch every task field. Members may only change status and
// append one comment; anything else they send is silently dropped, because
// the member UI submits naive partial payloads. A member who is not assigned
// to the task is rejected before any field is inspected.
//
// Returns the request stripped down to the fields the role may apply.
func authorize(role string, current models.Task, actor string, req UpdateRequest) (UpdateRequest, error) {
	if role != models.RoleAdmin && !containsMember(current.AssignedMembers, actor) {
		return UpdateRequest{}, forbidden()
	}

	allowed := UpdateRequest{TaskID: req.TaskID}

	if role == models.RoleAdmin {
		allowed.Status = req.Status
		allowed.Priority = req.Priority
		allowed.DueDate = req.DueDate
		allowed.Tags = req.Tags
		allowed.AssignedTo = req.AssignedTo
		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			allowed.Title = req.Title
		}
		if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
			allowed.Description = req.Description
		}
	} else {
		allowed.Status = req.Status
		if req.Comment != nil && strings.TrimSpace(*req.Comment) != "" {
			trimmed := strings.TrimSpace(*req.Comment)
			allowed.Comment = &trimmed
		}
	}

	if allowed.empty() {
		return UpdateRequest{}, &Error{Kind: KindNoValidUpdates}
	}
	return allowed, nil
}

// empty reports whether the request carries nothing to apply.
func (r UpdateRequest) empty() bool {
	return r.Status == nil &&
		r.Title == nil &&
		r.Description == nil &&
		r.Priority == nil &&
		!r.DueDate.Set &&
		r.Tags == nil &&
		r.AssignedTo == nil &&
		r.Comment == nil
}

func containsMember(members []string, identity string) bool {
	for _, m := range members {
		if m == identity {
			return true
		}
	}
	return false
}
