package task

import (
	"regexp"
	"strings"
	"time"

	"taskhub/internal/models"
)

// emailShape is the basic identity-address check: local-part@domain with a
// dot in the domain and no whitespace anywhere.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dueDateLayouts are the calendar formats a due date may arrive in.
var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

// ValidatedRequest is an UpdateRequest whose values have passed structural
// validation. Assignees is the deduplicated, shape-checked assignee set
// (nil when the request does not touch assignment).
type ValidatedRequest struct {
	UpdateRequest
	Assignees []string
}

// validate enforces the structural rules on an authorized request. Rules run
// in a fixed order and the first failure wins, except that identity shape
// violations are collected and reported as a full list.
func validate(req UpdateRequest) (ValidatedRequest, error) {
	if strings.TrimSpace(req.TaskID) == "" {
		return ValidatedRequest{}, missingField("taskId")
	}

	if req.Status != nil {
		if _, ok := models.ValidTaskStatuses[*req.Status]; !ok {
			return ValidatedRequest{}, invalidEnum("status", *req.Status)
		}
	}

	if req.Priority != nil {
		if _, ok := models.ValidTaskPriorities[*req.Priority]; !ok {
			return ValidatedRequest{}, invalidEnum("priority", *req.Priority)
		}
	}

	if req.DueDate.Set && req.DueDate.Value != nil {
		if !parseableDate(*req.DueDate.Value) {
			return ValidatedRequest{}, &Error{Kind: KindInvalidDate, Field: "dueDate", Values: []string{*req.DueDate.Value}}
		}
	}

	out := ValidatedRequest{UpdateRequest: req}

	if req.AssignedTo != nil {
		unique, invalid := normalizeIdentities(req.AssignedTo)
		if len(unique) == 0 {
			return ValidatedRequest{}, &Error{Kind: KindNoAssignees, Field: "assignedTo"}
		}
		if len(invalid) > 0 {
			return ValidatedRequest{}, &Error{Kind: KindInvalidIdentity, Field: "assignedTo", Values: invalid}
		}
		out.Assignees = unique
	}

	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		if trimmed == "" {
			out.Comment = nil
		} else {
			out.Comment = &trimmed
		}
	}

	return out, nil
}

// normalizeIdentities drops blank entries, deduplicates by exact string, and
// collects every entry that fails the shape check. Order of first appearance
// is preserved.
func normalizeIdentities(raw []string) (unique, invalid []string) {
	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		if strings.TrimSpace(id) == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
		if !emailShape.MatchString(id) {
			invalid = append(invalid, id)
		}
	}
	return unique, invalid
}

// ValidIdentity reports whether s passes the identity-address shape check.
func ValidIdentity(s string) bool {
	return emailShape.MatchString(s)
}

func parseableDate(v string) bool {
	for _, layout := range dueDateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
