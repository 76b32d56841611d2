package task

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a rejected update so the transport layer can map it to a
// caller-visible status without parsing message text.
type Kind string

const (
	KindMissingField    Kind = "missing_field"
	KindInvalidEnum     Kind = "invalid_enum_value"
	KindInvalidDate     Kind = "invalid_date_format"
	KindInvalidIdentity Kind = "invalid_identity_format"
	KindNoAssignees     Kind = "no_assignees_provided"
	KindNonExistent     Kind = "non_existent_users"
	KindInactive        Kind = "inactive_users"
	KindAdmins          Kind = "admin_users"
	KindForbidden       Kind = "forbidden"
	KindNoValidUpdates  Kind = "no_valid_updates"
	KindNotFound        Kind = "not_found"
	KindStoreFailure    Kind = "store_failure"
)

// Error is a structured domain error: a kind, the field it concerns, and the
// offending values. Message text is derived, never assembled from internals.
type Error struct {
	Kind   Kind
	Field  string
	Values []string
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing required field: %s", e.Field)
	case KindInvalidEnum:
		return fmt.Sprintf("invalid %s: must be one of %s", e.Field, strings.Join(allowedEnumValues(e.Field), ", "))
	case KindInvalidDate:
		return "invalid due date format"
	case KindInvalidIdentity:
		return fmt.Sprintf("invalid email addresses: %s", strings.Join(e.Values, ", "))
	case KindNoAssignees:
		return "at least one member must be assigned"
	case KindForbidden:
		return "forbidden"
	case KindNoValidUpdates:
		return "no valid updates provided"
	case KindNotFound:
		return "task not found"
	case KindStoreFailure:
		return "storage failure"
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }

func missingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

func invalidEnum(field, got string) *Error {
	return &Error{Kind: KindInvalidEnum, Field: field, Values: []string{got}}
}

func allowedEnumValues(field string) []string {
	switch field {
	case "status":
		return []string{"pending", "in-progress", "completed", "blocked", "cancelled"}
	case "priority":
		return []string{"low", "medium", "high", "urgent"}
	default:
		return nil
	}
}

func forbidden() *Error {
	return &Error{Kind: KindForbidden}
}

func storeFailure(err error) *Error {
	return &Error{Kind: KindStoreFailure, cause: err}
}

// KindOf extracts the kind from any error produced by this package.
// AssigneeError reports the first populated category.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	var ae *AssigneeError
	if errors.As(err, &ae) {
		switch {
		case len(ae.NonExistent) > 0:
			return KindNonExistent, true
		case len(ae.Inactive) > 0:
			return KindInactive, true
		case len(ae.Admins) > 0:
			return KindAdmins, true
		}
	}
	return "", false
}

// AssigneeError accumulates every directory violation found in a proposed
// assignee set. All three categories are reported together because each one
// calls for a different fix on the caller's side.
type AssigneeError struct {
	NonExistent []string
	Inactive    []string
	Admins      []string
}

func (e *AssigneeError) Error() string {
	var parts []string
	if len(e.NonExistent) > 0 {
		parts = append(parts, "some users do not exist in the system: "+strings.Join(e.NonExistent, ", "))
	}
	if len(e.Inactive) > 0 {
		parts = append(parts, "cannot assign to deactivated users: "+strings.Join(e.Inactive, ", "))
	}
	if len(e.Admins) > 0 {
		parts = append(parts, "cannot assign tasks to admins: "+strings.Join(e.Admins, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *AssigneeError) isEmpty() bool {
	return len(e.NonExistent) == 0 && len(e.Inactive) == 0 && len(e.Admins) == 0
}
