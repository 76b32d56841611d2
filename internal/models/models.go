package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage lookups when no record matches the key.
var ErrNotFound = errors.New("not found")

// Roles a principal may hold. Admins manage tasks, members work on them.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Comment is a single append-only remark on a task.
type Comment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Task is the shared record both roles mutate.
type Task struct {
	ID              string    `json:"taskId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	AssignedMembers []string  `json:"assignedMembers"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedBy       string    `json:"updatedBy"`
	DueDate         *string   `json:"dueDate"`
	Tags            []string  `json:"tags"`
	Comments        []Comment `json:"comments"`
}

// Clone returns a deep copy so an update can be merged without touching the
// caller's view of the old record.
func (t Task) Clone() Task {
	c := t
	c.AssignedMembers = append([]string(nil), t.AssignedMembers...)
	c.Tags = append([]string(nil), t.Tags...)
	c.Comments = append([]Comment(nil), t.Comments...)
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return c
}

// User is a principal known to the directory.
type User struct {
	ID        string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// DirectoryEntry carries the facts the mutation engine needs about a
// candidate assignee.
type DirectoryEntry struct {
	Exists bool
	Active bool
	Role   string
}

// ValidTaskStatuses enumerates the statuses a task may hold.
var ValidTaskStatuses = map[string]struct{}{
	"pending":     {},
	"in-progress": {},
	"completed":   {},
	"blocked":     {},
	"cancelled":   {},
}

// ValidTaskPriorities enumerates the priorities a task may hold.
var ValidTaskPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
	"urgent": {},
}

// ValidUserStatuses enumerates the account states the directory tracks.
var ValidUserStatuses = map[string]struct{}{
	"active":    {},
	"inactive":  {},
	"suspended": {},
}

// Defaults applied when a new task omits the field.
const (
	DefaultTaskStatus   = "pending"
	DefaultTaskPriority = "medium"
	PriorityUrgent      = "urgent"
	UserStatusActive    = "active"
)
