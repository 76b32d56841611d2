package task

import "encoding/json"

// NullableString distinguishes an absent JSON field from an explicit null.
// An explicit null clears the stored value.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the field is present in the body, so
// Set is true whenever the decoder touches us.
func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// UpdateRequest is the transient partial-update payload. Pointer fields are
// absent when nil; slices are absent when nil.
type UpdateRequest struct {
	TaskID      string         `json:"taskId"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	Priority    *string        `json:"priority"`
	DueDate     NullableString `json:"dueDate"`
	Tags        []string       `json:"tags"`
	AssignedTo  []string       `json:"assignedTo"`
	Comment     *string        `json:"comment"`
}

// CreateRequest is the payload for creating a task (admin only).
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	AssignedTo  []string `json:"assignedTo"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}
