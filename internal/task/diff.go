package task

// Diff is the change-set computed for one mutation. It drives notification
// planning and is echoed back to the caller alongside the saved task.
type Diff struct {
	FieldsChanged     []string `json:"fieldsChanged,omitempty"`
	StatusChanged     bool     `json:"statusChanged"`
	OldStatus         string   `json:"oldStatus,omitempty"`
	NewStatus         string   `json:"newStatus,omitempty"`
	PriorityEscalated bool     `json:"priorityEscalatedToUrgent"`
	MembersAdded      []string `json:"membersAdded,omitempty"`
	MembersRemoved    []string `json:"membersRemoved,omitempty"`
	CommentAdded      bool     `json:"commentAdded"`
}

// Reassigned reports whether the mutation changed the assignee set.
func (d Diff) Reassigned() bool {
	return len(d.MembersAdded) > 0 || len(d.MembersRemoved) > 0
}

func (d Diff) changed(field string) bool {
	for _, f := range d.FieldsChanged {
		if f == field {
			return true
		}
	}
	return false
}

// diffMembers computes added = next − prev and removed = prev − next over
// identity, preserving each set's display order.
func diffMembers(prev, next []string) (added, removed []string) {
	for _, m := range next {
		if !containsMember(prev, m) {
			added = append(added, m)
		}
	}
	for _, m := range prev {
		if !containsMember(next, m) {
			removed = append(removed, m)
		}
	}
	return added, removed
}
