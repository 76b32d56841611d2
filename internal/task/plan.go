package task

import "taskhub/internal/models"

// Intent names the reason a notification is sent. The notifier picks the
// subject and wording from it.
type Intent string

const (
	IntentStatusChanged    Intent = "status-changed"
	IntentUrgentEscalation Intent = "urgent-escalation"
	IntentAssigned         Intent = "assigned"
	IntentUnassigned       Intent = "unassigned"
	IntentTaskUpdated      Intent = "task-updated"
	IntentTaskClosed       Intent = "task-closed"
)

// Event is one planned notification: who, why, and the details the message
// needs. Dispatch is someone else's problem.
type Event struct {
	Recipient string
	Intent    Intent
	Payload   Payload
}

// Payload carries the task details a notification may render. Fields are
// populated per intent; an unassignment deliberately carries nothing beyond
// the title.
type Payload struct {
	TaskID        string
	Title         string
	Description   string
	Actor         string
	OldStatus     string
	NewStatus     string
	Status        string
	Priority      string
	Urgent        bool
	DueDate       *string
	ChangedFields []string
}

// Plan derives the ordered notification events for one applied mutation.
// Pure: no I/O, no clock. Rules fire independently, so a single update can
// address the same recipient more than once under different intents.
//
// Bucket order is fixed: status changes, urgency escalations, assignments,
// unassignments, then generic updates. Within a bucket, events follow the
// member set's display order.
func Plan(oldTask, newTask models.Task, diff Diff, actor string) []Event {
	var events []Event

	if diff.StatusChanged {
		if newTask.CreatedBy != "" && newTask.CreatedBy != actor {
			events = append(events, Event{
				Recipient: newTask.CreatedBy,
				Intent:    IntentStatusChanged,
				Payload: Payload{
					TaskID:    newTask.ID,
					Title:     newTask.Title,
					Actor:     actor,
					OldStatus: diff.OldStatus,
					NewStatus: diff.NewStatus,
				},
			})
		}
		for _, member := range newTask.AssignedMembers {
			if member == actor {
				continue
			}
			events = append(events, Event{
				Recipient: member,
				Intent:    IntentStatusChanged,
				Payload: Payload{
					TaskID:    newTask.ID,
					Title:     newTask.Title,
					Actor:     actor,
					OldStatus: diff.OldStatus,
					NewStatus: diff.NewStatus,
				},
			})
		}
	}

	if diff.PriorityEscalated {
		// Everyone in the final assignee set hears about urgency, the
		// actor included.
		for _, member := range newTask.AssignedMembers {
			events = append(events, Event{
				Recipient: member,
				Intent:    IntentUrgentEscalation,
				Payload: Payload{
					TaskID:      newTask.ID,
					Title:       newTask.Title,
					Description: newTask.Description,
					Actor:       actor,
					Status:      newTask.Status,
					Priority:    newTask.Priority,
					Urgent:      true,
				},
			})
		}
	}

	if diff.Reassigned() {
		urgent := newTask.Priority == models.PriorityUrgent
		for _, member := range diff.MembersAdded {
			events = append(events, Event{
				Recipient: member,
				Intent:    IntentAssigned,
				Payload: Payload{
					TaskID:      newTask.ID,
					Title:       newTask.Title,
					Description: newTask.Description,
					Actor:       actor,
					Status:      newTask.Status,
					Priority:    newTask.Priority,
					Urgent:      urgent,
					DueDate:     newTask.DueDate,
				},
			})
		}
		for _, member := range diff.MembersRemoved {
			events = append(events, Event{
				Recipient: member,
				Intent:    IntentUnassigned,
				Payload: Payload{
					TaskID: newTask.ID,
					Title:  newTask.Title,
					Actor:  actor,
				},
			})
		}
		return events
	}

	// The generic bucket only exists when no reassignment happened;
	// reassignment suppresses it even if other fields changed too.
	changed := genericChanges(diff)
	if len(changed) > 0 {
		for _, member := range newTask.AssignedMembers {
			if member == actor {
				continue
			}
			events = append(events, Event{
				Recipient: member,
				Intent:    IntentTaskUpdated,
				Payload: Payload{
					TaskID:        newTask.ID,
					Title:         newTask.Title,
					Actor:         actor,
					ChangedFields: changed,
				},
			})
		}
	}

	return events
}

// genericChanges lists the plain field changes worth a generic update
// notice: title, description, due date, and priority moves that stay below
// urgent (escalations have their own bucket).
func genericChanges(diff Diff) []string {
	var changed []string
	for _, field := range []string{"title", "description", "dueDate"} {
		if diff.changed(field) {
			changed = append(changed, field)
		}
	}
	if diff.changed("priority") && !diff.PriorityEscalated {
		changed = append(changed, "priority")
	}
	return changed
}
