package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

func planFixture() (models.Task, models.Task) {
	old := models.Task{
		ID:              "t-9",
		Title:           "Rotate credentials",
		Status:          "pending",
		Priority:        "medium",
		AssignedMembers: []string{"a@example.com", "b@example.com"},
		CreatedBy:       "boss@example.com",
	}
	return old, old.Clone()
}

func TestPlanStatusChange(t *testing.T) {
	old, next := planFixture()
	next.Status = "in-progress"
	diff := Diff{StatusChanged: true, OldStatus: "pending", NewStatus: "in-progress", FieldsChanged: []string{"status"}}

	events := Plan(old, next, diff, "a@example.com")

	require.Len(t, events, 2)
	assert.Equal(t, "boss@example.com", events[0].Recipient, "creator is notified first")
	assert.Equal(t, IntentStatusChanged, events[0].Intent)
	assert.Equal(t, "b@example.com", events[1].Recipient, "the actor is excluded")
	assert.Equal(t, "pending", events[1].Payload.OldStatus)
	assert.Equal(t, "in-progress", events[1].Payload.NewStatus)
}

func TestPlanSkipsCreatorWhenActing(t *testing.T) {
	old, next := planFixture()
	next.Status = "completed"
	diff := Diff{StatusChanged: true, OldStatus: "pending", NewStatus: "completed"}

	events := Plan(old, next, diff, "boss@example.com")

	for _, ev := range events {
		assert.NotEqual(t, "boss@example.com", ev.Recipient)
	}
	assert.Len(t, events, 2)
}

func TestPlanEscalationIncludesActor(t *testing.T) {
	old, next := planFixture()
	next.Priority = "urgent"
	diff := Diff{PriorityEscalated: true, FieldsChanged: []string{"priority"}}

	events := Plan(old, next, diff, "a@example.com")

	require.Len(t, events, 2)
	assert.Equal(t, "a@example.com", events[0].Recipient, "urgency reaches everyone, triggerer included")
	assert.Equal(t, IntentUrgentEscalation, events[0].Intent)
	assert.True(t, events[0].Payload.Urgent)
}

func TestPlanReassignmentSuppressesGeneric(t *testing.T) {
	old, next := planFixture()
	next.Title = "Rotate credentials (Q2)"
	next.AssignedMembers = []string{"b@example.com", "c@example.com"}
	diff := Diff{
		FieldsChanged:  []string{"title", "assignedMembers"},
		MembersAdded:   []string{"c@example.com"},
		MembersRemoved: []string{"a@example.com"},
	}

	events := Plan(old, next, diff, "boss@example.com")

	require.Len(t, events, 2)
	assert.Equal(t, IntentAssigned, events[0].Intent)
	assert.Equal(t, "c@example.com", events[0].Recipient)
	assert.Equal(t, IntentUnassigned, events[1].Intent)
	assert.Equal(t, "a@example.com", events[1].Recipient)
}

func TestPlanUnassignedCarriesOnlyTitle(t *testing.T) {
	old, next := planFixture()
	next.AssignedMembers = []string{"b@example.com"}
	diff := Diff{MembersRemoved: []string{"a@example.com"}}

	events := Plan(old, next, diff, "boss@example.com")

	require.Len(t, events, 1)
	p := events[0].Payload
	assert.Equal(t, "Rotate credentials", p.Title)
	assert.Empty(t, p.Description)
	assert.Empty(t, p.Status)
	assert.Empty(t, p.Priority)
}

func TestPlanGenericUpdate(t *testing.T) {
	old, next := planFixture()
	next.Title = "Rotate credentials now"
	due := "2024-06-01"
	next.DueDate = &due
	diff := Diff{FieldsChanged: []string{"title", "dueDate"}}

	events := Plan(old, next, diff, "boss@example.com")

	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, IntentTaskUpdated, ev.Intent)
		assert.Equal(t, []string{"title", "dueDate"}, ev.Payload.ChangedFields)
	}
}

func TestPlanPriorityBelowUrgentIsGeneric(t *testing.T) {
	old, next := planFixture()
	old.Priority = "urgent"
	next.Priority = "high"
	diff := Diff{FieldsChanged: []string{"priority"}}

	events := Plan(old, next, diff, "boss@example.com")

	require.Len(t, events, 2)
	assert.Equal(t, IntentTaskUpdated, events[0].Intent)
	assert.Equal(t, []string{"priority"}, events[0].Payload.ChangedFields)
}

func TestPlanBucketOrdering(t *testing.T) {
	old, next := planFixture()
	next.Status = "in-progress"
	next.Priority = "urgent"
	next.AssignedMembers = []string{"b@example.com", "c@example.com"}
	diff := Diff{
		StatusChanged:     true,
		OldStatus:         "pending",
		NewStatus:         "in-progress",
		PriorityEscalated: true,
		MembersAdded:      []string{"c@example.com"},
		MembersRemoved:    []string{"a@example.com"},
		FieldsChanged:     []string{"status", "priority", "assignedMembers"},
	}

	events := Plan(old, next, diff, "admin@example.com")

	var intents []Intent
	for _, ev := range events {
		intents = append(intents, ev.Intent)
	}
	assert.Equal(t, []Intent{
		IntentStatusChanged, IntentStatusChanged, IntentStatusChanged,
		IntentUrgentEscalation, IntentUrgentEscalation,
		IntentAssigned,
		IntentUnassigned,
	}, intents)
}

func TestPlanIsPure(t *testing.T) {
	old, next := planFixture()
	next.Status = "blocked"
	diff := Diff{StatusChanged: true, OldStatus: "pending", NewStatus: "blocked"}

	first := Plan(old, next, diff, "x@example.com")
	second := Plan(old, next, diff, "x@example.com")
	assert.Equal(t, first, second)
}

func TestPlanEmptyDiffNoEvents(t *testing.T) {
	old, next := planFixture()
	assert.Empty(t, Plan(old, next, Diff{}, "boss@example.com"))
}
