package task

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

var mergeTime = time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

func TestMergeDoesNotMutateCurrent(t *testing.T) {
	current := testTask()
	req := ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Status: strPtr("completed"), Title: strPtr("New title")},
	}

	next, _, _ := merge(current, req, "boss@example.com", mergeTime)

	assert.Equal(t, "pending", current.Status, "old record must survive for diffing")
	assert.Equal(t, "Prepare release notes", current.Title)
	assert.Equal(t, "completed", next.Status)
	assert.Equal(t, "New title", next.Title)
}

func TestMergeStampsActorAndTime(t *testing.T) {
	next, _, fields := merge(testTask(), ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Status: strPtr("blocked")},
	}, "boss@example.com", mergeTime)

	assert.Equal(t, mergeTime, next.UpdatedAt)
	assert.Equal(t, "boss@example.com", next.UpdatedBy)
	assert.Equal(t, mergeTime, fields["updatedAt"])
	assert.Equal(t, "boss@example.com", fields["updatedBy"])
}

func TestMergeFieldMapNamesOnlyTouchedFields(t *testing.T) {
	_, _, fields := merge(testTask(), ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Status: strPtr("blocked")},
	}, "boss@example.com", mergeTime)

	assert.Equal(t, []string{"status", "updatedAt", "updatedBy"}, sortedKeys(fields))
}

func TestMergeDueDateClear(t *testing.T) {
	current := testTask()
	due := "2024-05-01"
	current.DueDate = &due

	next, diff, fields := merge(current, ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", DueDate: NullableString{Set: true}},
	}, "boss@example.com", mergeTime)

	assert.Nil(t, next.DueDate)
	assert.Contains(t, diff.FieldsChanged, "dueDate")
	assert.Nil(t, fields["dueDate"])
}

func TestMergeUnchangedValuesProduceEmptyDiff(t *testing.T) {
	current := testTask()

	_, diff, _ := merge(current, ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Status: strPtr(current.Status), Priority: strPtr(current.Priority)},
	}, "boss@example.com", mergeTime)

	assert.False(t, diff.StatusChanged)
	assert.False(t, diff.PriorityEscalated)
	assert.Empty(t, diff.FieldsChanged)
}

func TestMergePriorityEscalation(t *testing.T) {
	_, diff, _ := merge(testTask(), ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Priority: strPtr("urgent")},
	}, "boss@example.com", mergeTime)
	assert.True(t, diff.PriorityEscalated)

	current := testTask()
	current.Priority = "urgent"
	_, diff, _ = merge(current, ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Priority: strPtr("urgent")},
	}, "boss@example.com", mergeTime)
	assert.False(t, diff.PriorityEscalated, "already urgent is not an escalation")
}

func TestMergeCommentAppendsExactlyOne(t *testing.T) {
	current := testTask()
	current.Comments = []models.Comment{{Author: "a@example.com", Text: "first", Timestamp: mergeTime.Add(-time.Hour)}}

	next, diff, _ := merge(current, ValidatedRequest{
		UpdateRequest: UpdateRequest{TaskID: "t-1", Comment: strPtr("second")},
	}, "alice@example.com", mergeTime)

	assert.True(t, diff.CommentAdded)
	require.Len(t, next.Comments, 2)
	assert.Equal(t, "first", next.Comments[0].Text, "existing comments keep their order")
	assert.Equal(t, "second", next.Comments[1].Text)
	assert.Len(t, current.Comments, 1)
}

func TestDiffMembers(t *testing.T) {
	added, removed := diffMembers(
		[]string{"a@example.com", "b@example.com", "c@example.com"},
		[]string{"b@example.com", "c@example.com", "d@example.com"},
	)
	assert.Equal(t, []string{"d@example.com"}, added)
	assert.Equal(t, []string{"a@example.com"}, removed)

	added, removed = diffMembers([]string{"a@example.com"}, []string{"a@example.com"})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestCheckAssigneesAccumulates(t *testing.T) {
	entries := map[string]models.DirectoryEntry{
		"ok@example.com":    {Exists: true, Active: true, Role: models.RoleMember},
		"gone@example.com":  {},
		"idle@example.com":  {Exists: true, Active: false, Role: models.RoleMember},
		"chief@example.com": {Exists: true, Active: true, Role: models.RoleAdmin},
	}

	err := checkAssignees([]string{"ok@example.com", "gone@example.com", "idle@example.com", "chief@example.com"}, entries)

	var ae *AssigneeError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"gone@example.com"}, ae.NonExistent)
	assert.Equal(t, []string{"idle@example.com"}, ae.Inactive)
	assert.Equal(t, []string{"chief@example.com"}, ae.Admins)

	assert.NoError(t, checkAssignees([]string{"ok@example.com"}, entries))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
