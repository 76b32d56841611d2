package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresTaskID(t *testing.T) {
	_, err := validate(UpdateRequest{Status: strPtr("pending")})
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindMissingField, kind)
}

func TestValidateStatusEnum(t *testing.T) {
	for _, status := range []string{"pending", "in-progress", "completed", "blocked", "cancelled"} {
		_, err := validate(UpdateRequest{TaskID: "t-1", Status: strPtr(status)})
		assert.NoError(t, err, status)
	}
	for _, status := range []string{"done", "open", "PENDING", ""} {
		_, err := validate(UpdateRequest{TaskID: "t-1", Status: strPtr(status)})
		kind, _ := KindOf(err)
		assert.Equal(t, KindInvalidEnum, kind, status)
	}
}

func TestValidatePriorityEnum(t *testing.T) {
	_, err := validate(UpdateRequest{TaskID: "t-1", Priority: strPtr("urgent")})
	assert.NoError(t, err)

	_, err = validate(UpdateRequest{TaskID: "t-1", Priority: strPtr("critical")})
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidEnum, kind)
}

func TestValidateDueDate(t *testing.T) {
	for _, v := range []string{"2024-06-01", "2024-06-01T15:00:00Z"} {
		v := v
		_, err := validate(UpdateRequest{TaskID: "t-1", DueDate: NullableString{Set: true, Value: &v}})
		assert.NoError(t, err, v)
	}

	bad := "next tuesday"
	_, err := validate(UpdateRequest{TaskID: "t-1", DueDate: NullableString{Set: true, Value: &bad}})
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidDate, kind)

	// Explicit null clears the date and is always valid.
	_, err = validate(UpdateRequest{TaskID: "t-1", DueDate: NullableString{Set: true}})
	assert.NoError(t, err)
}

func TestValidateAssigneesDeduplicates(t *testing.T) {
	out, err := validate(UpdateRequest{TaskID: "t-1", AssignedTo: []string{
		"a@example.com", "a@example.com", "  ", "b@example.com",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, out.Assignees)
}

func TestValidateAssigneesEmptySet(t *testing.T) {
	_, err := validate(UpdateRequest{TaskID: "t-1", AssignedTo: []string{"", "   "}})
	kind, _ := KindOf(err)
	assert.Equal(t, KindNoAssignees, kind)

	_, err = validate(UpdateRequest{TaskID: "t-1", AssignedTo: []string{}})
	kind, _ = KindOf(err)
	assert.Equal(t, KindNoAssignees, kind)
}

func TestValidateAssigneesReportsAllBadShapes(t *testing.T) {
	_, err := validate(UpdateRequest{TaskID: "t-1", AssignedTo: []string{
		"ok@example.com", "no-at-sign", "spaces in@example.com", "also-bad",
	}})

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindInvalidIdentity, de.Kind)
	assert.Equal(t, []string{"no-at-sign", "spaces in@example.com", "also-bad"}, de.Values,
		"every offending entry is reported, not just the first")
}

func TestValidateCommentTrims(t *testing.T) {
	out, err := validate(UpdateRequest{TaskID: "t-1", Comment: strPtr("  fine  "), Status: strPtr("pending")})
	require.NoError(t, err)
	require.NotNil(t, out.Comment)
	assert.Equal(t, "fine", *out.Comment)

	out, err = validate(UpdateRequest{TaskID: "t-1", Comment: strPtr("   "), Status: strPtr("pending")})
	require.NoError(t, err)
	assert.Nil(t, out.Comment, "blank comment is treated as absent")
}

func TestValidIdentity(t *testing.T) {
	assert.True(t, ValidIdentity("user@example.com"))
	assert.False(t, ValidIdentity("user@example"))
	assert.False(t, ValidIdentity("user example@example.com"))
	assert.False(t, ValidIdentity("@example.com"))
}
