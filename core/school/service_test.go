package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/school"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

func intPtr(i int) *int { return &i }

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := school.NewService(inmemdb.Open().School())

	classes, err := svc.QueryClasses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, classes)
	assert.Empty(t, classes)

	_, err = svc.GetClass(ctx, 1)
	assert.Equal(t, school.ErrClassNotFound, err)

	cls, err := svc.CreateClass(ctx, school.NewClass{Name: "Algebra", TeacherID: 2})
	require.NoError(t, err)
	assert.Equal(t, school.Class{ID: 1, Name: "Algebra", TeacherID: 2}, cls)

	got, err := svc.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, cls, got)

	due := time.Date(2024, time.March, 8, 12, 0, 0, 0, time.UTC)
	asgmt, err := svc.CreateAssignment(ctx, school.NewAssignment{ClassID: cls.ID, Title: "HW1", DueDate: null.TimeFrom(due)})
	require.NoError(t, err)
	asgmts, err := svc.QueryAssignments(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, []school.Assignment{asgmt}, asgmts)

	grade, err := svc.CreateGrade(ctx, school.NewGrade{AssignmentID: asgmt.ID, StudentID: 3, Score: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, grade.Score)
	assert.False(t, grade.Feedback.Valid)
	grades, err := svc.QueryStudentGrades(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []school.Grade{grade}, grades)

	local := time.FixedZone("EAT", 3*60*60)
	att, err := svc.MarkAttendance(ctx, school.NewAttendance{
		ClassID:   cls.ID,
		StudentID: 3,
		Date:      time.Date(2024, time.March, 1, 9, 0, 0, 0, local),
		Status:    school.StatusLate,
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, att.Date.Location())
	assert.Equal(t, 6, att.Date.Hour())

	atts, err := svc.QueryClassAttendance(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, []school.Attendance{att}, atts)

	atts, err = svc.QueryClassAttendance(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, atts)
	assert.Empty(t, atts)
}
