// Package storetest holds the contract tests every storage.Store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

// OpenFunc must return an empty store whose ID sequences start at 1.
type OpenFunc func(t *testing.T) storage.Store

func RunStoreSuite(t *testing.T, open OpenFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"IDs start at 1 and increase", testIDs},
		{"missing IDs are absent, not errors", testGetMissing},
		{"optional fields round trip", testOptionalFields},
		{"list all", testListAll},
		{"list by foreign key", testListByForeignKey},
		{"username is unique", testUsernameUnique},
		{"bulk create", testBulkCreate},
		{"bulk create is atomic", testBulkAtomic},
		{"analytics on empty store", testAnalyticsEmpty},
		{"analytics tallies", testAnalyticsTallies},
		{"concurrent creates get distinct IDs", testConcurrentCreates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// CreateUser stores a user with a cheaply hashed password.
func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, role user.Role, fullName string) user.User {
	t.Helper()
	usr := user.User{Username: uname, Role: role, FullName: fullName}
	if pwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
		usr.PasswordHash = hash
	} else {
		usr.PasswordHash = []byte{}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func newUser(uname string) user.User {
	return user.User{Username: uname, PasswordHash: []byte("hash"), Role: user.RoleStudent, FullName: "Student " + uname}
}

var day = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func testIDs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		usr, err := s.Users().CreateUser(ctx, newUser(fmt.Sprintf("user%d", i)))
		require.NoError(t, err)
		assert.Equal(t, i, usr.ID, "user")

		cls, err := s.School().CreateClass(ctx, school.Class{Name: "Class", TeacherID: 1})
		require.NoError(t, err)
		assert.Equal(t, i, cls.ID, "class")

		asgmt, err := s.School().CreateAssignment(ctx, school.Assignment{ClassID: 1, Title: "HW"})
		require.NoError(t, err)
		assert.Equal(t, i, asgmt.ID, "assignment")

		grade, err := s.School().CreateGrade(ctx, school.Grade{StudentID: 2, AssignmentID: 1, Score: 80})
		require.NoError(t, err)
		assert.Equal(t, i, grade.ID, "grade")

		att, err := s.School().CreateAttendance(ctx, school.Attendance{StudentID: 2, ClassID: 1, Date: day, Status: school.StatusPresent})
		require.NoError(t, err)
		assert.Equal(t, i, att.ID, "attendance")
	}
}

func testGetMissing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	CreateUser(t, s.Users(), "alice", "", user.RoleAdmin, "Alice")

	_, found, err := s.Users().GetUserByID(ctx, 999)
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.Users().GetUserByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.School().GetClassByID(ctx, 999)
	assert.NoError(t, err)
	assert.False(t, found)

	usr, found, err := s.Users().GetUserByUsername(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Alice", usr.FullName)
}

func testOptionalFields(t *testing.T, s storage.Store) {
	ctx := context.Background()

	bare, err := s.School().CreateClass(ctx, school.Class{Name: "Algebra", TeacherID: 1})
	require.NoError(t, err)
	described, err := s.School().CreateClass(ctx, school.Class{Name: "Biology", TeacherID: 1, Description: null.StringFrom("cells")})
	require.NoError(t, err)

	got, found, err := s.School().GetClassByID(ctx, bare.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.Description.Valid)

	got, found, err = s.School().GetClassByID(ctx, described.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, null.StringFrom("cells"), got.Description)

	due := day.Add(48 * time.Hour)
	_, err = s.School().CreateAssignment(ctx, school.Assignment{ClassID: bare.ID, Title: "HW1", DueDate: null.TimeFrom(due)})
	require.NoError(t, err)
	_, err = s.School().CreateAssignment(ctx, school.Assignment{ClassID: bare.ID, Title: "HW2"})
	require.NoError(t, err)

	asgmts, err := s.School().QueryAssignmentsByClass(ctx, bare.ID)
	require.NoError(t, err)
	require.Len(t, asgmts, 2)
	for _, a := range asgmts {
		switch a.Title {
		case "HW1":
			assert.True(t, a.DueDate.Valid)
			assert.True(t, due.Equal(a.DueDate.Time))
		case "HW2":
			assert.False(t, a.DueDate.Valid)
			assert.False(t, a.Description.Valid)
		}
	}
}

func testListAll(t *testing.T, s storage.Store) {
	ctx := context.Background()

	users, err := s.Users().QueryUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	alice := CreateUser(t, s.Users(), "alice", "", user.RoleAdmin, "Alice")
	bob := CreateUser(t, s.Users(), "bob", "", user.RoleTeacher, "Bob")
	users, err = s.Users().QueryUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []user.User{alice, bob}, users)

	c1, err := s.School().CreateClass(ctx, school.Class{Name: "Algebra", TeacherID: bob.ID})
	require.NoError(t, err)
	c2, err := s.School().CreateClass(ctx, school.Class{Name: "Biology", TeacherID: bob.ID})
	require.NoError(t, err)
	classes, err := s.School().QueryClasses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []school.Class{c1, c2}, classes)
}

func testListByForeignKey(t *testing.T, s storage.Store) {
	ctx := context.Background()
	sch := s.School()

	a1, err := sch.CreateAssignment(ctx, school.Assignment{ClassID: 1, Title: "HW1"})
	require.NoError(t, err)
	_, err = sch.CreateAssignment(ctx, school.Assignment{ClassID: 2, Title: "HW2"})
	require.NoError(t, err)
	a3, err := sch.CreateAssignment(ctx, school.Assignment{ClassID: 1, Title: "HW3"})
	require.NoError(t, err)

	asgmts, err := sch.QueryAssignmentsByClass(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []school.Assignment{a1, a3}, asgmts)

	asgmts, err = sch.QueryAssignmentsByClass(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, asgmts)
	assert.Empty(t, asgmts)

	g1, err := sch.CreateGrade(ctx, school.Grade{StudentID: 2, AssignmentID: a1.ID, Score: 95})
	require.NoError(t, err)
	_, err = sch.CreateGrade(ctx, school.Grade{StudentID: 3, AssignmentID: a1.ID, Score: 60, Feedback: null.StringFrom("late")})
	require.NoError(t, err)

	grades, err := sch.QueryGradesByStudent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []school.Grade{g1}, grades)

	grades, err = sch.QueryGradesByStudent(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, grades)
	assert.Empty(t, grades)

	att, err := sch.CreateAttendance(ctx, school.Attendance{StudentID: 2, ClassID: 1, Date: day, Status: school.StatusLate})
	require.NoError(t, err)
	_, err = sch.CreateAttendance(ctx, school.Attendance{StudentID: 2, ClassID: 2, Date: day, Status: school.StatusAbsent})
	require.NoError(t, err)

	atts, err := sch.QueryAttendanceByClass(ctx, 1)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, att.ID, atts[0].ID)
	assert.Equal(t, school.StatusLate, atts[0].Status)
	assert.True(t, day.Equal(atts[0].Date))

	atts, err = sch.QueryAttendanceByClass(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, atts)
	assert.Empty(t, atts)
}

func testUsernameUnique(t *testing.T, s storage.Store) {
	CreateUser(t, s.Users(), "alice", "", user.RoleAdmin, "Alice")

	_, err := s.Users().CreateUser(context.Background(), newUser("alice"))
	assert.Equal(t, user.ErrUsernameExists, errors.Cause(err))
}

func testBulkCreate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	CreateUser(t, s.Users(), "alice", "", user.RoleAdmin, "Alice")

	created, err := s.Users().CreateUsers(ctx, []user.User{newUser("s1"), newUser("s2"), newUser("s3")})
	require.NoError(t, err)
	require.Len(t, created, 3)

	ids := make(map[int]bool)
	for _, usr := range created {
		assert.NotZero(t, usr.ID)
		ids[usr.ID] = true
	}
	assert.Len(t, ids, 3)

	users, err := s.Users().QueryUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func testBulkAtomic(t *testing.T, s storage.Store) {
	ctx := context.Background()
	carol := CreateUser(t, s.Users(), "carol", "", user.RoleTeacher, "Carol")

	t.Run("conflict with stored user", func(t *testing.T) {
		batch := []user.User{newUser("s1"), newUser("s2"), newUser("carol"), newUser("s4"), newUser("s5")}
		_, err := s.Users().CreateUsers(ctx, batch)
		assert.Equal(t, user.ErrUsernameExists, errors.Cause(err))

		users, err := s.Users().QueryUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []user.User{carol}, users)
	})

	t.Run("conflict inside the batch", func(t *testing.T) {
		batch := []user.User{newUser("s1"), newUser("s2"), newUser("s1")}
		_, err := s.Users().CreateUsers(ctx, batch)
		assert.Equal(t, user.ErrUsernameExists, errors.Cause(err))

		users, err := s.Users().QueryUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []user.User{carol}, users)
	})
}

func testAnalyticsEmpty(t *testing.T, s storage.Store) {
	ctx := context.Background()
	repo := s.Analytics()

	n, err := repo.CountUsers(ctx, user.RoleStudent)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.CountClasses(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	present, total, err := repo.TallyAttendance(ctx)
	require.NoError(t, err)
	assert.Zero(t, present)
	assert.Zero(t, total)

	sum, count, err := repo.TallyGrades(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum)
	assert.Zero(t, count)
}

func testAnalyticsTallies(t *testing.T, s storage.Store) {
	ctx := context.Background()
	CreateUser(t, s.Users(), "admin", "", user.RoleAdmin, "Admin")
	CreateUser(t, s.Users(), "teacher", "", user.RoleTeacher, "Teacher")
	CreateUser(t, s.Users(), "s1", "", user.RoleStudent, "S1")
	CreateUser(t, s.Users(), "s2", "", user.RoleStudent, "S2")

	_, err := s.School().CreateClass(ctx, school.Class{Name: "Algebra", TeacherID: 2})
	require.NoError(t, err)
	for _, status := range []school.AttendanceStatus{school.StatusPresent, school.StatusPresent, school.StatusLate} {
		_, err = s.School().CreateAttendance(ctx, school.Attendance{StudentID: 3, ClassID: 1, Date: day, Status: status})
		require.NoError(t, err)
	}
	for _, score := range []int{90, 75} {
		_, err = s.School().CreateGrade(ctx, school.Grade{StudentID: 3, AssignmentID: 1, Score: score})
		require.NoError(t, err)
	}

	repo := s.Analytics()
	n, err := repo.CountUsers(ctx, user.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	present, total, err := repo.TallyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, present)
	assert.Equal(t, 3, total)

	sum, count, err := repo.TallyGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, 165, sum)
	assert.Equal(t, 2, count)
}

func testConcurrentCreates(t *testing.T, s storage.Store) {
	const n = 20
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cls, err := s.School().CreateClass(ctx, school.Class{Name: fmt.Sprintf("Class %d", i), TeacherID: 1})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[cls.ID] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, ids, n)
}
