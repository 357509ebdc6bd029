package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var (
	classColumns      = []string{"id", "name", "teacher_id", "description"}
	assignmentColumns = []string{"id", "class_id", "title", "description", "due_date"}
	gradeColumns      = []string{"id", "student_id", "assignment_id", "score", "feedback"}
	attendanceColumns = []string{"id", "student_id", "class_id", "date", "status"}
)

type schoolRepository struct {
	db core.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db core.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	id, err := insertReturningID(ctx, repo.db, psql.Insert("classes").
		Columns("name", "teacher_id", "description").
		Values(cls.Name, cls.TeacherID, cls.Description))
	cls.ID = id
	return cls, err
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id int) (school.Class, bool, error) {
	var cls school.Class
	found, err := getOne(ctx, repo.db, &cls, psql.Select(classColumns...).From("classes").Where(sq.Eq{"id": id}))
	return cls, found, err
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	err := selectAll(ctx, repo.db, &classes, psql.Select(classColumns...).From("classes"))
	return classes, err
}

func (repo *schoolRepository) CreateAssignment(ctx context.Context, asgmt school.Assignment) (school.Assignment, error) {
	id, err := insertReturningID(ctx, repo.db, psql.Insert("assignments").
		Columns("class_id", "title", "description", "due_date").
		Values(asgmt.ClassID, asgmt.Title, asgmt.Description, asgmt.DueDate))
	asgmt.ID = id
	return asgmt, err
}

func (repo *schoolRepository) QueryAssignmentsByClass(ctx context.Context, classID int) ([]school.Assignment, error) {
	asgmts := make([]school.Assignment, 0)
	err := selectAll(ctx, repo.db, &asgmts,
		psql.Select(assignmentColumns...).From("assignments").Where(sq.Eq{"class_id": classID}))
	return asgmts, err
}

func (repo *schoolRepository) CreateGrade(ctx context.Context, grade school.Grade) (school.Grade, error) {
	id, err := insertReturningID(ctx, repo.db, psql.Insert("grades").
		Columns("student_id", "assignment_id", "score", "feedback").
		Values(grade.StudentID, grade.AssignmentID, grade.Score, grade.Feedback))
	grade.ID = id
	return grade, err
}

func (repo *schoolRepository) QueryGradesByStudent(ctx context.Context, studentID int) ([]school.Grade, error) {
	grades := make([]school.Grade, 0)
	err := selectAll(ctx, repo.db, &grades,
		psql.Select(gradeColumns...).From("grades").Where(sq.Eq{"student_id": studentID}))
	return grades, err
}

func (repo *schoolRepository) CreateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	id, err := insertReturningID(ctx, repo.db, psql.Insert("attendance").
		Columns("student_id", "class_id", "date", "status").
		Values(att.StudentID, att.ClassID, att.Date, att.Status))
	att.ID = id
	return att, err
}

func (repo *schoolRepository) QueryAttendanceByClass(ctx context.Context, classID int) ([]school.Attendance, error) {
	atts := make([]school.Attendance, 0)
	err := selectAll(ctx, repo.db, &atts,
		psql.Select(attendanceColumns...).From("attendance").Where(sq.Eq{"class_id": classID}))
	return atts, err
}
