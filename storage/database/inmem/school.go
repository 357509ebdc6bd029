package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	return repo.db.class.create(cls, func(c *school.Class, id int) { c.ID = id }), nil
}

func (repo *schoolRepository) GetClassByID(_ context.Context, id int) (school.Class, bool, error) {
	cls, ok := repo.db.class.get(id)
	return cls, ok, nil
}

func (repo *schoolRepository) QueryClasses(_ context.Context) ([]school.Class, error) {
	return repo.db.class.filter(nil), nil
}

func (repo *schoolRepository) CreateAssignment(_ context.Context, asgmt school.Assignment) (school.Assignment, error) {
	return repo.db.assignment.create(asgmt, func(a *school.Assignment, id int) { a.ID = id }), nil
}

func (repo *schoolRepository) QueryAssignmentsByClass(_ context.Context, classID int) ([]school.Assignment, error) {
	return repo.db.assignment.filter(func(a school.Assignment) bool { return a.ClassID == classID }), nil
}

func (repo *schoolRepository) CreateGrade(_ context.Context, grade school.Grade) (school.Grade, error) {
	return repo.db.grade.create(grade, func(g *school.Grade, id int) { g.ID = id }), nil
}

func (repo *schoolRepository) QueryGradesByStudent(_ context.Context, studentID int) ([]school.Grade, error) {
	return repo.db.grade.filter(func(g school.Grade) bool { return g.StudentID == studentID }), nil
}

func (repo *schoolRepository) CreateAttendance(_ context.Context, att school.Attendance) (school.Attendance, error) {
	return repo.db.attendance.create(att, func(a *school.Attendance, id int) { a.ID = id }), nil
}

func (repo *schoolRepository) QueryAttendanceByClass(_ context.Context, classID int) ([]school.Attendance, error) {
	return repo.db.attendance.filter(func(a school.Attendance) bool { return a.ClassID == classID }), nil
}
