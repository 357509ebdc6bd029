package school

import (
	"context"

	"github.com/pkg/errors"
)

var ErrClassNotFound = errors.New("class not found")

type (
	// Repository stores classes and their coursework. Lookups report false, without error, on a miss.
	// Foreign keys are not checked: writes to an unknown parent create orphans.
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id int) (Class, bool, error)
		QueryClasses(ctx context.Context) ([]Class, error)

		CreateAssignment(ctx context.Context, asgmt Assignment) (Assignment, error)
		QueryAssignmentsByClass(ctx context.Context, classID int) ([]Assignment, error)

		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
		QueryGradesByStudent(ctx context.Context, studentID int) ([]Grade, error)

		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		QueryAttendanceByClass(ctx context.Context, classID int) ([]Attendance, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	cls, err := svc.repo.CreateClass(ctx, Class{
		Name:        nc.Name,
		TeacherID:   nc.TeacherID,
		Description: nc.Description,
	})
	return cls, errors.Wrap(err, "creating class")
}

func (svc *Service) GetClass(ctx context.Context, id int) (Class, error) {
	cls, found, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, errors.Wrap(err, "finding class by ID")
	}
	if !found {
		return Class{}, ErrClassNotFound
	}
	return cls, nil
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []Class{}
	}
	return classes, nil
}

func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error) {
	asgmt, err := svc.repo.CreateAssignment(ctx, Assignment{
		ClassID:     na.ClassID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
	})
	return asgmt, errors.Wrap(err, "creating assignment")
}

func (svc *Service) QueryAssignments(ctx context.Context, classID int) ([]Assignment, error) {
	asgmts, err := svc.repo.QueryAssignmentsByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by class")
	}
	if asgmts == nil {
		asgmts = []Assignment{}
	}
	return asgmts, nil
}

func (svc *Service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	grade := Grade{
		StudentID:    ng.StudentID,
		AssignmentID: ng.AssignmentID,
		Feedback:     ng.Feedback,
	}
	if ng.Score != nil {
		grade.Score = *ng.Score
	}
	grade, err := svc.repo.CreateGrade(ctx, grade)
	return grade, errors.Wrap(err, "creating grade")
}

func (svc *Service) QueryStudentGrades(ctx context.Context, studentID int) ([]Grade, error) {
	grades, err := svc.repo.QueryGradesByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades by student")
	}
	if grades == nil {
		grades = []Grade{}
	}
	return grades, nil
}

func (svc *Service) MarkAttendance(ctx context.Context, na NewAttendance) (Attendance, error) {
	att, err := svc.repo.CreateAttendance(ctx, Attendance{
		StudentID: na.StudentID,
		ClassID:   na.ClassID,
		Date:      na.Date.UTC(),
		Status:    na.Status,
	})
	return att, errors.Wrap(err, "marking attendance")
}

func (svc *Service) QueryClassAttendance(ctx context.Context, classID int) ([]Attendance, error) {
	atts, err := svc.repo.QueryAttendanceByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by class")
	}
	if atts == nil {
		atts = []Attendance{}
	}
	return atts, nil
}
