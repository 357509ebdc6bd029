package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

type AttendanceStatus string

// Attendance statuses
const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
)

type (
	Class struct {
		ID          int         `json:"id" db:"id"`
		Name        string      `json:"name" db:"name"`
		TeacherID   int         `json:"teacherId" db:"teacher_id"`
		Description null.String `json:"description" db:"description"`
	}

	Assignment struct {
		ID          int         `json:"id" db:"id"`
		ClassID     int         `json:"classId" db:"class_id"`
		Title       string      `json:"title" db:"title"`
		Description null.String `json:"description" db:"description"`
		DueDate     null.Time   `json:"dueDate" db:"due_date"`
	}

	Grade struct {
		ID           int         `json:"id" db:"id"`
		StudentID    int         `json:"studentId" db:"student_id"`
		AssignmentID int         `json:"assignmentId" db:"assignment_id"`
		Score        int         `json:"score" db:"score"`
		Feedback     null.String `json:"feedback" db:"feedback"`
	}

	Attendance struct {
		ID        int              `json:"id" db:"id"`
		StudentID int              `json:"studentId" db:"student_id"`
		ClassID   int              `json:"classId" db:"class_id"`
		Date      time.Time        `json:"date" db:"date"`
		Status    AttendanceStatus `json:"status" db:"status"`
	}
)

// Creation requests. Parent IDs that come from the URL path are set by the caller before Validate.

type NewClass struct {
	Name        string      `json:"name" validate:"required,max=255"`
	TeacherID   int         `json:"teacherId" validate:"required,gt=0"`
	Description null.String `json:"description"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewAssignment struct {
	ClassID     int         `json:"-" validate:"gt=0"`
	Title       string      `json:"title" validate:"required,max=255"`
	Description null.String `json:"description"`
	DueDate     null.Time   `json:"dueDate"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

type NewGrade struct {
	AssignmentID int         `json:"-" validate:"gt=0"`
	StudentID    int         `json:"studentId" validate:"required,gt=0"`
	Score        *int        `json:"score" validate:"required,gte=0,lte=100"`
	Feedback     null.String `json:"feedback"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

type NewAttendance struct {
	ClassID   int              `json:"-" validate:"gt=0"`
	StudentID int              `json:"studentId" validate:"required,gt=0"`
	Date      time.Time        `json:"date" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.Status = AttendanceStatus(core.CleanString(string(na.Status), true /* lower */))
	return validate.Struct(na)
}
