package analytics

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/trezcool/shule/core/user"
)

var ErrInvalidTimeRange = errors.New("timeRange must be one of: week, month, semester, year")

// Time ranges accepted by Trends.
const (
	RangeWeek     = "week"
	RangeMonth    = "month"
	RangeSemester = "semester"
	RangeYear     = "year"
)

type (
	// Repository computes raw tallies; the Service turns them into rounded figures.
	Repository interface {
		CountUsers(ctx context.Context, role user.Role) (int, error)
		CountClasses(ctx context.Context) (int, error)
		TallyAttendance(ctx context.Context) (present, total int, err error)
		TallyGrades(ctx context.Context) (sum, count int, err error)
	}

	Summary struct {
		TotalStudents     int `json:"totalStudents"`
		AverageAttendance int `json:"averageAttendance"`
		AverageGrade      int `json:"averageGrade"`
		TotalClasses      int `json:"totalClasses"`
	}

	TrendPoint struct {
		Name        string `json:"name"`
		Attendance  int    `json:"attendance"`
		Assignments int    `json:"assignments"`
		Grades      int    `json:"grades"`
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary computes the dashboard figures. Each call reads the store afresh.
func (svc *Service) Summary(ctx context.Context) (Summary, error) {
	var (
		sum                  Summary
		present, attTotal    int
		scoreSum, scoreCount int
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		sum.TotalStudents, err = svc.repo.CountUsers(ctx, user.RoleStudent)
		return errors.Wrap(err, "counting students")
	})
	p.Go(func(ctx context.Context) (err error) {
		sum.TotalClasses, err = svc.repo.CountClasses(ctx)
		return errors.Wrap(err, "counting classes")
	})
	p.Go(func(ctx context.Context) (err error) {
		present, attTotal, err = svc.repo.TallyAttendance(ctx)
		return errors.Wrap(err, "tallying attendance")
	})
	p.Go(func(ctx context.Context) (err error) {
		scoreSum, scoreCount, err = svc.repo.TallyGrades(ctx)
		return errors.Wrap(err, "tallying grades")
	})
	if err := p.Wait(); err != nil {
		return Summary{}, err
	}

	sum.AverageAttendance = roundedMean(float64(present*100), attTotal)
	sum.AverageGrade = roundedMean(float64(scoreSum), scoreCount)
	return sum, nil
}

// roundedMean is 0 when there is nothing to average.
func roundedMean(total float64, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Floor(total/float64(count) + .5))
}

var placeholderTrends = []TrendPoint{
	{Name: "Jan", Attendance: 85, Assignments: 92, Grades: 88},
	{Name: "Feb", Attendance: 88, Assignments: 85, Grades: 90},
	{Name: "Mar", Attendance: 92, Assignments: 89, Grades: 87},
	{Name: "Apr", Attendance: 90, Assignments: 95, Grades: 91},
}

// Trends returns the period series for timeRange. An empty timeRange means RangeMonth.
// The series is a fixed placeholder until attendance and grades are bucketed by date.
func (svc *Service) Trends(timeRange string) ([]TrendPoint, error) {
	switch timeRange {
	case "", RangeWeek, RangeMonth, RangeSemester, RangeYear:
	default:
		return nil, ErrInvalidTimeRange
	}
	points := make([]TrendPoint, len(placeholderTrends))
	copy(points, placeholderTrends)
	return points, nil
}
