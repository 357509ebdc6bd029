package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type analyticsRepository struct {
	db *DB
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func (repo *analyticsRepository) CountUsers(_ context.Context, role user.Role) (int, error) {
	return repo.db.user.count(func(u user.User) bool { return u.Role == role }), nil
}

func (repo *analyticsRepository) CountClasses(_ context.Context) (int, error) {
	return repo.db.class.count(nil), nil
}

func (repo *analyticsRepository) TallyAttendance(_ context.Context) (present, total int, err error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	for _, att := range repo.db.attendance.rows {
		if att.Status == school.StatusPresent {
			present++
		}
	}
	return present, len(repo.db.attendance.rows), nil
}

func (repo *analyticsRepository) TallyGrades(_ context.Context) (sum, count int, err error) {
	repo.db.grade.RLock()
	defer repo.db.grade.RUnlock()

	for _, g := range repo.db.grade.rows {
		sum += g.Score
	}
	return sum, len(repo.db.grade.rows), nil
}
