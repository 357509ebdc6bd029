package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type analyticsRepository struct {
	db core.DB
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db core.DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func (repo *analyticsRepository) scan(ctx context.Context, b sq.SelectBuilder, dest ...interface{}) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building select")
	}
	return connErr(repo.db.QueryRowxContext(ctx, query, args...).Scan(dest...))
}

func (repo *analyticsRepository) CountUsers(ctx context.Context, role user.Role) (n int, err error) {
	err = repo.scan(ctx, psql.Select("COUNT(*)").From("users").Where(sq.Eq{"role": role}), &n)
	return n, err
}

func (repo *analyticsRepository) CountClasses(ctx context.Context) (n int, err error) {
	err = repo.scan(ctx, psql.Select("COUNT(*)").From("classes"), &n)
	return n, err
}

func (repo *analyticsRepository) TallyAttendance(ctx context.Context) (present, total int, err error) {
	err = repo.scan(ctx,
		psql.Select().
			Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?)", school.StatusPresent)).
			Column("COUNT(*)").
			From("attendance"),
		&present, &total,
	)
	return present, total, err
}

func (repo *analyticsRepository) TallyGrades(ctx context.Context) (sum, count int, err error) {
	err = repo.scan(ctx, psql.Select("COALESCE(SUM(score), 0)", "COUNT(*)").From("grades"), &sum, &count)
	return sum, count, err
}
